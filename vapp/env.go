package vapp

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must
// implement. Embed BaseEnvironment in your struct to satisfy it.
type Environment interface {
	port() int
	serviceName() string
	healthPath() string
	logLevel() zapcore.Level
	h2c() bool
	shutdownTimeout() time.Duration
}

// BaseEnvironment contains the required environment variables. Embed this in
// your custom environment struct.
type BaseEnvironment struct {
	Port        int           `env:"VELDT_PORT" envDefault:"8080"`
	ServiceName string        `env:"VELDT_SERVICE_NAME,required"`
	HealthPath  string        `env:"VELDT_HEALTH_PATH" envDefault:"/healthz"`
	LogLevel    zapcore.Level `env:"VELDT_LOG_LEVEL" envDefault:"info"`
	// H2C enables cleartext HTTP/2, for deployments behind a load balancer
	// that speaks h2c to its backends.
	H2C             bool          `env:"VELDT_H2C" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"VELDT_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func (e BaseEnvironment) port() int {
	return e.Port
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) healthPath() string {
	return e.HealthPath
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) h2c() bool {
	return e.H2C
}

func (e BaseEnvironment) shutdownTimeout() time.Duration {
	return e.ShutdownTimeout
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}
		return e, nil
	}
}
