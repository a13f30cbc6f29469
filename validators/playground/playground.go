// Package playground adapts github.com/go-playground/validator to the
// validation gate. Two schema shapes are supported: a tag expression string
// such as "required,min=3", checked against the value directly, and a struct
// prototype with validate tags, which the incoming generic value is
// re-encoded into before checking.
package playground

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	validator "github.com/go-playground/validator/v10"

	"github.com/veldt-go/veldt"
)

const vendor = "go-playground/validator"

// Validator implements [veldt.Validator].
type Validator struct {
	v *validator.Validate
}

// New inits the adapter with required-struct semantics enabled.
func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (pv *Validator) Vendor() string { return vendor }

// Validate checks value against the schema. Failures come back as a
// [*veldt.ValidationError]; only schema misuse (an unsupported schema type)
// is reported as a plain error.
func (pv *Validator) Validate(schema, value any) error {
	if tags, ok := schema.(string); ok {
		return pv.translate(pv.v.Var(value, tags))
	}

	target, err := instantiate(schema)
	if err != nil {
		return err
	}

	if err := rehydrate(value, target); err != nil {
		return &veldt.ValidationError{Vendor: vendor, Issues: []veldt.ValidationIssue{{
			Message: err.Error(),
		}}}
	}

	return pv.translate(pv.v.Struct(target))
}

// instantiate allocates a fresh instance of the prototype's struct type.
func instantiate(schema any) (any, error) {
	typ := reflect.TypeOf(schema)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, errors.Newf("unsupported schema type %T, want a tag string or struct prototype", schema)
	}

	return reflect.New(typ).Interface(), nil
}

// rehydrate re-encodes the parsed body value into the schema's struct type.
func rehydrate(value, target any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "encode body value")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return errors.Wrap(err, "decode body into schema type")
	}

	return nil
}

// translate maps the library's error type onto the structured form.
func (pv *Validator) translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "run validator")
	}

	issues := make([]veldt.ValidationIssue, len(verrs))
	for i, fe := range verrs {
		msg := "failed rule " + strconv.Quote(fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		issues[i] = veldt.ValidationIssue{Path: fieldPath(fe), Message: msg}
	}

	return &veldt.ValidationError{Vendor: vendor, Issues: issues}
}

// fieldPath strips the synthetic root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}

	return ""
}
