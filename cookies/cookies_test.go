package cookies_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-go/veldt/cookies"
)

func TestSerialize(t *testing.T) {
	t.Run("attribute order is stable", func(t *testing.T) {
		s, err := cookies.Serialize(cookies.Cookie{
			Name:  "session",
			Value: "abc",
			Attributes: cookies.Attributes{
				Expires:  time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
				MaxAge:   3600,
				Domain:   "example.com",
				Path:     "/",
				Secure:   true,
				HttpOnly: true,
				SameSite: cookies.SameSiteLax,
			},
		})
		require.NoError(t, err)
		assert.Equal(t,
			"session=abc; Expires=Tue, 01 Sep 2026 12:00:00 GMT; Max-Age=3600; "+
				"Domain=example.com; Path=/; Secure; HttpOnly; SameSite=Lax", s)
	})

	t.Run("value is percent encoded", func(t *testing.T) {
		s, err := cookies.Serialize(cookies.Cookie{Name: "v", Value: `a b;c"d`})
		require.NoError(t, err)
		assert.Equal(t, "v=a%20b%3Bc%22d", s)
	})

	t.Run("negative max age deletes", func(t *testing.T) {
		s, err := cookies.Serialize(cookies.Cookie{
			Name: "gone", Value: "",
			Attributes: cookies.Attributes{MaxAge: -1},
		})
		require.NoError(t, err)
		assert.Contains(t, s, "Max-Age=0")
	})

	t.Run("lifetime beyond 400 days is a constraint error", func(t *testing.T) {
		limit := 400 * 24 * 3600

		_, err := cookies.Serialize(cookies.Cookie{
			Name: "long", Value: "v",
			Attributes: cookies.Attributes{MaxAge: limit * 2},
		})
		requireConstraint(t, err, cookies.ConstraintAgeLimit)

		_, err = cookies.Serialize(cookies.Cookie{
			Name: "far", Value: "v",
			Attributes: cookies.Attributes{Expires: time.Now().Add(900 * 24 * time.Hour)},
		})
		requireConstraint(t, err, cookies.ConstraintAgeLimit)

		s, err := cookies.Serialize(cookies.Cookie{
			Name: "ok", Value: "v",
			Attributes: cookies.Attributes{MaxAge: limit - 1},
		})
		require.NoError(t, err)
		assert.Contains(t, s, "Max-Age="+strconv.Itoa(limit-1))
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := cookies.Serialize(cookies.Cookie{Name: "bad name", Value: "v"})
		requireConstraint(t, err, cookies.ConstraintInvalidName)

		_, err = cookies.Serialize(cookies.Cookie{Name: "", Value: "v"})
		requireConstraint(t, err, cookies.ConstraintInvalidName)
	})
}

func requireConstraint(t *testing.T, err error, kind cookies.ConstraintKind) {
	t.Helper()

	var cerr *cookies.ConstraintError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, kind, cerr.Kind)
}

func TestSerializePrefixRules(t *testing.T) {
	t.Run("__Secure- requires secure", func(t *testing.T) {
		_, err := cookies.Serialize(cookies.Cookie{Name: "__Secure-id", Value: "v"})
		requireConstraint(t, err, cookies.ConstraintSecurePrefix)

		_, err = cookies.Serialize(cookies.Cookie{
			Name: "__Secure-id", Value: "v",
			Attributes: cookies.Attributes{Secure: true},
		})
		require.NoError(t, err)
	})

	t.Run("__Host- requires secure, no domain, root path", func(t *testing.T) {
		ok := cookies.Cookie{
			Name: "__Host-id", Value: "v",
			Attributes: cookies.Attributes{Secure: true, Path: "/"},
		}
		_, err := cookies.Serialize(ok)
		require.NoError(t, err)

		bad := ok
		bad.Path = "/admin"
		_, err = cookies.Serialize(bad)
		requireConstraint(t, err, cookies.ConstraintHostPrefix)

		bad = ok
		bad.Domain = "example.com"
		_, err = cookies.Serialize(bad)
		requireConstraint(t, err, cookies.ConstraintHostPrefix)

		bad = ok
		bad.Secure = false
		_, err = cookies.Serialize(bad)
		requireConstraint(t, err, cookies.ConstraintHostPrefix)
	})
}

func TestSerializeSameSiteAndPartitioned(t *testing.T) {
	t.Run("samesite none requires secure", func(t *testing.T) {
		_, err := cookies.Serialize(cookies.Cookie{
			Name: "x", Value: "v",
			Attributes: cookies.Attributes{SameSite: cookies.SameSiteNone},
		})
		requireConstraint(t, err, cookies.ConstraintSameSiteNone)
	})

	t.Run("partitioned requires secure and samesite none", func(t *testing.T) {
		_, err := cookies.Serialize(cookies.Cookie{
			Name: "x", Value: "v",
			Attributes: cookies.Attributes{Partitioned: true, Secure: true},
		})
		requireConstraint(t, err, cookies.ConstraintPartitioned)

		s, err := cookies.Serialize(cookies.Cookie{
			Name: "x", Value: "v",
			Attributes: cookies.Attributes{
				Partitioned: true, Secure: true, SameSite: cookies.SameSiteNone,
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "x=v; Secure; SameSite=None; Partitioned", s)
	})
}

func TestParse(t *testing.T) {
	t.Run("splits pairs and decodes values", func(t *testing.T) {
		parsed := cookies.Parse("a=1; b=hello%20world; c=plain")
		require.Len(t, parsed, 3)
		assert.Equal(t, "1", parsed[0].Value)
		assert.Equal(t, "hello world", parsed[1].Value)
		assert.Equal(t, "plain", parsed[2].Value)
	})

	t.Run("bad percent encoding keeps raw value", func(t *testing.T) {
		parsed := cookies.Parse("a=100%valid")
		require.Len(t, parsed, 1)
		assert.Equal(t, "100%valid", parsed[0].Value)
	})

	t.Run("skips malformed names", func(t *testing.T) {
		parsed := cookies.Parse("ok=1; bad name=2; =3")
		require.Len(t, parsed, 1)
		assert.Equal(t, "ok", parsed[0].Name)
	})

	t.Run("round trip", func(t *testing.T) {
		for _, value := range []string{
			"a b=c",
			"a+b",
			"a\nb",
			"tok%20en",
			"\x00\x01\x7f",
			"héllo",
		} {
			s, err := cookies.Serialize(cookies.Cookie{Name: "v", Value: value})
			require.NoError(t, err)

			parsed := cookies.Parse(s)
			require.Len(t, parsed, 1)
			assert.Equal(t, value, parsed[0].Value)
		}
	})

	t.Run("low bytes encode with two hex digits", func(t *testing.T) {
		s, err := cookies.Serialize(cookies.Cookie{Name: "v", Value: "a\nb"})
		require.NoError(t, err)
		assert.Equal(t, "v=a%0Ab", s)
	})

	t.Run("literal plus survives parsing", func(t *testing.T) {
		parsed := cookies.Parse("tz=GMT+2")
		require.Len(t, parsed, 1)
		assert.Equal(t, "GMT+2", parsed[0].Value)
	})

	t.Run("lookup", func(t *testing.T) {
		parsed := cookies.Parse("a=1; b=2")

		c, ok := cookies.Lookup(parsed, "b")
		require.True(t, ok)
		assert.Equal(t, "2", c.Value)

		_, ok = cookies.Lookup(parsed, "z")
		assert.False(t, ok)
	})
}
