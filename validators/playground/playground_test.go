package playground_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-go/veldt"
	"github.com/veldt-go/veldt/validators/playground"
)

type createUser struct {
	Name  string `json:"name"  validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age"   validate:"omitempty,gte=0,lte=150"`
}

func requireIssues(t *testing.T, err error) []veldt.ValidationIssue {
	t.Helper()

	var verr *veldt.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "go-playground/validator", verr.Vendor)
	return verr.Issues
}

func TestTagStringSchema(t *testing.T) {
	v := playground.New()

	assert.NoError(t, v.Validate("required,min=3", "abcd"))

	issues := requireIssues(t, v.Validate("required,min=3", "ab"))
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "min")
}

func TestStructPrototypeSchema(t *testing.T) {
	v := playground.New()

	t.Run("valid value from parsed body shape", func(t *testing.T) {
		err := v.Validate(createUser{}, map[string]any{
			"name":  "ada",
			"email": "ada@example.com",
			"age":   36,
		})
		assert.NoError(t, err)
	})

	t.Run("issues carry field paths", func(t *testing.T) {
		issues := requireIssues(t, v.Validate(createUser{}, map[string]any{
			"name":  "a",
			"email": "not-an-email",
		}))
		require.Len(t, issues, 2)

		paths := []string{issues[0].Path, issues[1].Path}
		assert.Contains(t, paths, "Name")
		assert.Contains(t, paths, "Email")
	})

	t.Run("pointer prototype works", func(t *testing.T) {
		err := v.Validate(&createUser{}, map[string]any{
			"name":  "ada",
			"email": "ada@example.com",
		})
		assert.NoError(t, err)
	})

	t.Run("value that cannot decode into the prototype", func(t *testing.T) {
		issues := requireIssues(t, v.Validate(createUser{}, map[string]any{
			"name": []any{"not", "a", "string"},
		}))
		require.NotEmpty(t, issues)
	})

	t.Run("unsupported schema type", func(t *testing.T) {
		err := v.Validate(42, nil)
		require.Error(t, err)
		assert.NotErrorAs(t, err, new(*veldt.ValidationError))
	})
}

func TestVendor(t *testing.T) {
	assert.Equal(t, "go-playground/validator", playground.New().Vendor())
}
