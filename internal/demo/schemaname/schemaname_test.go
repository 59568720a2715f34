package schemaname

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

func TestValidateBraces(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"{{hey there}}", nil},
		{"hey there", nil},
		{"connect{{client_id}}", nil},
		{"{hey there}}", ErrInvalidBraceCount},
		{"hey there}}", ErrInvalidBraceCount},
		{"{{hey there}", ErrInvalidBraceCount},
		{"{{hey there", ErrInvalidBraceCount},
		{"{{}}", ErrInvalidContent},
		{"{{   }}", ErrInvalidContent},
		{"}}hey there{{", ErrInvalidEndingBrace},
		{"{{a{{b}}}}", ErrInvalidStartingBrace},
		{"{a}", ErrInvalidStartingBrace},
		{"a}", ErrInvalidEndingBrace},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateBraces(tt.input)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidSchema)
			assert.Equal(t, errkind.Validation, errkind.Classify(err))
		})
	}
}

func TestRender(t *testing.T) {
	name, err := Render("connect{{client_id}}", map[string]string{"client_id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "connect7", name)

	name, err = Render("{{ prefix }}_{{suffix}}", map[string]string{"prefix": "a", "suffix": "b"})
	require.NoError(t, err)
	assert.Equal(t, "a_b", name)

	name, err = Render("public", nil)
	require.NoError(t, err)
	assert.Equal(t, "public", name)

	_, err = Render("connect{{client_id}}", nil)
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = Render("{{client id}}", map[string]string{"client id": "1"})
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = Render("{{x}}", map[string]string{"x": ""})
	assert.ErrorIs(t, err, ErrInvalidContent)

	_, err = Render("{{x}", map[string]string{"x": "1"})
	assert.ErrorIs(t, err, ErrInvalidBraceCount)
}

func TestRenderAll(t *testing.T) {
	names, err := RenderAll([]Schema{
		{Name: "public"},
		{Name: "connect{{client_id}}", Values: map[string]string{"client_id": "3"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"public", "connect3"}, names)

	_, err = RenderAll([]Schema{{Name: "public"}, {Name: "{{}}"}})
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestAuthorize(t *testing.T) {
	available := []string{"public", "account", "connect1"}
	assert.NoError(t, Authorize([]string{"public", "connect1"}, available))
	assert.NoError(t, Authorize(nil, available))

	err := Authorize([]string{"public", "accountz"}, available)
	assert.ErrorIs(t, err, ErrUnknownSchema)
	assert.Contains(t, err.Error(), "accountz")
}

func TestTemplateValidator(t *testing.T) {
	validate := validator.New()
	validate.RegisterValidation("schemaTemplate", TemplateValidator)

	tests := []struct {
		input   string
		isValid bool
	}{
		{"public", true},
		{"connect{{client_id}}", true},
		{"", false},
		{"{{}}", false},
		{"}}x{{", false},
	}
	for _, test := range tests {
		err := validate.Var(test.input, "schemaTemplate")
		assert.Equal(t, test.isValid, err == nil, "input %q", test.input)
	}
}

func TestProperty_Braces(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("text without braces is always valid", prop.ForAll(
		func(s string) bool {
			return ValidateBraces(s) == nil
		},
		gen.AlphaString(),
	))

	properties.Property("a wrapped identifier renders to its value", prop.ForAll(
		func(prefix, name, value string) bool {
			if value == "" {
				value = "v"
			}
			out, err := Render(prefix+"{{"+name+"}}", map[string]string{name: value})
			return err == nil && out == prefix+value
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.Property("a lone closing pair is never valid", prop.ForAll(
		func(s string) bool {
			return ValidateBraces(s+"}}") != nil
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
