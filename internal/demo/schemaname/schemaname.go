// Package schemaname validates, renders and authorizes the schema names a client asks to index.
// A name may carry placeholders such as "connect{{client_id}}" that are filled from per-schema values.
package schemaname

import (
	"regexp"
	"slices"
	"strings"

	"github.com/basejump-ai/basejump-demo/internal/common/apperrors"
)

// Schema is a requested schema name template and the values used to render it.
type Schema struct {
	Name   string            `json:"schema_nm" yaml:"schema_nm" toml:"schema_nm" validate:"required,schemaTemplate"`
	Values map[string]string `json:"jinja_values,omitempty" yaml:"jinja_values,omitempty" toml:"jinja_values"`
}

const (
	openBrace  = "{{"
	closeBrace = "}}"
)

var placeholderRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateBraces reports whether every "{{" is closed by a matching "}}" around a non empty
// placeholder, with no stray single braces.
func ValidateBraces(s string) apperrors.Error {
	if strings.Count(s, openBrace) != strings.Count(s, closeBrace) {
		return ErrInvalidBraceCount.Msg("template braces are unbalanced in " + s)
	}
	_, err := placeholders(s)
	return err
}

// placeholders returns the trimmed placeholder names found in s in order of appearance.
func placeholders(s string) ([]string, apperrors.Error) {
	var names []string
	open := false
	start := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], openBrace):
			if open {
				return nil, ErrInvalidStartingBrace.Msg("nested opening braces in " + s)
			}
			open = true
			i += len(openBrace)
			start = i
		case strings.HasPrefix(s[i:], closeBrace):
			if !open {
				return nil, ErrInvalidEndingBrace.Msg("closing braces without opening braces in " + s)
			}
			name := strings.TrimSpace(s[start:i])
			if name == "" {
				return nil, ErrInvalidContent.Msg("empty placeholder in " + s)
			}
			names = append(names, name)
			open = false
			i += len(closeBrace)
		case s[i] == '{':
			return nil, ErrInvalidStartingBrace.Msg("single opening brace in " + s)
		case s[i] == '}':
			return nil, ErrInvalidEndingBrace.Msg("single closing brace in " + s)
		default:
			i++
		}
	}
	if open {
		return nil, ErrInvalidStartingBrace.Msg("unclosed placeholder in " + s)
	}
	return names, nil
}

// Render validates the template and substitutes every placeholder from values.
func Render(template string, values map[string]string) (string, apperrors.Error) {
	if err := ValidateBraces(template); err != nil {
		return "", err
	}
	var b strings.Builder
	rest := template
	for {
		i := strings.Index(rest, openBrace)
		if i < 0 {
			b.WriteString(rest)
			break
		}
		j := strings.Index(rest[i:], closeBrace) + i
		name := strings.TrimSpace(rest[i+len(openBrace) : j])
		if !placeholderRegex.MatchString(name) {
			return "", ErrInvalidContent.Msg("placeholder " + name + " is not an identifier")
		}
		v, ok := values[name]
		if !ok {
			return "", ErrInvalidContent.Msg("no value for placeholder " + name)
		}
		b.WriteString(rest[:i])
		b.WriteString(v)
		rest = rest[j+len(closeBrace):]
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrInvalidContent.Msg("schema name renders empty")
	}
	return b.String(), nil
}

// RenderAll renders every schema, keeping the request order.
func RenderAll(schemas []Schema) ([]string, apperrors.Error) {
	names := make([]string, 0, len(schemas))
	for _, s := range schemas {
		name, err := Render(s.Name, s.Values)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Authorize fails with ErrUnknownSchema for the first requested name that is not in available.
func Authorize(requested, available []string) apperrors.Error {
	for _, name := range requested {
		if !slices.Contains(available, name) {
			return ErrUnknownSchema.Msg("schema " + name + " is not available on the target")
		}
	}
	return nil
}
