package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrUnresolvedPlaceholder indicates a strict render left a {{key}} unfilled.
var ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.-]+)\}\}`)

// PromptTemplate is an immutable, versioned prompt body with {{key}} placeholders.
type PromptTemplate struct {
	body    string
	version string
}

// NewPromptTemplate creates a template.
func NewPromptTemplate(body, version string) PromptTemplate {
	return PromptTemplate{
		body:    body,
		version: version,
	}
}

// Body returns the raw template text.
func (t PromptTemplate) Body() string {
	return t.body
}

// Version returns the semantic version tag.
func (t PromptTemplate) Version() string {
	return t.version
}

// Render replaces every {{key}} occurrence for the supplied keys.
// Placeholders without a value are left verbatim; values are not re-scanned.
func (t PromptTemplate) Render(variables map[string]string) string {
	if len(variables) == 0 {
		return t.body
	}

	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", variables[key])
	}

	return strings.NewReplacer(pairs...).Replace(t.body)
}

// RenderStrict renders like Render but fails if a placeholder of the body has no value.
func (t PromptTemplate) RenderStrict(variables map[string]string) (string, error) {
	var missing []string
	for _, name := range t.Placeholders() {
		if _, ok := variables[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, strings.Join(missing, ", "))
	}

	return t.Render(variables), nil
}

// Placeholders returns the distinct placeholder names of the body in order of first use.
func (t PromptTemplate) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(t.body, -1)

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}

	return names
}
