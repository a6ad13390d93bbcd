package domain_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/ember/internal/domain"
)

func TestPromptTemplate_Render(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		variables map[string]string
		expected  string
	}{
		{
			name:      "replaces every occurrence",
			body:      "Hello {{name}}, {{name}}!",
			variables: map[string]string{"name": "Ada"},
			expected:  "Hello Ada, Ada!",
		},
		{
			name:      "leaves unresolved placeholders verbatim",
			body:      "Project {{project}} due {{deadline}}",
			variables: map[string]string{"project": "Apollo"},
			expected:  "Project Apollo due {{deadline}}",
		},
		{
			name:      "ignores unknown keys",
			body:      "static",
			variables: map[string]string{"unused": "x"},
			expected:  "static",
		},
		{
			name:      "does not re-scan substituted values",
			body:      "{{a}} {{b}}",
			variables: map[string]string{"a": "{{b}}", "b": "B"},
			expected:  "{{b}} B",
		},
		{
			name:      "no variables",
			body:      "Hi {{x}}",
			variables: nil,
			expected:  "Hi {{x}}",
		},
		{
			name:      "no escaping",
			body:      "<{{tag}}>",
			variables: map[string]string{"tag": `"&'`},
			expected:  `<"&'>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := domain.NewPromptTemplate(tt.body, "1.0.0")

			require.Equal(t, tt.expected, tpl.Render(tt.variables))
		})
	}
}

func TestPromptTemplate_RenderIsIdempotentOnceResolved(t *testing.T) {
	tpl := domain.NewPromptTemplate("Break down {{task}} for {{team}}", "2.1.0")
	variables := map[string]string{"task": "login", "team": "web"}

	first := tpl.Render(variables)
	second := domain.NewPromptTemplate(first, "2.1.0").Render(variables)

	require.Equal(t, "Break down login for web", first)
	require.Equal(t, first, second)
	require.Equal(t, "Break down {{task}} for {{team}}", tpl.Body(), "template is immutable")
	require.Equal(t, "2.1.0", tpl.Version())
}

func TestPromptTemplate_RenderStrict(t *testing.T) {
	tpl := domain.NewPromptTemplate("{{a}} {{b}} {{a}} {{c}}", "1.0.0")

	require.Equal(t, []string{"a", "b", "c"}, tpl.Placeholders())

	_, err := tpl.RenderStrict(map[string]string{"a": "1"})
	require.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)
	require.Contains(t, err.Error(), "b, c")

	rendered, err := tpl.RenderStrict(map[string]string{"a": "1", "b": "2", "c": "3"})
	require.NoError(t, err)
	require.Equal(t, "1 2 1 3", rendered)
}

func TestPromptTemplate_ConcurrentRender(t *testing.T) {
	tpl := domain.NewPromptTemplate("{{n}}", "1.0.0")

	results := make([]string, 50)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = tpl.Render(map[string]string{"n": "x"})
		}()
	}
	wg.Wait()

	for _, result := range results {
		require.Equal(t, "x", result)
	}
}
