package domain_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/mocks"
)

type milestone struct {
	Name  string   `json:"name"  validate:"required"`
	Weeks int      `json:"weeks" validate:"gte=1,lte=52"`
	Tags  []string `json:"tags"`
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain json", input: `{"a":1}`, expected: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "bare fence", input: "```\n[1,2]\n```", expected: `[1,2]`},
		{name: "surrounding whitespace", input: "  \n```JSON\n{\"a\":1}\n```  \n", expected: `{"a":1}`},
		{name: "single line with tag", input: "```json{\"a\":1}```", expected: `{"a":1}`},
		{name: "single line without tag", input: "```{\"a\":1}```", expected: `{"a":1}`},
		{name: "leading fence only", input: "```json\n{\"a\":1}", expected: `{"a":1}`},
		{name: "trailing fence only", input: "{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "json on the fence line", input: "```{\"a\":\n1}\n```", expected: "{\"a\":\n1}"},
		{name: "inner backticks kept", input: "```json\n{\"code\":\"```\"}\n```", expected: "{\"code\":\"```\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, domain.StripCodeFences(tt.input))
		})
	}
}

func TestStructSchema_Decode(t *testing.T) {
	schema := domain.NewStructSchema[milestone]()

	value, err := schema.Decode([]byte(`{"name":"Beta","weeks":6,"tags":["ui"]}`))
	require.NoError(t, err)
	require.Equal(t, milestone{Name: "Beta", Weeks: 6, Tags: []string{"ui"}}, value)

	_, err = schema.Decode([]byte(`{"name":"Beta"`))
	require.ErrorContains(t, err, "not valid JSON")

	_, err = schema.Decode([]byte(`{"weeks":0}`))
	require.ErrorContains(t, err, `field "name" failed "required" validation`)
	require.ErrorContains(t, err, `field "weeks" failed "gte" validation (1)`)
}

func TestStructSchema_PointerTarget(t *testing.T) {
	schema := domain.NewStructSchema[*milestone]()

	value, err := schema.Decode([]byte(`{"name":"Beta","weeks":2}`))
	require.NoError(t, err)
	require.Equal(t, &milestone{Name: "Beta", Weeks: 2}, value)

	_, err = schema.Decode([]byte(`{"weeks":0}`))
	require.ErrorContains(t, err, `field "name" failed "required" validation`)
	require.ErrorContains(t, err, `field "weeks" failed "gte" validation (1)`)

	_, err = schema.Decode([]byte(`null`))
	require.ErrorContains(t, err, "value is null")
}

func TestStructSchema_ContainerTargets(t *testing.T) {
	t.Run("slice of structs", func(t *testing.T) {
		schema := domain.NewStructSchema[[]milestone]()

		value, err := schema.Decode([]byte(`[{"name":"A","weeks":1},{"name":"B","weeks":2}]`))
		require.NoError(t, err)
		require.Len(t, value, 2)

		_, err = schema.Decode([]byte(`[{"name":"A","weeks":1},{"weeks":0}]`))
		require.ErrorContains(t, err, `field "[1].name" failed "required" validation`)
		require.ErrorContains(t, err, `field "[1].weeks" failed "gte" validation (1)`)

		_, err = schema.Decode([]byte(`null`))
		require.ErrorContains(t, err, "value is null")
	})

	t.Run("slice of struct pointers", func(t *testing.T) {
		schema := domain.NewStructSchema[[]*milestone]()

		_, err := schema.Decode([]byte(`[{"name":"A","weeks":1},null]`))
		require.ErrorContains(t, err, `field "[1]" failed "required" validation`)

		_, err = schema.Decode([]byte(`[{"name":"A","weeks":99}]`))
		require.ErrorContains(t, err, `field "[0].weeks" failed "lte" validation (52)`)
	})

	t.Run("map of structs", func(t *testing.T) {
		schema := domain.NewStructSchema[map[string]milestone]()

		_, err := schema.Decode([]byte(`{"alpha":{"name":"","weeks":3}}`))
		require.ErrorContains(t, err, `field "[alpha].name" failed "required" validation`)
	})

	t.Run("nested slices", func(t *testing.T) {
		schema := domain.NewStructSchema[[][]milestone]()

		_, err := schema.Decode([]byte(`[[{"name":"A","weeks":1}],[{"name":"B","weeks":0}]]`))
		require.ErrorContains(t, err, `"gte" validation`)
	})
}

func TestSchemaCompletion_PointerSchemaRejectsInvalidData(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().Complete(mock.Anything, mock.Anything).Return(textResult(`null`, 1, 1), nil).Once()
	completer.EXPECT().Complete(mock.Anything, mock.Anything).Return(textResult(`{"weeks":0}`, 1, 1), nil).Once()

	completion := domain.NewSchemaCompletion[*milestone](completer, domain.NewStructSchema[*milestone]())

	result, err := completion.Complete(context.Background(), &domain.CompletionRequest{UserMessage: "plan"})

	require.Nil(t, result)
	require.True(t, domain.IsKind(err, domain.KindSchemaValidationFailed))
}

func TestStructSchema_NonStructTarget(t *testing.T) {
	schema := domain.NewStructSchema[[]string]()

	value, err := schema.Decode([]byte(`["a","b"]`))

	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, value)
}

func textResult(content string, in, out int) *domain.CompletionResult {
	return &domain.CompletionResult{
		Content: content,
		Usage:   domain.TokenUsage{InputTokens: in, OutputTokens: out},
		Latency: 100 * time.Millisecond,
		Model:   testModel,
	}
}

func TestSchemaCompletion_FirstPassSuccess(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().
		Complete(mock.Anything, mock.MatchedBy(func(req *domain.CompletionRequest) bool {
			return req.ResponseFormat == domain.ResponseFormatJSON && req.UserMessage == "plan"
		})).
		Return(textResult("```json\n{\"name\":\"Beta\",\"weeks\":4}\n```", 50, 20), nil).
		Once()

	completion := domain.NewSchemaCompletion[milestone](completer, domain.NewStructSchema[milestone]())

	result, err := completion.Complete(context.Background(), &domain.CompletionRequest{UserMessage: "plan"})

	require.NoError(t, err)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, milestone{Name: "Beta", Weeks: 4}, result.Data)
	require.Equal(t, `{"name":"Beta","weeks":4}`, result.Raw)
	require.Equal(t, domain.TokenUsage{InputTokens: 50, OutputTokens: 20}, result.Usage)
}

func TestSchemaCompletion_CorrectiveRetry(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	invalid := `{"name":"Beta","weeks":0}`

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "earlier"},
		{Role: domain.RoleAssistant, Content: "reply"},
	}

	completer.EXPECT().
		Complete(mock.Anything, mock.MatchedBy(func(req *domain.CompletionRequest) bool {
			return req.UserMessage == "plan"
		})).
		Return(textResult(invalid, 50, 20), nil).
		Once()

	completer.EXPECT().
		Complete(mock.Anything, mock.MatchedBy(func(req *domain.CompletionRequest) bool {
			return strings.Contains(req.UserMessage, `field "weeks" failed "gte" validation`)
		})).
		Run(func(_ context.Context, req *domain.CompletionRequest) {
			require.Equal(t, domain.ResponseFormatJSON, req.ResponseFormat)
			require.Equal(t, "sys", req.SystemPrompt)
			require.Equal(t, []domain.Message{
				history[0],
				history[1],
				{Role: domain.RoleUser, Content: "plan"},
				{Role: domain.RoleAssistant, Content: invalid},
			}, req.History)
		}).
		Return(textResult(`{"name":"Beta","weeks":3}`, 90, 15), nil).
		Once()

	completion := domain.NewSchemaCompletion[milestone](completer, domain.NewStructSchema[milestone]())

	original := &domain.CompletionRequest{SystemPrompt: "sys", UserMessage: "plan", History: history}
	result, err := completion.Complete(context.Background(), original)

	require.NoError(t, err)
	require.Equal(t, 2, result.Attempts)
	require.Equal(t, 3, result.Data.Weeks)
	require.Equal(t, domain.TokenUsage{InputTokens: 140, OutputTokens: 35}, result.Usage)
	require.Equal(t, 200*time.Millisecond, result.Latency)
	require.Len(t, original.History, 2, "caller's request is not mutated")
	require.Empty(t, original.ResponseFormat)
}

func TestSchemaCompletion_FailsAfterOneRetry(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().
		Complete(mock.Anything, mock.Anything).
		Return(textResult("Sure! Here is the plan.", 10, 10), nil).
		Twice()

	completion := domain.NewSchemaCompletion[milestone](completer, domain.NewStructSchema[milestone]())

	result, err := completion.Complete(context.Background(), &domain.CompletionRequest{UserMessage: "plan"})

	require.Nil(t, result)
	require.True(t, domain.IsKind(err, domain.KindSchemaValidationFailed))
	require.ErrorContains(t, err, "not valid JSON")
}

func TestSchemaCompletion_EmptyResponseIsInvalid(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().Complete(mock.Anything, mock.Anything).Return(textResult("```json\n```", 5, 1), nil).Once()
	completer.EXPECT().
		Complete(mock.Anything, mock.MatchedBy(func(req *domain.CompletionRequest) bool {
			return strings.Contains(req.UserMessage, "response is empty")
		})).
		Return(textResult(`{"name":"A","weeks":1}`, 5, 5), nil).
		Once()

	completion := domain.NewSchemaCompletion[milestone](completer, domain.NewStructSchema[milestone]())

	result, err := completion.Complete(context.Background(), &domain.CompletionRequest{UserMessage: "plan"})

	require.NoError(t, err)
	require.Equal(t, 2, result.Attempts)
}

func TestSchemaCompletion_EngineErrorIsNotRetried(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().
		Complete(mock.Anything, mock.Anything).
		Return(nil, &domain.Error{Kind: domain.KindRateLimited, Message: "slow down"}).
		Once()

	completion := domain.NewSchemaCompletion[milestone](completer, domain.NewStructSchema[milestone]())

	_, err := completion.Complete(context.Background(), &domain.CompletionRequest{UserMessage: "plan"})

	require.True(t, domain.IsKind(err, domain.KindRateLimited))
}

func TestSchemaCompletion_RetryEngineError(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().Complete(mock.Anything, mock.Anything).Return(textResult("nope", 1, 1), nil).Once()
	completer.EXPECT().
		Complete(mock.Anything, mock.Anything).
		Return(nil, &domain.Error{Kind: domain.KindTimeout, Message: "too slow"}).
		Once()

	completion := domain.NewSchemaCompletion[milestone](completer, domain.NewStructSchema[milestone]())

	_, err := completion.Complete(context.Background(), &domain.CompletionRequest{UserMessage: "plan"})

	require.True(t, domain.IsKind(err, domain.KindTimeout))
}

func TestSchemaCompletion_SchemaFunc(t *testing.T) {
	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().Complete(mock.Anything, mock.Anything).Return(textResult(`"ok"`, 1, 1), nil).Once()

	schema := domain.SchemaFunc[string](func(raw []byte) (string, error) {
		if string(raw) != `"ok"` {
			return "", errors.New("want ok")
		}
		return "ok", nil
	})

	result, err := domain.NewSchemaCompletion[string](completer, schema).
		Complete(context.Background(), &domain.CompletionRequest{UserMessage: "x"})

	require.NoError(t, err)
	require.Equal(t, "ok", result.Data)
}

func TestSchemaCompletion_NilRequest(t *testing.T) {
	completion := domain.NewSchemaCompletion[milestone](mocks.NewMockCompleter(t), domain.NewStructSchema[milestone]())

	_, err := completion.Complete(context.Background(), nil)

	require.True(t, domain.IsKind(err, domain.KindBadRequest))
}
