package prompts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/mocks"
	"github.com/davidbz/ember/internal/prompts"
)

func breakdownVars() map[string]string {
	return map[string]string{
		"project_name":     "Apollo",
		"task_title":       "Ship login page",
		"task_description": "Email and password, with reset flow.",
		"min_subtasks":     "3",
		"max_subtasks":     "6",
	}
}

func TestCatalog_LoadsEveryPrompt(t *testing.T) {
	catalog, err := prompts.NewCatalog()
	require.NoError(t, err)

	require.Equal(t, []prompts.ID{prompts.ProjectChat, prompts.RiskScoring, prompts.TaskBreakdown}, catalog.IDs())

	for _, id := range catalog.IDs() {
		prompt, err := catalog.Get(id)
		require.NoError(t, err)
		require.NotEmpty(t, prompt.System.Body())
		require.NotEmpty(t, prompt.User.Body())
		require.Equal(t, prompt.System.Version(), prompt.User.Version())
		require.NotEmpty(t, prompt.Version())
	}
}

func TestCatalog_UnknownPrompt(t *testing.T) {
	catalog, err := prompts.NewCatalog()
	require.NoError(t, err)

	_, err = catalog.Get("missing")

	require.ErrorIs(t, err, prompts.ErrUnknownPrompt)
}

func TestDefault_ReturnsSameCatalog(t *testing.T) {
	first, err := prompts.Default()
	require.NoError(t, err)
	second, err := prompts.Default()
	require.NoError(t, err)

	require.Same(t, first, second)
}

func TestPrompt_Request(t *testing.T) {
	catalog, err := prompts.Default()
	require.NoError(t, err)
	prompt, err := catalog.Get(prompts.TaskBreakdown)
	require.NoError(t, err)

	req, err := prompt.Request(breakdownVars())

	require.NoError(t, err)
	require.Contains(t, req.SystemPrompt, "between 3 and 6 subtasks")
	require.NotContains(t, req.SystemPrompt, "{{")
	require.Equal(t, "Project: Apollo\n\nTask: Ship login page\n\nDetails:\nEmail and password, with reset flow.",
		req.UserMessage)
}

func TestPrompt_Request_MissingVariable(t *testing.T) {
	catalog, err := prompts.Default()
	require.NoError(t, err)
	prompt, err := catalog.Get(prompts.RiskScoring)
	require.NoError(t, err)

	req, err := prompt.Request(map[string]string{"project_name": "Apollo"})

	require.Nil(t, req)
	require.ErrorIs(t, err, domain.ErrUnresolvedPlaceholder)
	require.Contains(t, err.Error(), "deadline")
}

func TestTaskBreakdown_Schema(t *testing.T) {
	schema := domain.NewStructSchema[prompts.Breakdown]()

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name: "valid",
			raw: `{"summary":"Login","subtasks":[` +
				`{"title":"Form","description":"UI","estimate_hours":4,"priority":"high"},` +
				`{"title":"Reset","description":"Mail","estimate_hours":2.5,"priority":"low"}]}`,
		},
		{
			name:    "no subtasks",
			raw:     `{"summary":"Login","subtasks":[]}`,
			wantErr: `"subtasks"`,
		},
		{
			name:    "bad priority",
			raw:     `{"summary":"Login","subtasks":[{"title":"Form","estimate_hours":4,"priority":"urgent"}]}`,
			wantErr: `"subtasks[0].priority"`,
		},
		{
			name:    "zero estimate",
			raw:     `{"summary":"Login","subtasks":[{"title":"Form","estimate_hours":0,"priority":"low"}]}`,
			wantErr: `"subtasks[0].estimate_hours"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown, err := schema.Decode([]byte(tt.raw))
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.Len(t, breakdown.Subtasks, 2)
				require.InDelta(t, 6.5, breakdown.TotalHours(), 1e-9)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRiskAssessment_Schema(t *testing.T) {
	schema := domain.NewStructSchema[prompts.RiskAssessment]()

	assessment, err := schema.Decode([]byte(`{"score":72,"level":"high",` +
		`"factors":[{"name":"Scope creep","severity":"high","detail":"3 new features"}],` +
		`"recommendations":["Freeze scope"]}`))
	require.NoError(t, err)
	require.Equal(t, 72, assessment.Score)

	_, err = schema.Decode([]byte(`{"score":140,"level":"high","factors":[],"recommendations":[]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), `"score"`)
}

func TestTaskBreakdown_SchemaCompletion(t *testing.T) {
	catalog, err := prompts.Default()
	require.NoError(t, err)
	prompt, err := catalog.Get(prompts.TaskBreakdown)
	require.NoError(t, err)
	req, err := prompt.Request(breakdownVars())
	require.NoError(t, err)

	completer := mocks.NewMockCompleter(t)
	completer.EXPECT().
		Complete(mock.Anything, mock.MatchedBy(func(r *domain.CompletionRequest) bool {
			return r.ResponseFormat == domain.ResponseFormatJSON && r.UserMessage == req.UserMessage
		})).
		Return(&domain.CompletionResult{
			Content: "```json\n{\"summary\":\"Login\",\"subtasks\":[{\"title\":\"Form\",\"estimate_hours\":3," +
				"\"priority\":\"medium\"}]}\n```",
			Usage: domain.TokenUsage{InputTokens: 120, OutputTokens: 40},
			Model: "claude-sonnet-4-5",
		}, nil).
		Once()

	completion := domain.NewSchemaCompletion[prompts.Breakdown](
		completer, domain.NewStructSchema[prompts.Breakdown]())

	result, err := completion.Complete(context.Background(), req)

	require.NoError(t, err)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, "Form", result.Data.Subtasks[0].Title)
	require.Equal(t, domain.TokenUsage{InputTokens: 120, OutputTokens: 40}, result.Usage)
}
