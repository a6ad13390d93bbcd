package anthropic

// Config contains Anthropic provider configuration.
// All fields map to SDK options:
//   - APIKey: Maps to option.WithAPIKey()
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//
// Retries are always disabled; backoff is a caller concern.
type Config struct {
	APIKey  string `env:"ANTHROPIC_API_KEY"`
	BaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	Timeout int    `env:"LLM_TIMEOUT"        envDefault:"30"`
}
