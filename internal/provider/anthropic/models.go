package anthropic

// SupportedModels returns the list of models supported by the Anthropic provider.
func SupportedModels() []string {
	return []string{
		"claude-opus-4-1",
		"claude-opus-4-0",
		"claude-sonnet-4-5",
		"claude-sonnet-4-0",
		"claude-3-7-sonnet-latest",
		"claude-3-5-haiku-latest",
		"claude-haiku-4-5",
	}
}

// buildModelSet creates a map for O(1) lookup.
func buildModelSet(models []string) map[string]bool {
	set := make(map[string]bool, len(models))
	for _, model := range models {
		set[model] = true
	}
	return set
}
