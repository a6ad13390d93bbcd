// Package prompts holds the versioned prompt templates used by the AI-assisted features.
package prompts

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/davidbz/ember/internal/domain"
)

//go:embed templates/*.txt
var templatesFS embed.FS

// ErrUnknownPrompt indicates a prompt id missing from the catalog.
var ErrUnknownPrompt = errors.New("unknown prompt")

// ID names a prompt in the catalog.
type ID string

const (
	TaskBreakdown ID = "task_breakdown"
	RiskScoring   ID = "risk_scoring"
	ProjectChat   ID = "project_chat"
)

// Bump the version whenever a template body changes.
//
//nolint:gochecknoglobals // Read-only version table
var versions = map[ID]string{
	TaskBreakdown: "1.2.0",
	RiskScoring:   "1.1.0",
	ProjectChat:   "1.0.0",
}

// Prompt pairs the system and user templates of one catalog entry.
type Prompt struct {
	ID     ID
	System domain.PromptTemplate
	User   domain.PromptTemplate
}

// Version returns the version shared by both templates.
func (p Prompt) Version() string {
	return p.System.Version()
}

// Request renders both templates strictly into a completion request.
func (p Prompt) Request(variables map[string]string) (*domain.CompletionRequest, error) {
	system, err := p.System.RenderStrict(variables)
	if err != nil {
		return nil, fmt.Errorf("render %s system prompt: %w", p.ID, err)
	}

	user, err := p.User.RenderStrict(variables)
	if err != nil {
		return nil, fmt.Errorf("render %s user prompt: %w", p.ID, err)
	}

	return &domain.CompletionRequest{
		SystemPrompt: system,
		UserMessage:  user,
	}, nil
}

// Catalog is the set of prompts bundled with the binary. It is read-only after construction.
type Catalog struct {
	prompts map[ID]Prompt
}

// NewCatalog loads every embedded template.
func NewCatalog() (*Catalog, error) {
	prompts := make(map[ID]Prompt, len(versions))

	for id, version := range versions {
		system, err := readTemplate(id, "system")
		if err != nil {
			return nil, err
		}
		user, err := readTemplate(id, "user")
		if err != nil {
			return nil, err
		}

		prompts[id] = Prompt{
			ID:     id,
			System: domain.NewPromptTemplate(system, version),
			User:   domain.NewPromptTemplate(user, version),
		}
	}

	return &Catalog{prompts: prompts}, nil
}

// Get returns the prompt registered under id.
func (c *Catalog) Get(id ID) (Prompt, error) {
	prompt, ok := c.prompts[id]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownPrompt, id)
	}
	return prompt, nil
}

// IDs returns the catalog entries in sorted order.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, 0, len(c.prompts))
	for id := range c.prompts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

//nolint:gochecknoglobals // Process-wide catalog, loaded once
var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the process-wide catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = NewCatalog()
	})
	return defaultCatalog, defaultErr
}

func readTemplate(id ID, part string) (string, error) {
	path := fmt.Sprintf("templates/%s.%s.txt", id, part)

	raw, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template %s: %w", path, err)
	}

	return strings.TrimRight(string(raw), "\n"), nil
}
