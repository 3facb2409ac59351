// Package captiongen asks a language model for caption lines.
package captiongen

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"reelsmith/config"
)

// Provider turns a prompt into caption lines
type Provider interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
	Name() string
}

// Supported provider names
const (
	Cohere = "cohere"
	OpenAI = "openai"
	Gemini = "gemini"
)

// Options configure a provider at construction
type Options struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
}

// Factory builds a provider from options
type Factory func(Options) (Provider, error)

var registry = map[string]Factory{
	Cohere: NewCohere,
	OpenAI: NewOpenAI,
	Gemini: NewGemini,
}

var envKeys = map[string]string{
	Cohere: "COHERE_API_KEY",
	OpenAI: "OPENAI_API_KEY",
	Gemini: "GEMINI_API_KEY",
}

// Names lists the registered providers
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New resolves name against the registry, reading the API key from the
// environment when opts does not carry one.
func New(name string, opts Options) (Provider, error) {
	factory, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown caption provider %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	if opts.APIKey == "" {
		opts.APIKey = config.GetEnvOrDefault(envKeys[strings.ToLower(name)], "")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s caption provider requires %s", name, envKeys[strings.ToLower(name)])
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return factory(opts)
}

// Instruction is prepended to every prompt so that all providers answer in
// the caption file format.
const Instruction = `You write captions for a short vertical video.
Answer with one caption per line, at most 8 words per line, no numbering,
no timestamps, no surrounding quotes and no commentary.

`

var numbering = regexp.MustCompile(`^\s*(?:\d+[.):]|[-*•])\s+`)

// SplitResponse turns a model answer into caption lines: code fences,
// numbering and surrounding quotes are removed, blank lines dropped.
func SplitResponse(text string) []string {
	var lines []string
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		l := strings.TrimSpace(raw)
		if l == "" || strings.HasPrefix(l, "```") {
			continue
		}
		l = numbering.ReplaceAllString(l, "")
		l = strings.Trim(l, `"“”`)
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
