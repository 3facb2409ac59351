package captions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reelsmith/config"
	"reelsmith/types"

	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// Generator produces caption lines from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// Enricher appends source material to the base prompt
type Enricher interface {
	Enrich(ctx context.Context, prompt string) (string, error)
}

// Resolver picks the caption source of a run
type Resolver struct {
	ProjectDir string
	// Override is an explicit caption file and wins over every other source
	Override string
	// Generator is set when captions must be generated for this run
	Generator Generator
	// Enricher is optional
	Enricher Enricher
	Logger   *zap.Logger
}

// Resolve returns the untimed caption track. Sources in priority order: the
// override file, fresh generation, a previously generated file, the first
// static subtitle/*.txt file. No source at all yields an empty track.
func (r *Resolver) Resolve(ctx context.Context) (types.CaptionTrack, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	subtitleDir := filepath.Join(r.ProjectDir, config.SubtitleDir)
	generatedPath := filepath.Join(subtitleDir, config.GeneratedCaptionsFile)

	if r.Override != "" {
		lines, err := readLines(r.Override)
		if err != nil {
			return types.CaptionTrack{}, types.Errorf(types.ErrConfig, "read caption override: %w", err)
		}
		logger.Info("using caption override", zap.String("path", r.Override), zap.Int("lines", len(lines)))
		return types.CaptionTrack{Entries: Entries(lines), Source: r.Override}, nil
	}

	if r.Generator != nil {
		lines, err := r.generate(ctx)
		if err != nil {
			return types.CaptionTrack{}, err
		}
		if err := WriteLines(generatedPath, lines); err != nil {
			return types.CaptionTrack{}, fmt.Errorf("write generated captions: %w", err)
		}
		logger.Info("generated captions", zap.Int("lines", len(lines)), zap.String("path", generatedPath))
		return types.CaptionTrack{Entries: Entries(lines), Source: generatedPath}, nil
	}

	if lines, err := readLines(generatedPath); err == nil {
		logger.Info("reusing generated captions", zap.String("path", generatedPath))
		return types.CaptionTrack{Entries: Entries(lines), Source: generatedPath}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return types.CaptionTrack{}, fmt.Errorf("read generated captions: %w", err)
	}

	static, err := staticFiles(subtitleDir)
	if err != nil {
		return types.CaptionTrack{}, err
	}
	if len(static) == 0 {
		logger.Info("no caption source found, rendering without captions")
		return types.CaptionTrack{}, nil
	}
	lines, err := readLines(static[0])
	if err != nil {
		return types.CaptionTrack{}, fmt.Errorf("read captions: %w", err)
	}
	logger.Info("using static captions", zap.String("path", static[0]), zap.Int("lines", len(lines)))
	return types.CaptionTrack{Entries: Entries(lines), Source: static[0]}, nil
}

func (r *Resolver) generate(ctx context.Context) ([]string, error) {
	prompt, err := LoadPrompt(r.ProjectDir)
	if err != nil {
		return nil, types.NewError(types.ErrCaptionProvider, err)
	}
	if r.Enricher != nil {
		enriched, err := r.Enricher.Enrich(ctx, prompt)
		if err != nil {
			return nil, types.Errorf(types.ErrCaptionProvider, "enrich prompt: %w", err)
		}
		prompt = enriched
	}

	lines, err := r.Generator.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.Errorf(types.ErrCaptionProvider, "generate captions: %w", err)
	}
	if len(Entries(lines)) == 0 {
		return nil, types.Errorf(types.ErrCaptionProvider, "caption provider returned no usable lines")
	}
	return lines, nil
}

// LoadPrompt reads prompt/prompt.md of a project
func LoadPrompt(projectDir string) (string, error) {
	path := filepath.Join(projectDir, config.PromptDir, config.PromptFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", fmt.Errorf("prompt %s is empty", path)
	}
	return prompt, nil
}

// WriteLines stores one caption per line
func WriteLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

func readLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLines(string(b)), nil
}

// staticFiles lists subtitle/*.txt in natural order, excluding the generated file
func staticFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range matches {
		if filepath.Base(m) == config.GeneratedCaptionsFile {
			continue
		}
		out = append(out, m)
	}
	sort.Sort(natural.StringSlice(out))
	return out, nil
}
