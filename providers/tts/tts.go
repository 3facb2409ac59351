// Package tts synthesizes the narration track, one utterance per caption line.
package tts

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reelsmith/config"
	"reelsmith/types"

	"go.uber.org/zap"
)

// Synthesizer turns voice lines into a single narration file
type Synthesizer interface {
	Synthesize(ctx context.Context, lines []string, workDir string) (*types.Narration, error)
	Name() string
}

// Engine speaks one line into outPath
type Engine interface {
	Speak(ctx context.Context, text, outPath string) error
	// Ext is the file extension of produced audio, including the dot
	Ext() string
	Name() string
}

// AudioTools is the subset of media tooling the synthesizer needs
type AudioTools interface {
	Duration(ctx context.Context, path string) (float64, error)
	Concat(ctx context.Context, inputs []string, outPath string) error
	Silence(ctx context.Context, outPath string, seconds float64) error
}

// Supported provider names
const (
	ElevenLabs = "elevenlabs"
	Deepgram   = "deepgram"
	Command    = "command"
)

// Options configure an engine
type Options struct {
	APIKey   string
	Voice    string
	Model    string
	Endpoint string
	// Command is the local synthesis command line; {text} and {out} are substituted
	Command string
	Client  *http.Client
}

type factory func(Options) (Engine, error)

var registry = map[string]factory{
	ElevenLabs: NewElevenLabs,
	Deepgram:   NewDeepgram,
	Command:    NewCommand,
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

// New builds a line-by-line synthesizer for the named engine, filling unset
// options from the environment.
func New(name string, opts Options, tools AudioTools, logger *zap.Logger) (Synthesizer, error) {
	name = strings.ToLower(name)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown voice provider %q (supported: %s)", name, strings.Join(Names(), ", "))
	}

	switch name {
	case ElevenLabs:
		if opts.APIKey == "" {
			opts.APIKey = config.GetEnvOrDefault("ELEVENLABS_API_KEY", "")
		}
		if opts.Voice == "" {
			opts.Voice = config.GetEnvOrDefault("ELEVENLABS_VOICE_ID", "")
		}
	case Deepgram:
		if opts.APIKey == "" {
			opts.APIKey = config.GetEnvOrDefault("DEEPGRAM_API_KEY", "")
		}
	case Command:
		if opts.Command == "" {
			opts.Command = config.GetEnvOrDefault("TTS_COMMAND", "")
		}
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 60 * time.Second}
	}

	engine, err := f(opts)
	if err != nil {
		return nil, err
	}
	return NewLineSynthesizer(engine, tools, logger), nil
}

// LineSynthesizer speaks every line separately so that the duration of each
// utterance is known, then concatenates them.
type LineSynthesizer struct {
	engine Engine
	tools  AudioTools
	logger *zap.Logger
	// Gap is the silence spoken for lines without voice text
	Gap float64
}

func NewLineSynthesizer(engine Engine, tools AudioTools, logger *zap.Logger) *LineSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineSynthesizer{engine: engine, tools: tools, logger: logger, Gap: config.CaptionMinDuration}
}

func (s *LineSynthesizer) Name() string { return s.engine.Name() }

// Synthesize writes narration.<ext> into workDir. Any failed line fails
// the whole run; there is no silent fallback.
func (s *LineSynthesizer) Synthesize(ctx context.Context, lines []string, workDir string) (*types.Narration, error) {
	if len(lines) == 0 {
		return nil, types.Errorf(types.ErrTTSProvider, "no voice lines to synthesize")
	}
	dir := filepath.Join(workDir, "voice")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create voice dir: %w", err)
	}

	parts := make([]string, len(lines))
	utterances := make([]float64, len(lines))
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := filepath.Join(dir, fmt.Sprintf("line_%03d%s", i, s.engine.Ext()))

		if strings.TrimSpace(line) == "" {
			if err := s.tools.Silence(ctx, out, s.Gap); err != nil {
				return nil, types.Errorf(types.ErrTTSProvider, "silence for line %d: %w", i+1, err)
			}
		} else if err := s.engine.Speak(ctx, line, out); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, types.Errorf(types.ErrTTSProvider, "%s line %d: %w", s.engine.Name(), i+1, err)
		}

		d, err := s.tools.Duration(ctx, out)
		if err != nil {
			return nil, types.Errorf(types.ErrTTSProvider, "measure line %d: %w", i+1, err)
		}
		if d <= 0 {
			return nil, types.Errorf(types.ErrTTSProvider, "%s produced empty audio for line %d", s.engine.Name(), i+1)
		}
		parts[i] = out
		utterances[i] = d
		s.logger.Debug("synthesized line", zap.Int("line", i+1), zap.Float64("seconds", d))
	}

	narrationPath := filepath.Join(workDir, "narration"+s.engine.Ext())
	if err := s.tools.Concat(ctx, parts, narrationPath); err != nil {
		return nil, types.Errorf(types.ErrTTSProvider, "join narration: %w", err)
	}
	total, err := s.tools.Duration(ctx, narrationPath)
	if err != nil {
		return nil, types.Errorf(types.ErrTTSProvider, "measure narration: %w", err)
	}

	s.logger.Info("narration ready",
		zap.String("provider", s.engine.Name()),
		zap.Int("lines", len(lines)),
		zap.Float64("duration", total))
	return &types.Narration{Path: narrationPath, Duration: total, Utterances: utterances}, nil
}
