package compose

import (
	"reelsmith/captions"
	"reelsmith/config"
	"reelsmith/providers/captiongen"
	"reelsmith/providers/tts"
	"reelsmith/types"

	"go.uber.org/zap"
)

// Default provider names when neither the request nor config.yaml name one
const (
	DefaultCaptionProvider = captiongen.Cohere
	DefaultVoiceProvider   = tts.ElevenLabs
)

// ProviderSource builds the external collaborators a run needs
type ProviderSource interface {
	CaptionGenerator(s config.Settings) (captions.Generator, error)
	Synthesizer(s config.Settings) (tts.Synthesizer, error)
	// Enricher may return nil when s configures no feed
	Enricher(s config.Settings) captions.Enricher
}

// FeedEnricherFunc builds a prompt enricher for a feed preset or URL
type FeedEnricherFunc func(feed string) captions.Enricher

// RegistryProviders resolves collaborators from the provider registries
type RegistryProviders struct {
	Tools  tts.AudioTools
	Feeds  FeedEnricherFunc
	Logger *zap.Logger
}

func (r *RegistryProviders) CaptionGenerator(s config.Settings) (captions.Generator, error) {
	name := s.CaptionProvider
	if name == "" {
		name = DefaultCaptionProvider
	}
	p, err := captiongen.New(name, captiongen.Options{Model: s.CaptionModel})
	if err != nil {
		return nil, types.NewError(types.ErrCaptionProvider, err)
	}
	return p, nil
}

func (r *RegistryProviders) Synthesizer(s config.Settings) (tts.Synthesizer, error) {
	name := s.VoiceProvider
	if name == "" {
		name = DefaultVoiceProvider
	}
	syn, err := tts.New(name, tts.Options{Voice: s.Voice}, r.Tools, r.Logger)
	if err != nil {
		return nil, types.NewError(types.ErrTTSProvider, err)
	}
	return syn, nil
}

func (r *RegistryProviders) Enricher(s config.Settings) captions.Enricher {
	if s.CaptionFeed == "" || r.Feeds == nil {
		return nil
	}
	return r.Feeds(s.CaptionFeed)
}
