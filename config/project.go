package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"reelsmith/types"

	"gopkg.in/yaml.v3"
)

// ProjectFile mirrors the optional config.yaml at the root of a project.
// Every field is optional; unset fields fall back to the package constants.
type ProjectFile struct {
	Video    VideoFile    `yaml:"video"`
	Title    TextFile     `yaml:"title"`
	Subtitle TextFile     `yaml:"subtitle"`
	Bgm      BgmFile      `yaml:"bgm"`
	Render   RenderFile   `yaml:"render"`
	Captions CaptionsFile `yaml:"captions"`
	Voice    VoiceFile    `yaml:"voice"`
}

type VideoFile struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	FPS           int     `yaml:"fps"`
	Codec         string  `yaml:"codec"`
	Preset        string  `yaml:"preset"`
	CRF           *int    `yaml:"crf,omitempty"`
	ImageDuration float64 `yaml:"image_duration_s"`
}

type TextFile struct {
	Font     string   `yaml:"font"`
	FontSize int      `yaml:"font_size"`
	Position *float64 `yaml:"position,omitempty"`
	Duration float64  `yaml:"duration_s"`
}

type BgmFile struct {
	Volume  *float64 `yaml:"volume,omitempty"`
	FadeIn  *float64 `yaml:"fade_in_s,omitempty"`
	FadeOut *float64 `yaml:"fade_out_s,omitempty"`
}

type RenderFile struct {
	Timeout string `yaml:"timeout"`
}

type CaptionsFile struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Feed     string `yaml:"feed"`
}

type VoiceFile struct {
	Provider string `yaml:"provider"`
	Voice    string `yaml:"voice"`
}

// Settings is the resolved style and render configuration of one run
type Settings struct {
	Width         int
	Height        int
	FPS           int
	Codec         string
	Preset        string
	CRF           int
	ImageDuration float64

	TitleFont     string
	TitleFontSize int
	TitlePosition float64
	TitleDuration float64

	SubtitleFont     string
	SubtitleFontSize int
	SubtitlePosition float64

	BgmVolume  float64
	BgmFadeIn  float64
	BgmFadeOut float64

	RenderTimeout time.Duration

	CaptionProvider string
	CaptionModel    string
	CaptionFeed     string

	VoiceProvider string
	Voice         string
}

// LoadProjectFile reads a project config.yaml. A missing file is not an error.
func LoadProjectFile(path string) (*ProjectFile, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ProjectFile{}, nil
		}
		return nil, fmt.Errorf("read project config: %w", err)
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(contents, &pf); err != nil {
		return nil, fmt.Errorf("parse project config %s: %w", path, err)
	}
	return &pf, nil
}

// Resolve applies defaults to every unset field and validates ranges
func (pf *ProjectFile) Resolve() (Settings, error) {
	s := Settings{
		Width:         orInt(pf.Video.Width, VideoWidth),
		Height:        orInt(pf.Video.Height, VideoHeight),
		FPS:           orInt(pf.Video.FPS, VideoFPS),
		Codec:         orString(pf.Video.Codec, VideoCodec),
		Preset:        orString(pf.Video.Preset, VideoPreset),
		CRF:           VideoCRF,
		ImageDuration: orFloat(pf.Video.ImageDuration, DefaultImageDuration),

		TitleFont:     orString(pf.Title.Font, TitleFont),
		TitleFontSize: orInt(pf.Title.FontSize, TitleFontSize),
		TitlePosition: TitlePosition,
		TitleDuration: pf.Title.Duration,

		SubtitleFont:     orString(pf.Subtitle.Font, SubtitleFont),
		SubtitleFontSize: orInt(pf.Subtitle.FontSize, SubtitleFontSize),
		SubtitlePosition: SubtitlePosition,

		BgmVolume:  BgmVolume,
		BgmFadeIn:  BgmFadeInSeconds,
		BgmFadeOut: BgmFadeOutSeconds,

		RenderTimeout: DefaultRenderTimeout,

		CaptionProvider: pf.Captions.Provider,
		CaptionModel:    pf.Captions.Model,
		CaptionFeed:     pf.Captions.Feed,

		VoiceProvider: pf.Voice.Provider,
		Voice:         pf.Voice.Voice,
	}

	if pf.Video.CRF != nil {
		s.CRF = *pf.Video.CRF
	}
	if pf.Title.Position != nil {
		s.TitlePosition = *pf.Title.Position
	}
	if pf.Subtitle.Position != nil {
		s.SubtitlePosition = *pf.Subtitle.Position
	}
	if pf.Bgm.Volume != nil {
		s.BgmVolume = *pf.Bgm.Volume
	}
	if pf.Bgm.FadeIn != nil {
		s.BgmFadeIn = *pf.Bgm.FadeIn
	}
	if pf.Bgm.FadeOut != nil {
		s.BgmFadeOut = *pf.Bgm.FadeOut
	}
	if pf.Render.Timeout != "" {
		d, err := time.ParseDuration(pf.Render.Timeout)
		if err != nil {
			return s, fmt.Errorf("render.timeout: %w", err)
		}
		s.RenderTimeout = d
	}

	return s, s.Validate()
}

// WithRequest applies per-run overrides on top of the project settings
func (s Settings) WithRequest(req types.RenderRequest) (Settings, error) {
	if req.TitleFont != "" {
		s.TitleFont = req.TitleFont
	}
	if req.TitlePosition != nil {
		s.TitlePosition = *req.TitlePosition
	}
	if req.TitleDuration > 0 {
		s.TitleDuration = req.TitleDuration
	}
	if req.SubtitleFont != "" {
		s.SubtitleFont = req.SubtitleFont
	}
	if req.SubtitlePosition != nil {
		s.SubtitlePosition = *req.SubtitlePosition
	}
	if req.CaptionProvider != "" {
		s.CaptionProvider = req.CaptionProvider
	}
	if req.VoiceProvider != "" {
		s.VoiceProvider = req.VoiceProvider
	}
	if req.RenderTimeout != "" {
		d, err := time.ParseDuration(req.RenderTimeout)
		if err != nil {
			return s, fmt.Errorf("render timeout: %w", err)
		}
		s.RenderTimeout = d
	}
	return s, s.Validate()
}

// Validate checks value ranges
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 || s.FPS <= 0 {
		return fmt.Errorf("video size and fps must be positive (%dx%d@%d)", s.Width, s.Height, s.FPS)
	}
	if s.TitlePosition < 0 || s.TitlePosition > 100 {
		return fmt.Errorf("title position %.1f outside 0..100", s.TitlePosition)
	}
	if s.SubtitlePosition < 0 || s.SubtitlePosition > 100 {
		return fmt.Errorf("subtitle position %.1f outside 0..100", s.SubtitlePosition)
	}
	if s.BgmVolume < 0 || s.BgmVolume > 1 {
		return fmt.Errorf("bgm volume %.2f outside 0..1", s.BgmVolume)
	}
	if s.ImageDuration <= 0 {
		return fmt.Errorf("image duration must be positive")
	}
	if s.RenderTimeout <= 0 {
		return fmt.Errorf("render timeout must be positive")
	}
	return nil
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
