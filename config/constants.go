package config

import "time"

// Video Output Constants
const (
	// VideoWidth is the output video width (9:16 aspect ratio)
	VideoWidth = 1080

	// VideoHeight is the output video height (9:16 aspect ratio)
	VideoHeight = 1920

	// VideoFPS is the output frame rate
	VideoFPS = 30

	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// AudioBitrate is the audio quality bitrate
	AudioBitrate = "192k"

	// VideoPreset is the ffmpeg encoding speed preset
	VideoPreset = "fast"

	// VideoCRF is the constant rate factor handed to libx264
	VideoCRF = 23
)

// Timing Constants
const (
	// DefaultImageDuration is the intrinsic length given to still images
	DefaultImageDuration = 5.0

	// TransitionDuration is the crossfade length between consecutive clips
	TransitionDuration = 0.5

	// CaptionMinDuration is the minimum time any caption stays on screen
	CaptionMinDuration = 0.8

	// DefaultRenderTimeout bounds a single ffmpeg render
	DefaultRenderTimeout = 10 * time.Minute

	// ProbeTimeout bounds a single ffprobe call
	ProbeTimeout = 30 * time.Second

	// ProbeWorkers limits concurrent ffprobe calls
	ProbeWorkers = 4
)

// Title and Subtitle Constants
const (
	// TitleFontSize is the base font size of the first title line
	TitleFontSize = 96

	// TitleFollowRatio scales every title line after the first
	TitleFollowRatio = 0.9

	// TitlePosition is the default top edge of the title group, percent of frame height
	TitlePosition = 15.0

	// TitleFont is the default overlay font
	TitleFont = "Impact"

	// SubtitleFontSize is the ASS font size for captions
	SubtitleFontSize = 64

	// SubtitlePosition is the default caption baseline, percent of frame height
	SubtitlePosition = 70.0

	// SubtitleFont is the default caption font
	SubtitleFont = "Consolas"

	// MaxDisplayRunes is the longest caption shown on one subtitle line
	MaxDisplayRunes = 42

	// MaxTitleLength is the maximum character length for published video titles
	MaxTitleLength = 100
)

// Background Music Constants
const (
	BgmVolume         = 0.12
	BgmFadeInSeconds  = 1.0
	BgmFadeOutSeconds = 2.0
)

// Directory Constants (relative to a project folder)
const (
	MediaDir    = "media"
	BgmDir      = "bgm"
	PromptDir   = "prompt"
	SubtitleDir = "subtitle"
	OutputDir   = "output"
	LogsDir     = "logs"
	WorkDir     = ".work"

	PromptFile            = "prompt.md"
	GeneratedCaptionsFile = "generated_captions.txt"
	OutputFile            = "output.mp4"
	OutputSubtitleFile    = "output.srt"
	ProjectConfigFile     = "config.yaml"
	LogFile               = "reelsmith.log"
)

// Serve Mode Constants
const (
	// DefaultAPIPort is the default port for the HTTP API server
	DefaultAPIPort = "8080"

	// MaxStatusLogs is the size of the status log ring buffer
	MaxStatusLogs = 50

	// LockTTL bounds how long a crashed run can hold a project lock
	LockTTL = 30 * time.Minute

	// SeenFeedTTL is how long a used feed item is remembered after the last add
	SeenFeedTTL = 7 * 24 * time.Hour
)

// YouTube Constants
const (
	// YouTubeCategoryID for People & Blogs
	YouTubeCategoryID = "22"

	// YouTubePrivacyStatus sets video visibility
	YouTubePrivacyStatus = "private"
)
