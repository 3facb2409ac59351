package types

// Clip ordering modes
const (
	OrderAlphnum = "alphnum"
	OrderRandom  = "random"
)

// RenderRequest carries every per-run parameter of the composition driver.
// It is the payload of POST /api/render and of the render-requests topic.
type RenderRequest struct {
	Project          string   `json:"project"`
	RunID            string   `json:"run_id,omitempty"`
	Order            string   `json:"order,omitempty"`
	KeepClipLength   bool     `json:"keep_clip_length,omitempty"`
	Length           float64  `json:"length"`
	ClipCount        *int     `json:"clip_count,omitempty"`
	Title            string   `json:"title,omitempty"`
	TitleDuration    float64  `json:"title_duration,omitempty"`
	TitleFont        string   `json:"title_font,omitempty"`
	TitlePosition    *float64 `json:"title_position,omitempty"`
	SubtitleFont     string   `json:"subtitle_font,omitempty"`
	SubtitlePosition *float64 `json:"subtitle_position,omitempty"`
	MuteClips        *bool    `json:"mute_clips,omitempty"`
	GenerateCaptions bool     `json:"generate_captions,omitempty"`
	GenerateVoice    bool     `json:"generate_voice,omitempty"`
	CaptionProvider  string   `json:"caption_provider,omitempty"`
	VoiceProvider    string   `json:"voice_provider,omitempty"`
	CaptionsFile     string   `json:"captions_file,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	RenderTimeout    string   `json:"render_timeout,omitempty"`
	WriteSRT         bool     `json:"write_srt,omitempty"`
	Publish          bool     `json:"publish,omitempty"`
}

// Muted resolves the body-clip mute policy (muted unless explicitly disabled)
func (r RenderRequest) Muted() bool {
	if r.MuteClips == nil {
		return true
	}
	return *r.MuteClips
}
