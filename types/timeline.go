package types

import "fmt"

// AssetKind distinguishes moving clips from stills
type AssetKind string

const (
	KindVideo AssetKind = "video"
	KindImage AssetKind = "image"
)

// AssetRole marks the mandatory intro/outro clips
type AssetRole string

const (
	RoleNormal  AssetRole = "normal"
	RoleStart   AssetRole = "start"
	RoleClosing AssetRole = "closing"
)

// Asset is a candidate media item discovered under media/. Immutable for a run.
type Asset struct {
	Path     string    `json:"path"`
	Kind     AssetKind `json:"kind"`
	Duration float64   `json:"duration,omitempty"` // intrinsic seconds, video only
	HasAudio bool      `json:"has_audio,omitempty"`
	Role     AssetRole `json:"role"`
}

// IsVideo reports whether the asset is a video clip
func (a Asset) IsVideo() bool { return a.Kind == KindVideo }

// Transition is one style from the fixed transition catalog
type Transition struct {
	Style    string  `json:"style"`
	Duration float64 `json:"duration"`
}

// ClipPlan is the finalized timing/trim instruction for one asset
type ClipPlan struct {
	Asset             Asset       `json:"asset"`
	InSeconds         float64     `json:"in"`
	OutSeconds        float64     `json:"out"`
	AllocatedDuration float64     `json:"allocated"`
	Position          int         `json:"position"`
	Muted             bool        `json:"muted"`
	Transition        *Transition `json:"transition,omitempty"`
	// HoldSeconds is how long the last frame is frozen when the source is
	// shorter than its allocation.
	HoldSeconds float64 `json:"hold,omitempty"`
}

// Trimmed reports whether the plan uses a sub-window of a video source
func (p ClipPlan) Trimmed() bool {
	return p.Asset.IsVideo() && p.OutSeconds > p.InSeconds &&
		(p.InSeconds > 0 || p.OutSeconds < p.Asset.Duration)
}

// CaptionEntry is one subtitle unit with its spoken and displayed text
type CaptionEntry struct {
	VoiceText    string  `json:"voice_text"`
	DisplayText  string  `json:"display_text"`
	StartSeconds float64 `json:"start"`
	EndSeconds   float64 `json:"end"`
}

// CaptionTrack is the ordered caption sequence of a run
type CaptionTrack struct {
	Entries []CaptionEntry `json:"entries"`
	// Source records where the caption lines came from (file path or provider name)
	Source string `json:"source,omitempty"`
}

// VoiceLines returns the spoken form of every entry
func (c CaptionTrack) VoiceLines() []string {
	lines := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		lines[i] = e.VoiceText
	}
	return lines
}

// DisplayLines returns the on-screen form of every entry
func (c CaptionTrack) DisplayLines() []string {
	lines := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		lines[i] = e.DisplayText
	}
	return lines
}

// TitleBlock is one rendered line of the title overlay
type TitleBlock struct {
	Text          string  `json:"text"`
	FontSizeRatio float64 `json:"font_size_ratio"`
	Line          int     `json:"line"`
	FontSize      int     `json:"font_size"`
	Y             int     `json:"y"`
}

// TitleGroup is the laid out title: its blocks plus the window it is shown in
type TitleGroup struct {
	Blocks []TitleBlock `json:"blocks"`
	Font   string       `json:"font,omitempty"`
	Scale  float64      `json:"scale"`
	Start  float64      `json:"start"`
	End    float64      `json:"end"`
}

// BgmSpec is an optional background music track mixed over the whole timeline
type BgmSpec struct {
	Path           string  `json:"path"`
	FadeInSeconds  float64 `json:"fade_in"`
	FadeOutSeconds float64 `json:"fade_out"`
	Volume         float64 `json:"volume"`
}

// Narration is the synthesized voice track
type Narration struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
	// Utterances holds one duration per voice line when the synthesizer knows them
	Utterances []float64 `json:"utterances,omitempty"`
}

// Timeline is the complete plan for one rendered video
type Timeline struct {
	RequestedDuration float64      `json:"requested_duration"`
	TargetDuration    float64      `json:"target_duration"`
	Revised           bool         `json:"revised"`
	ClipPlans         []ClipPlan   `json:"clip_plans"`
	Captions          CaptionTrack `json:"captions"`
	Title             *TitleGroup  `json:"title,omitempty"`
	Bgm               *BgmSpec     `json:"bgm,omitempty"`
	Narration         *Narration   `json:"narration,omitempty"`
}

// NewTimeline fixes the initial target duration
func NewTimeline(target float64) *Timeline {
	return &Timeline{RequestedDuration: target, TargetDuration: target}
}

// ReviseTarget raises the target duration. It may succeed only once and
// only upward.
func (t *Timeline) ReviseTarget(d float64) error {
	if t.Revised {
		return fmt.Errorf("target duration already revised to %.3fs", t.TargetDuration)
	}
	if d <= t.TargetDuration {
		return fmt.Errorf("target duration may only grow: %.3fs -> %.3fs", t.TargetDuration, d)
	}
	t.TargetDuration = d
	t.Revised = true
	return nil
}

// PlannedDuration sums the allocated durations of all clip plans
func (t *Timeline) PlannedDuration() float64 {
	var total float64
	for _, p := range t.ClipPlans {
		total += p.AllocatedDuration
	}
	return total
}
