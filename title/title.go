// Package title lays out the comma-delimited title overlay.
package title

import (
	"math"
	"strings"
	"unicode/utf8"

	"reelsmith/config"
	"reelsmith/types"
)

const (
	// charWidthRatio approximates the advance width of one glyph relative to
	// the font size for the bold display fonts used for titles.
	charWidthRatio = 0.6
	lineSpacing    = 1.2
	safeWidth      = 0.9
)

type Options struct {
	Position     float64 // top edge, percent of frame height
	Font         string
	FrameWidth   int
	FrameHeight  int
	BaseFontSize int
	// FirstWindow is the allocated duration of the first clip
	FirstWindow float64
	// DisplayDuration caps how long the title is shown; zero means the whole first window
	DisplayDuration float64
}

// Split breaks raw into its segments. Segments are not trimmed so that
// joining them with commas reproduces raw.
func Split(raw string) []string {
	return strings.Split(raw, ",")
}

// Join is the inverse of Split
func Join(blocks []types.TitleBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, ",")
}

// Layout builds the title group for raw. An empty title yields nil.
func Layout(raw string, opts Options) *types.TitleGroup {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if opts.FrameWidth <= 0 {
		opts.FrameWidth = config.VideoWidth
	}
	if opts.FrameHeight <= 0 {
		opts.FrameHeight = config.VideoHeight
	}
	if opts.BaseFontSize <= 0 {
		opts.BaseFontSize = config.TitleFontSize
	}

	segments := Split(raw)
	blocks := make([]types.TitleBlock, len(segments))
	widest := 0.0
	for i, s := range segments {
		ratio := 1.0
		if i > 0 {
			ratio = config.TitleFollowRatio
		}
		blocks[i] = types.TitleBlock{Text: s, FontSizeRatio: ratio, Line: i}
		if w := EstimateWidth(s, float64(opts.BaseFontSize)*ratio); w > widest {
			widest = w
		}
	}

	scale := 1.0
	if limit := safeWidth * float64(opts.FrameWidth); widest > limit {
		scale = limit / widest
	}

	y := opts.Position / 100 * float64(opts.FrameHeight)
	for i := range blocks {
		size := float64(opts.BaseFontSize) * blocks[i].FontSizeRatio * scale
		blocks[i].FontSize = int(math.Max(1, math.Round(size)))
		blocks[i].Y = int(math.Round(y))
		y += size * lineSpacing
	}

	end := opts.FirstWindow
	if opts.DisplayDuration > 0 && opts.DisplayDuration < end {
		end = opts.DisplayDuration
	}

	return &types.TitleGroup{
		Blocks: blocks,
		Font:   opts.Font,
		Scale:  scale,
		Start:  0,
		End:    end,
	}
}

// EstimateWidth approximates the rendered pixel width of text at fontSize
func EstimateWidth(text string, fontSize float64) float64 {
	return float64(utf8.RuneCountInString(text)) * fontSize * charWidthRatio
}
