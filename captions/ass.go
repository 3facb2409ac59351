package captions

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"reelsmith/types"
)

// Style positions the burned-in captions
type Style struct {
	Font     string
	FontSize int
	// Position is the caption baseline, percent of frame height from the top
	Position float64
	Width    int
	Height   int
}

// WriteASS writes timed entries as an Advanced SubStation script for the
// ffmpeg ass filter.
func WriteASS(entries []types.CaptionEntry, style Style, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintln(w, "[Script Info]")
	fmt.Fprintln(w, "Title: reelsmith")
	fmt.Fprintln(w, "ScriptType: v4.00+")
	fmt.Fprintf(w, "PlayResX: %d\n", style.Width)
	fmt.Fprintf(w, "PlayResY: %d\n", style.Height)
	fmt.Fprintln(w, "WrapStyle: 2")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[V4+ Styles]")
	fmt.Fprintln(w, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")

	// Alignment 2 anchors the bottom edge, so MarginV is the distance from
	// the baseline to the bottom of the frame.
	fmt.Fprintf(w, "Style: Default,%s,%d,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,3,0,2,40,40,%d,1\n",
		style.Font, style.FontSize, MarginV(style.Position, style.Height))

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[Events]")
	fmt.Fprintln(w, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	for _, e := range entries {
		fmt.Fprintf(w, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			FormatASSTimestamp(e.StartSeconds),
			FormatASSTimestamp(e.EndSeconds),
			escapeASS(e.DisplayText))
	}
	return w.Flush()
}

// MarginV converts a top-relative percentage into a bottom margin in pixels
func MarginV(position float64, height int) int {
	return int(math.Round((100 - position) / 100 * float64(height)))
}

// FormatASSTimestamp renders seconds as h:mm:ss.cc
func FormatASSTimestamp(seconds float64) string {
	total := int64(math.Round(math.Max(seconds, 0) * 100))
	hours := total / 360_000
	minutes := total / 6000 % 60
	secs := total / 100 % 60
	centisecs := total % 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centisecs)
}

var assEscaper = strings.NewReplacer("{", "\\{", "}", "\\}", "\n", "\\N")

func escapeASS(s string) string {
	return assEscaper.Replace(s)
}
