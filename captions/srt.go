package captions

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"reelsmith/types"
)

// WriteSRT writes timed entries as SubRip
func WriteSRT(entries []types.CaptionEntry, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for i, e := range entries {
		fmt.Fprintf(w, "%d\n", i+1)
		fmt.Fprintf(w, "%s --> %s\n",
			FormatTimestamp(e.StartSeconds),
			FormatTimestamp(e.EndSeconds))
		fmt.Fprintf(w, "%s\n\n", e.DisplayText)
	}
	return w.Flush()
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm
func FormatTimestamp(seconds float64) string {
	total := int64(math.Round(math.Max(seconds, 0) * 1000))
	hours := total / 3_600_000
	minutes := total / 60_000 % 60
	secs := total / 1000 % 60
	millis := total % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
