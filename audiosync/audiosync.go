// Package audiosync reconciles the narration track with the planned timeline
// and assigns caption windows.
package audiosync

import (
	"fmt"
	"math"
	"unicode"

	"reelsmith/config"
	"reelsmith/types"
)

// Options tunes caption timing
type Options struct {
	// MinFloor is the shortest window any caption gets. It shrinks to D/n
	// when there is not enough narration for every entry to reach it.
	MinFloor float64
}

// ReplanFunc re-runs clip planning against a revised target
type ReplanFunc func(target float64) error

// Synchronize extends the timeline when the narration outlasts it and then
// times the caption track. replan is invoked at most once, after the target
// was revised.
func Synchronize(tl *types.Timeline, replan ReplanFunc, opts Options) error {
	if tl == nil {
		return fmt.Errorf("nil timeline")
	}

	if n := tl.Narration; n != nil && n.Duration > tl.TargetDuration {
		if err := tl.ReviseTarget(n.Duration); err != nil {
			return types.NewError(types.ErrInvalidDuration, err)
		}
		if replan == nil {
			return fmt.Errorf("target revised to %.3fs but no replanner was supplied", n.Duration)
		}
		if err := replan(tl.TargetDuration); err != nil {
			return err
		}
	}

	entries, err := TimeCaptions(tl.Captions.Entries, tl.Narration, tl.TargetDuration, opts)
	if err != nil {
		return err
	}
	tl.Captions.Entries = entries
	return nil
}

// TimeCaptions assigns start/end times to entries. With narration the
// entries span the narration duration, otherwise they span fallback.
func TimeCaptions(entries []types.CaptionEntry, narration *types.Narration, fallback float64, opts Options) ([]types.CaptionEntry, error) {
	if len(entries) == 0 {
		return entries, nil
	}
	if opts.MinFloor <= 0 {
		opts.MinFloor = config.CaptionMinDuration
	}

	span := fallback
	if narration != nil {
		span = narration.Duration
	}
	if span <= 0 || math.IsNaN(span) {
		return nil, types.Errorf(types.ErrInvalidDuration, "cannot time %d caption(s) over %.3fs", len(entries), span)
	}

	out := append([]types.CaptionEntry(nil), entries...)

	var durations []float64
	if narration != nil && usableUtterances(narration.Utterances, len(out)) {
		durations = fitUtterances(narration.Utterances, span, opts.MinFloor)
	} else {
		weights := make([]float64, len(out))
		for i, e := range out {
			weights[i] = SpeechWeight(e.VoiceText)
		}
		durations = waterFill(weights, span, opts.MinFloor)
	}

	var t float64
	for i := range out {
		out[i].StartSeconds = t
		t = math.Min(t+durations[i], span)
		out[i].EndSeconds = t
	}
	// slack lands on the last entry
	out[len(out)-1].EndSeconds = span
	return out, nil
}

func usableUtterances(u []float64, n int) bool {
	if len(u) != n {
		return false
	}
	for _, d := range u {
		if d <= 0 || math.IsNaN(d) {
			return false
		}
	}
	return true
}

// fitUtterances lifts utterances shorter than floor up to it. When that, or
// a synthesizer that overran, pushes the total past span the utterances are
// water-filled into span instead, using their own lengths as weights.
func fitUtterances(u []float64, span, floor float64) []float64 {
	if floor*float64(len(u)) > span {
		floor = span / float64(len(u))
	}
	out := make([]float64, len(u))
	var total float64
	for i, d := range u {
		out[i] = math.Max(d, floor)
		total += out[i]
	}
	if total <= span {
		return out
	}
	return waterFill(u, span, floor)
}

// SpeechWeight estimates how long text takes to say: the number of letters
// and digits, never less than one.
func SpeechWeight(text string) float64 {
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return float64(n)
}

// waterFill splits total across weights proportionally while guaranteeing
// every share reaches floor. Entries that would fall below the floor are
// pinned to it and the rest is redistributed among the others.
func waterFill(weights []float64, total, floor float64) []float64 {
	n := len(weights)
	if floor*float64(n) > total {
		floor = total / float64(n)
	}

	out := make([]float64, n)
	pinned := make([]bool, n)
	for {
		free := total
		var w float64
		for i := range weights {
			if pinned[i] {
				free -= floor
			} else {
				w += weights[i]
			}
		}

		changed := false
		for i := range weights {
			if pinned[i] {
				out[i] = floor
				continue
			}
			out[i] = free * weights[i] / w
			if out[i] < floor {
				pinned[i] = true
				changed = true
			}
		}
		if !changed {
			return out
		}
	}
}
