// Package planner turns a selected clip list and a target duration into
// per-clip allocations and trim windows.
package planner

import (
	"math"
	"math/rand"

	"reelsmith/config"
	"reelsmith/types"
)

// Options controls the duration policy
type Options struct {
	// KeepClipLength plays every clip in full and stops adding clips once the
	// target is reached. Otherwise the target is split evenly and clips are trimmed.
	KeepClipLength bool
	// ImageDuration is the intrinsic length given to stills
	ImageDuration float64
}

// Plan allocates durations for clips against target. rng drives the trim
// offsets of fixed-length mode and may be nil in keep-length mode.
func Plan(clips []types.Asset, target float64, opts Options, rng *rand.Rand) ([]types.ClipPlan, error) {
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return nil, types.Errorf(types.ErrInvalidDuration, "target duration must be positive, got %.3f", target)
	}
	if len(clips) == 0 {
		return nil, types.Errorf(types.ErrInvalidDuration, "no clips to plan")
	}
	if opts.ImageDuration <= 0 {
		opts.ImageDuration = config.DefaultImageDuration
	}
	for _, c := range clips {
		if c.IsVideo() && c.Duration <= 0 {
			return nil, types.Errorf(types.ErrInvalidDuration, "video %s has no usable duration", c.Path)
		}
	}

	if opts.KeepClipLength {
		return planKeepLength(clips, target, opts)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return planFixedLength(clips, target, opts, rng)
}

func intrinsic(a types.Asset, opts Options) float64 {
	if a.IsVideo() {
		return a.Duration
	}
	return opts.ImageDuration
}

// fullPlan uses the whole asset without trimming
func fullPlan(a types.Asset, opts Options) types.ClipPlan {
	p := types.ClipPlan{Asset: a, AllocatedDuration: intrinsic(a, opts)}
	if a.IsVideo() {
		p.OutSeconds = a.Duration
	}
	return p
}

func split(clips []types.Asset) (start *types.Asset, body []types.Asset, closing *types.Asset) {
	body = clips
	if len(body) > 0 && body[0].Role == types.RoleStart {
		start = &body[0]
		body = body[1:]
	}
	if len(body) > 0 && body[len(body)-1].Role == types.RoleClosing {
		closing = &body[len(body)-1]
		body = body[:len(body)-1]
	}
	return start, body, closing
}

func planKeepLength(clips []types.Asset, target float64, opts Options) ([]types.ClipPlan, error) {
	start, body, closing := split(clips)

	var plans []types.ClipPlan
	var acc float64
	if start != nil {
		plans = append(plans, fullPlan(*start, opts))
		acc += plans[0].AllocatedDuration
	}
	var tail float64
	if closing != nil {
		tail = intrinsic(*closing, opts)
	}

	// Body clips repeat from the top when the list runs out before the
	// target, which only happens after the target was revised upward.
	for i := 0; acc+tail < target; i++ {
		if len(body) == 0 {
			return nil, types.Errorf(types.ErrInvalidDuration,
				"%.3fs of clips cannot cover a %.3fs target", acc+tail, target)
		}
		p := fullPlan(body[i%len(body)], opts)
		plans = append(plans, p)
		acc += p.AllocatedDuration
	}

	if closing != nil {
		plans = append(plans, fullPlan(*closing, opts))
	}
	return number(plans), nil
}

func planFixedLength(clips []types.Asset, target float64, opts Options, rng *rand.Rand) ([]types.ClipPlan, error) {
	start, body, closing := split(clips)

	targetMs := toMs(target)
	reservedMs := int64(0)
	if start != nil {
		reservedMs += toMs(intrinsic(*start, opts))
	}
	if closing != nil {
		reservedMs += toMs(intrinsic(*closing, opts))
	}

	var plans []types.ClipPlan
	if start != nil {
		plans = append(plans, fullPlan(*start, opts))
	}

	if len(body) > 0 {
		remainingMs := targetMs - reservedMs
		if remainingMs < int64(len(body)) {
			return nil, types.Errorf(types.ErrInvalidDuration,
				"start and closing clips leave %.3fs of a %.3fs target for %d clip(s)",
				fromMs(remainingMs), target, len(body))
		}
		perMs := remainingMs / int64(len(body))
		for i, a := range body {
			allocMs := perMs
			if i == len(body)-1 {
				allocMs = remainingMs - perMs*int64(len(body)-1)
			}
			plans = append(plans, trimTo(a, fromMs(allocMs), rng))
		}
	}

	if closing != nil {
		plans = append(plans, fullPlan(*closing, opts))
	}

	// With no body clips the last start or closing clip holds its final
	// frame for whatever the target still needs.
	if len(body) == 0 {
		gapMs := targetMs - reservedMs
		if gapMs < 0 {
			return nil, types.Errorf(types.ErrInvalidDuration,
				"start and closing clips run %.3fs, longer than the %.3fs target", fromMs(reservedMs), target)
		}
		last := &plans[len(plans)-1]
		last.AllocatedDuration = fromMs(toMs(last.AllocatedDuration) + gapMs)
		if last.Asset.IsVideo() {
			last.HoldSeconds = fromMs(gapMs)
		}
	}
	return number(plans), nil
}

// trimTo fits a to alloc seconds. Longer videos get a random window; shorter
// ones play in full and hold their last frame for the gap.
func trimTo(a types.Asset, alloc float64, rng *rand.Rand) types.ClipPlan {
	p := types.ClipPlan{Asset: a, AllocatedDuration: alloc}
	if !a.IsVideo() {
		return p
	}

	slack := a.Duration - alloc
	if slack <= 0 {
		p.OutSeconds = a.Duration
		p.HoldSeconds = fromMs(toMs(-slack))
		return p
	}

	in := math.Floor(rng.Float64()*slack*1000) / 1000
	if in > slack {
		in = slack
	}
	p.InSeconds = in
	p.OutSeconds = in + alloc
	return p
}

func number(plans []types.ClipPlan) []types.ClipPlan {
	for i := range plans {
		plans[i].Position = i
	}
	return plans
}

func toMs(s float64) int64 { return int64(math.Round(s * 1000)) }

func fromMs(ms int64) float64 { return float64(ms) / 1000 }
