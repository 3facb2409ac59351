// Package selector orders and truncates the candidate clip list.
package selector

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"reelsmith/types"

	"github.com/maruel/natural"
)

// Options controls ordering and truncation
type Options struct {
	Order string
	// Cap limits the number of body clips. nil means no limit; a pointer to
	// zero explicitly asks for start/closing only.
	Cap *int
}

// Partition splits assets into body clips and the designated start/closing
// assets. When several assets carry the same designation the first one in
// natural order wins.
func Partition(assets []types.Asset) (body []types.Asset, start, closing *types.Asset) {
	sorted := append([]types.Asset(nil), assets...)
	sortNatural(sorted)

	for i := range sorted {
		a := sorted[i]
		switch a.Role {
		case types.RoleStart:
			if start == nil {
				start = &a
			}
		case types.RoleClosing:
			if closing == nil {
				closing = &a
			}
		default:
			body = append(body, a)
		}
	}
	return body, start, closing
}

// Select orders the body clips, applies the cap and wraps the result with
// the start and closing assets. rng is only consulted in random mode.
func Select(assets []types.Asset, opts Options, rng *rand.Rand) ([]types.Asset, error) {
	body, start, closing := Partition(assets)

	switch opts.Order {
	case types.OrderAlphnum, "":
		// Partition already returns natural order
	case types.OrderRandom:
		if rng == nil {
			return nil, fmt.Errorf("random order requires a source of randomness")
		}
		rng.Shuffle(len(body), func(i, j int) { body[i], body[j] = body[j], body[i] })
	default:
		return nil, types.Errorf(types.ErrConfig, "unknown media pick order %q", opts.Order)
	}

	explicitZero := false
	if opts.Cap != nil {
		if *opts.Cap < 0 {
			return nil, types.Errorf(types.ErrInvalidDuration, "clip count %d is negative", *opts.Cap)
		}
		explicitZero = *opts.Cap == 0
		if *opts.Cap < len(body) {
			body = body[:*opts.Cap]
		}
	}

	if len(body) == 0 && !explicitZero {
		return nil, types.Errorf(types.ErrNoMediaFound, "no usable clips among %d candidate(s)", len(assets))
	}

	out := make([]types.Asset, 0, len(body)+2)
	if start != nil {
		out = append(out, *start)
	}
	out = append(out, body...)
	if closing != nil {
		out = append(out, *closing)
	}
	if len(out) == 0 {
		return nil, types.Errorf(types.ErrNoMediaFound, "clip count 0 requested and no start/closing clip present")
	}
	return out, nil
}

func sortNatural(assets []types.Asset) {
	sort.SliceStable(assets, func(i, j int) bool {
		return natural.Less(filepath.Base(assets[i].Path), filepath.Base(assets[j].Path))
	})
}
