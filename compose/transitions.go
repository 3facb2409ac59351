package compose

import (
	"math"
	"math/rand"

	"reelsmith/config"
	"reelsmith/types"
)

// Transitions is the catalog of xfade styles a cut may use
var Transitions = []string{
	"fade",
	"wipeleft",
	"wiperight",
	"slideup",
	"slidedown",
	"circleopen",
	"dissolve",
	"smoothleft",
}

// AssignTransitions draws a style for every clip after the first. The
// duration is shortened for short clips so a transition never covers more
// than half of either neighbour.
func AssignTransitions(plans []types.ClipPlan, rng *rand.Rand) {
	for i := range plans {
		if i == 0 {
			plans[i].Transition = nil
			continue
		}
		d := math.Min(config.TransitionDuration,
			math.Min(plans[i-1].AllocatedDuration, plans[i].AllocatedDuration)/2)
		d = math.Floor(d*1000) / 1000
		plans[i].Transition = &types.Transition{
			Style:    Transitions[rng.Intn(len(Transitions))],
			Duration: d,
		}
	}
}

// ApplyMute mutes body clips when muted is set. Start and closing clips
// always keep their audio.
func ApplyMute(plans []types.ClipPlan, muted bool) {
	for i := range plans {
		plans[i].Muted = muted && plans[i].Asset.Role == types.RoleNormal
	}
}
