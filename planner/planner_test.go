package planner

import (
	"math"
	"math/rand"
	"testing"

	"reelsmith/types"
)

const frame = 1.0 / 30

func video(path string, d float64) types.Asset {
	return types.Asset{Path: path, Kind: types.KindVideo, Duration: d, Role: types.RoleNormal}
}

func image(path string) types.Asset {
	return types.Asset{Path: path, Kind: types.KindImage, Role: types.RoleNormal}
}

func sum(plans []types.ClipPlan) float64 {
	var total float64
	for _, p := range plans {
		total += p.AllocatedDuration
	}
	return total
}

func TestFixedLengthTwoClipScenario(t *testing.T) {
	clips := []types.Asset{video("A.mp4", 10), video("B.mp4", 8)}

	for seed := int64(0); seed < 20; seed++ {
		plans, err := Plan(clips, 12, Options{}, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("seed %d: Plan error: %v", seed, err)
		}
		if len(plans) != 2 {
			t.Fatalf("seed %d: got %d plans; want 2", seed, len(plans))
		}
		maxIn := []float64{4, 2}
		for i, p := range plans {
			if p.AllocatedDuration != 6 {
				t.Errorf("seed %d clip %d: allocated %.3f; want 6", seed, i, p.AllocatedDuration)
			}
			if p.InSeconds < 0 || p.InSeconds > maxIn[i] {
				t.Errorf("seed %d clip %d: in %.3f outside [0,%.0f]", seed, i, p.InSeconds, maxIn[i])
			}
			if math.Abs(p.OutSeconds-p.InSeconds-6) > 1e-9 {
				t.Errorf("seed %d clip %d: window %.3f..%.3f is not 6s", seed, i, p.InSeconds, p.OutSeconds)
			}
			if p.Position != i {
				t.Errorf("seed %d clip %d: position %d", seed, i, p.Position)
			}
		}
	}
}

func TestFixedLengthSeedIsDeterministic(t *testing.T) {
	clips := []types.Asset{video("A.mp4", 30), video("B.mp4", 30), video("C.mp4", 30)}
	a, _ := Plan(clips, 9, Options{}, rand.New(rand.NewSource(42)))
	b, _ := Plan(clips, 9, Options{}, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].InSeconds != b[i].InSeconds {
			t.Fatalf("clip %d: offsets differ for same seed (%.3f vs %.3f)", i, a[i].InSeconds, b[i].InSeconds)
		}
	}
}

func TestFixedLengthSumMatchesTarget(t *testing.T) {
	cases := []struct {
		name   string
		clips  []types.Asset
		target float64
	}{
		{"three into ten", []types.Asset{video("a", 20), video("b", 20), video("c", 20)}, 10},
		{"seven into odd", []types.Asset{video("a", 9), video("b", 9), video("c", 9), video("d", 9), video("e", 9), video("f", 9), image("g.png")}, 17.333},
		{"single image", []types.Asset{image("a.png")}, 4.2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			plans, err := Plan(c.clips, c.target, Options{}, rand.New(rand.NewSource(3)))
			if err != nil {
				t.Fatalf("Plan error: %v", err)
			}
			if got := sum(plans); math.Abs(got-c.target) > frame {
				t.Fatalf("sum = %.4f; want %.4f within one frame", got, c.target)
			}
			for _, p := range plans {
				if !p.Asset.IsVideo() {
					continue
				}
				if p.InSeconds < 0 || p.OutSeconds > p.Asset.Duration+1e-9 || p.OutSeconds < p.InSeconds {
					t.Fatalf("bad window %.3f..%.3f for %.3fs source", p.InSeconds, p.OutSeconds, p.Asset.Duration)
				}
			}
		})
	}
}

func TestFixedLengthShortClipHoldsLastFrame(t *testing.T) {
	clips := []types.Asset{video("short.mp4", 2), video("long.mp4", 20)}

	plans, err := Plan(clips, 10, Options{}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	short := plans[0]
	if short.InSeconds != 0 || short.OutSeconds != 2 {
		t.Fatalf("short clip window = %.3f..%.3f; want full 0..2", short.InSeconds, short.OutSeconds)
	}
	if short.HoldSeconds != 3 {
		t.Fatalf("short clip hold = %.3f; want 3", short.HoldSeconds)
	}
	if short.AllocatedDuration != 5 {
		t.Fatalf("short clip allocated = %.3f; want 5", short.AllocatedDuration)
	}
	if plans[1].HoldSeconds != 0 {
		t.Fatalf("long clip should not hold, got %.3f", plans[1].HoldSeconds)
	}
}

func TestFixedLengthKeepsStartAndClosingWhole(t *testing.T) {
	start := video("start.mp4", 2)
	start.Role = types.RoleStart
	closing := image("closing.png")
	closing.Role = types.RoleClosing
	clips := []types.Asset{start, video("a.mp4", 10), video("b.mp4", 10), closing}

	plans, err := Plan(clips, 15, Options{ImageDuration: 3}, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if plans[0].AllocatedDuration != 2 || plans[0].Trimmed() {
		t.Fatalf("start plan = %+v; want untrimmed 2s", plans[0])
	}
	if plans[3].AllocatedDuration != 3 {
		t.Fatalf("closing allocated %.3f; want 3", plans[3].AllocatedDuration)
	}
	if plans[1].AllocatedDuration != 5 || plans[2].AllocatedDuration != 5 {
		t.Fatalf("body allocations = %.3f, %.3f; want 5, 5", plans[1].AllocatedDuration, plans[2].AllocatedDuration)
	}
	if math.Abs(sum(plans)-15) > frame {
		t.Fatalf("sum = %.3f; want 15", sum(plans))
	}
}

func TestFixedLengthWithoutBodyHoldsLastClip(t *testing.T) {
	start := video("start.mp4", 3)
	start.Role = types.RoleStart
	closing := video("closing.mp4", 3)
	closing.Role = types.RoleClosing

	tests := []struct {
		name     string
		clips    []types.Asset
		wantHold float64
	}{
		{"start and closing", []types.Asset{start, closing}, 6},
		{"start only", []types.Asset{start}, 9},
		{"closing only", []types.Asset{closing}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := Plan(tt.clips, 12, Options{}, rand.New(rand.NewSource(1)))
			if err != nil {
				t.Fatalf("Plan error: %v", err)
			}
			if math.Abs(sum(plans)-12) > frame {
				t.Fatalf("sum = %.3f; want 12", sum(plans))
			}
			last := plans[len(plans)-1]
			if last.HoldSeconds != tt.wantHold || last.InSeconds != 0 || last.OutSeconds != 3 {
				t.Fatalf("last plan = %+v; want full clip holding %.3fs", last, tt.wantHold)
			}
		})
	}
}

func TestFixedLengthWithoutBodyRejectsShortTarget(t *testing.T) {
	start := video("start.mp4", 3)
	start.Role = types.RoleStart
	closing := video("closing.mp4", 3)
	closing.Role = types.RoleClosing

	_, err := Plan([]types.Asset{start, closing}, 5, Options{}, rand.New(rand.NewSource(1)))
	if types.KindOf(err) != types.ErrInvalidDuration {
		t.Fatalf("KindOf(err) = %q; want %q", types.KindOf(err), types.ErrInvalidDuration)
	}
}

func TestKeepLengthScenario(t *testing.T) {
	clips := []types.Asset{video("a", 5), video("b", 5), video("c", 5), video("d", 5)}

	plans, err := Plan(clips, 12, Options{KeepClipLength: true}, nil)
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("got %d plans; want 3", len(plans))
	}
	if got := sum(plans); got != 15 {
		t.Fatalf("realized %.3f; want 15", got)
	}
	for _, p := range plans {
		if p.Trimmed() {
			t.Fatalf("keep-length plan trimmed: %+v", p)
		}
	}
}

func TestKeepLengthAtLeastTarget(t *testing.T) {
	closing := video("closing.mp4", 4)
	closing.Role = types.RoleClosing

	cases := []struct {
		name   string
		clips  []types.Asset
		target float64
	}{
		{"exact", []types.Asset{video("a", 4), video("b", 4)}, 8},
		{"images", []types.Asset{image("a.png"), image("b.png")}, 7},
		{"cycles after revision", []types.Asset{video("a", 3), video("b", 3)}, 14},
		{"closing appended", []types.Asset{video("a", 3), closing}, 10},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			plans, err := Plan(c.clips, c.target, Options{KeepClipLength: true, ImageDuration: 5}, nil)
			if err != nil {
				t.Fatalf("Plan error: %v", err)
			}
			if got := sum(plans); got < c.target {
				t.Fatalf("realized %.3f < target %.3f", got, c.target)
			}
			last := plans[len(plans)-1]
			if c.clips[len(c.clips)-1].Role == types.RoleClosing && last.Asset.Role != types.RoleClosing {
				t.Fatalf("closing clip not last: %+v", last)
			}
		})
	}
}

func TestPlanInvalidDuration(t *testing.T) {
	start := video("start.mp4", 8)
	start.Role = types.RoleStart

	cases := []struct {
		name   string
		clips  []types.Asset
		target float64
	}{
		{"zero target", []types.Asset{video("a", 5)}, 0},
		{"negative target", []types.Asset{video("a", 5)}, -3},
		{"no clips", nil, 10},
		{"start eats target", []types.Asset{start, video("a", 5)}, 6},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Plan(c.clips, c.target, Options{}, rand.New(rand.NewSource(1)))
			if types.KindOf(err) != types.ErrInvalidDuration {
				t.Fatalf("KindOf(err) = %q; want %q", types.KindOf(err), types.ErrInvalidDuration)
			}
		})
	}
}
