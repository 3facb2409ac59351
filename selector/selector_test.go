package selector

import (
	"math/rand"
	"path/filepath"
	"testing"

	"reelsmith/types"
)

func asset(name string, role types.AssetRole) types.Asset {
	return types.Asset{Path: filepath.Join("media", name), Kind: types.KindVideo, Duration: 5, Role: role}
}

func names(assets []types.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = filepath.Base(a.Path)
	}
	return out
}

func intPtr(n int) *int { return &n }

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectAlphnumIsNumericAware(t *testing.T) {
	assets := []types.Asset{
		asset("clip10.mp4", types.RoleNormal),
		asset("clip2.mp4", types.RoleNormal),
		asset("clip1.mp4", types.RoleNormal),
	}

	got, err := Select(assets, Options{Order: types.OrderAlphnum}, nil)
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	want := []string{"clip1.mp4", "clip2.mp4", "clip10.mp4"}
	if !equal(names(got), want) {
		t.Fatalf("Select = %v; want %v", names(got), want)
	}
}

func TestSelectStartAndClosingIgnoreCap(t *testing.T) {
	assets := []types.Asset{
		asset("closing.mp4", types.RoleClosing),
		asset("clip3.mp4", types.RoleNormal),
		asset("clip1.mp4", types.RoleNormal),
		asset("start.mp4", types.RoleStart),
		asset("clip2.mp4", types.RoleNormal),
	}

	cases := []struct {
		name string
		cap  *int
		want []string
	}{
		{"no cap", nil, []string{"start.mp4", "clip1.mp4", "clip2.mp4", "clip3.mp4", "closing.mp4"}},
		{"cap 2", intPtr(2), []string{"start.mp4", "clip1.mp4", "clip2.mp4", "closing.mp4"}},
		{"cap above count", intPtr(10), []string{"start.mp4", "clip1.mp4", "clip2.mp4", "clip3.mp4", "closing.mp4"}},
		{"explicit zero", intPtr(0), []string{"start.mp4", "closing.mp4"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Select(assets, Options{Order: types.OrderAlphnum, Cap: c.cap}, nil)
			if err != nil {
				t.Fatalf("Select error: %v", err)
			}
			if !equal(names(got), c.want) {
				t.Fatalf("Select = %v; want %v", names(got), c.want)
			}
		})
	}
}

func TestSelectRandomIsSeededShuffle(t *testing.T) {
	var assets []types.Asset
	for _, n := range []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4", "f.mp4"} {
		assets = append(assets, asset(n, types.RoleNormal))
	}
	assets = append(assets, asset("start.png", types.RoleStart))

	first, err := Select(assets, Options{Order: types.OrderRandom}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	second, err := Select(assets, Options{Order: types.OrderRandom}, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if !equal(names(first), names(second)) {
		t.Fatalf("same seed produced %v and %v", names(first), names(second))
	}
	if names(first)[0] != "start.png" {
		t.Fatalf("start asset not first: %v", names(first))
	}
	if len(first) != len(assets) {
		t.Fatalf("shuffle lost assets: %v", names(first))
	}
}

func TestSelectEmptyIsNoMediaFound(t *testing.T) {
	cases := []struct {
		name   string
		assets []types.Asset
		cap    *int
	}{
		{"nothing", nil, nil},
		{"only start without zero cap", []types.Asset{asset("start.mp4", types.RoleStart)}, nil},
		{"zero cap without start or closing", []types.Asset{asset("clip1.mp4", types.RoleNormal)}, intPtr(0)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Select(c.assets, Options{Order: types.OrderAlphnum, Cap: c.cap}, nil)
			if kind := types.KindOf(err); kind != types.ErrNoMediaFound {
				t.Fatalf("KindOf(err) = %q; want %q (err=%v)", kind, types.ErrNoMediaFound, err)
			}
		})
	}
}

func TestSelectUnknownOrder(t *testing.T) {
	_, err := Select([]types.Asset{asset("clip1.mp4", types.RoleNormal)}, Options{Order: "bydate"}, nil)
	if types.KindOf(err) != types.ErrConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}
