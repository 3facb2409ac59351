package title

import (
	"strings"
	"testing"
)

func TestLayoutTwoBlocks(t *testing.T) {
	g := Layout("Technology,The Future", Options{Position: 15, FrameWidth: 1080, FrameHeight: 1920, BaseFontSize: 96, FirstWindow: 4})
	if g == nil {
		t.Fatal("Layout returned nil")
	}
	if len(g.Blocks) != 2 {
		t.Fatalf("got %d blocks; want 2", len(g.Blocks))
	}

	first, second := g.Blocks[0], g.Blocks[1]
	if first.Text != "Technology" || first.FontSizeRatio != 1.0 || first.Line != 0 {
		t.Fatalf("first block = %+v", first)
	}
	if second.Text != "The Future" || second.FontSizeRatio != 0.9 || second.Line != 1 {
		t.Fatalf("second block = %+v", second)
	}
	if first.Y != 288 {
		t.Fatalf("first block y = %d; want 288 (15%% of 1920)", first.Y)
	}
	if second.Y <= first.Y {
		t.Fatalf("blocks not stacked: %d <= %d", second.Y, first.Y)
	}
	if g.Scale != 1 {
		t.Fatalf("scale = %v; want 1 for a title that fits", g.Scale)
	}
	if g.Start != 0 || g.End != 4 {
		t.Fatalf("window = %.1f..%.1f; want 0..4", g.Start, g.End)
	}
}

func TestSplitJoinIdempotent(t *testing.T) {
	titles := []string{
		"Technology,The Future",
		"single",
		" spaced , segments ,",
		"a,,b",
		"ünïcode,テスト",
	}
	for _, raw := range titles {
		g := Layout(raw, Options{FirstWindow: 3})
		if got := Join(g.Blocks); got != raw {
			t.Errorf("Join(Layout(%q)) = %q", raw, got)
		}
	}
}

func TestLayoutUniformShrink(t *testing.T) {
	long := strings.Repeat("W", 40)
	g := Layout(long+",short", Options{FrameWidth: 1080, FrameHeight: 1920, BaseFontSize: 96, FirstWindow: 5})

	if g.Scale >= 1 {
		t.Fatalf("scale = %v; want < 1", g.Scale)
	}
	if w := EstimateWidth(long, float64(g.Blocks[0].FontSize)); w > 0.9*1080+float64(len(long)) {
		t.Fatalf("widest line %.0fpx still exceeds safe width", w)
	}
	ratio := float64(g.Blocks[1].FontSize) / float64(g.Blocks[0].FontSize)
	if ratio < 0.85 || ratio > 0.95 {
		t.Fatalf("relative sizes not preserved: %d vs %d", g.Blocks[0].FontSize, g.Blocks[1].FontSize)
	}
}

func TestLayoutDisplayWindow(t *testing.T) {
	cases := []struct {
		name     string
		display  float64
		window   float64
		expected float64
	}{
		{"defaults to first clip", 0, 6, 6},
		{"shorter display", 2, 6, 2},
		{"clamped to first clip", 9, 6, 6},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := Layout("Hi", Options{DisplayDuration: c.display, FirstWindow: c.window})
			if g.End != c.expected {
				t.Fatalf("End = %v; want %v", g.End, c.expected)
			}
		})
	}
}

func TestLayoutEmpty(t *testing.T) {
	if g := Layout("   ", Options{FirstWindow: 3}); g != nil {
		t.Fatalf("Layout of blank title = %+v; want nil", g)
	}
}
