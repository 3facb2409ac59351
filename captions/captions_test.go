package captions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"reelsmith/config"
	"reelsmith/types"
)

type fakeGenerator struct {
	lines  []string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) ([]string, error) {
	f.prompt = prompt
	return f.lines, f.err
}

type fakeEnricher struct{ suffix string }

func (f fakeEnricher) Enrich(_ context.Context, prompt string) (string, error) {
	return prompt + f.suffix, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestVoiceText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"**Bold** claim", "Bold claim"},
		{"- bullet point", "bullet point"},
		{"Launch day 🚀🔥 is here", "Launch day is here"},
		{"Read [the docs](https://example.com) #golang #dev", "Read the docs"},
		{"Issue #42 matters", "Issue matters"},
		{"`code` and _emph_", "code and emph"},
	}
	for _, c := range cases {
		if got := VoiceText(c.in); got != c.want {
			t.Errorf("VoiceText(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestDisplayTextTruncates(t *testing.T) {
	long := strings.Repeat("abcdefghij", 6)
	got := DisplayText(long)
	if n := utf8.RuneCountInString(got); n != config.MaxDisplayRunes {
		t.Fatalf("DisplayText length = %d; want %d", n, config.MaxDisplayRunes)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("truncated text %q has no ellipsis", got)
	}
	if got := DisplayText("  short 🚀  "); got != "short 🚀" {
		t.Fatalf("DisplayText kept padding: %q", got)
	}
}

func TestEntriesSkipsBlankDisplay(t *testing.T) {
	got := Entries([]string{"first", "-   ", "🔥🔥"})
	if len(got) != 2 {
		t.Fatalf("got %d entries; want 2", len(got))
	}
	if got[1].VoiceText != "" || got[1].DisplayText != "🔥🔥" {
		t.Fatalf("emoji entry = %+v", got[1])
	}
}

func TestResolvePriority(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, config.SubtitleDir)
	writeFile(t, filepath.Join(sub, "script10.txt"), "ten\n")
	writeFile(t, filepath.Join(sub, "script2.txt"), "two\n\nlines\n")
	writeFile(t, filepath.Join(dir, config.PromptDir, config.PromptFile), "write about go")
	override := filepath.Join(dir, "override.txt")
	writeFile(t, override, "from override\n")

	t.Run("static natural order", func(t *testing.T) {
		track, err := (&Resolver{ProjectDir: dir}).Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if got := track.DisplayLines(); len(got) != 2 || got[0] != "two" || got[1] != "lines" {
			t.Fatalf("lines = %v; want [two lines]", got)
		}
	})

	t.Run("override wins", func(t *testing.T) {
		gen := &fakeGenerator{lines: []string{"generated"}}
		track, err := (&Resolver{ProjectDir: dir, Override: override, Generator: gen}).Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if track.Source != override || track.Entries[0].DisplayText != "from override" {
			t.Fatalf("track = %+v", track)
		}
		if gen.prompt != "" {
			t.Fatal("generator must not run when an override is given")
		}
	})

	t.Run("generation writes file", func(t *testing.T) {
		gen := &fakeGenerator{lines: []string{"Hello #world", "Second line"}}
		r := &Resolver{ProjectDir: dir, Generator: gen, Enricher: fakeEnricher{suffix: "\n\nnews"}}
		track, err := r.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if gen.prompt != "write about go\n\nnews" {
			t.Fatalf("prompt = %q", gen.prompt)
		}
		if track.Entries[0].VoiceText != "Hello" || track.Entries[0].DisplayText != "Hello #world" {
			t.Fatalf("first entry = %+v", track.Entries[0])
		}
		b, err := os.ReadFile(filepath.Join(sub, config.GeneratedCaptionsFile))
		if err != nil {
			t.Fatalf("generated file missing: %v", err)
		}
		if string(b) != "Hello #world\nSecond line\n" {
			t.Fatalf("generated file = %q", b)
		}
	})

	t.Run("generated file reused", func(t *testing.T) {
		track, err := (&Resolver{ProjectDir: dir}).Resolve(context.Background())
		if err != nil {
			t.Fatalf("Resolve error: %v", err)
		}
		if len(track.Entries) != 2 || track.Entries[1].DisplayText != "Second line" {
			t.Fatalf("track = %+v", track)
		}
	})
}

func TestResolveProviderFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.PromptDir, config.PromptFile), "prompt")
	writeFile(t, filepath.Join(dir, config.SubtitleDir, "static.txt"), "fallback\n")

	cases := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"provider error", &fakeGenerator{err: errors.New("quota exceeded")}},
		{"empty result", &fakeGenerator{lines: []string{" ", ""}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := (&Resolver{ProjectDir: dir, Generator: c.gen}).Resolve(context.Background())
			if types.KindOf(err) != types.ErrCaptionProvider {
				t.Fatalf("KindOf(err) = %q; want %q", types.KindOf(err), types.ErrCaptionProvider)
			}
		})
	}
}

func TestResolveMissingPrompt(t *testing.T) {
	_, err := (&Resolver{ProjectDir: t.TempDir(), Generator: &fakeGenerator{lines: []string{"x"}}}).Resolve(context.Background())
	if types.KindOf(err) != types.ErrCaptionProvider {
		t.Fatalf("KindOf(err) = %q; want %q", types.KindOf(err), types.ErrCaptionProvider)
	}
}

func TestResolveNothing(t *testing.T) {
	track, err := (&Resolver{ProjectDir: t.TempDir()}).Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(track.Entries) != 0 {
		t.Fatalf("expected empty track, got %+v", track)
	}
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	entries := []types.CaptionEntry{
		{DisplayText: "first", StartSeconds: 0, EndSeconds: 1.5},
		{DisplayText: "second", StartSeconds: 1.5, EndSeconds: 3661.25},
	}
	if err := WriteSRT(entries, path); err != nil {
		t.Fatalf("WriteSRT error: %v", err)
	}
	b, _ := os.ReadFile(path)
	want := "1\n00:00:00,000 --> 00:00:01,500\nfirst\n\n2\n00:00:01,500 --> 01:01:01,250\nsecond\n\n"
	if string(b) != want {
		t.Fatalf("SRT =\n%s\nwant\n%s", b, want)
	}
}

func TestFormatTimestamps(t *testing.T) {
	cases := []struct {
		in       float64
		srt, ass string
	}{
		{0, "00:00:00,000", "0:00:00.00"},
		{2.9996, "00:00:03,000", "0:00:03.00"},
		{59.99, "00:00:59,990", "0:00:59.99"},
		{3725.5, "01:02:05,500", "1:02:05.50"},
	}
	for _, c := range cases {
		if got := FormatTimestamp(c.in); got != c.srt {
			t.Errorf("FormatTimestamp(%v) = %s; want %s", c.in, got, c.srt)
		}
		if got := FormatASSTimestamp(c.in); got != c.ass {
			t.Errorf("FormatASSTimestamp(%v) = %s; want %s", c.in, got, c.ass)
		}
	}
}

func TestWriteASSPositionsCaptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.ass")
	entries := []types.CaptionEntry{{DisplayText: "a {b}", StartSeconds: 0, EndSeconds: 2}}
	if err := WriteASS(entries, Style{Font: "Consolas", FontSize: 64, Position: 70, Width: 1080, Height: 1920}, path); err != nil {
		t.Fatalf("WriteASS error: %v", err)
	}
	b, _ := os.ReadFile(path)
	s := string(b)
	if !strings.Contains(s, "Style: Default,Consolas,64,") || !strings.Contains(s, ",2,40,40,576,1\n") {
		t.Fatalf("style line wrong:\n%s", s)
	}
	if !strings.Contains(s, "Dialogue: 0,0:00:00.00,0:00:02.00,Default,,0,0,0,,a \\{b\\}\n") {
		t.Fatalf("dialogue line wrong:\n%s", s)
	}
}
