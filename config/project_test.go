package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ProjectConfigFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProjectFileMissingIsDefaults(t *testing.T) {
	pf, err := LoadProjectFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadProjectFile error: %v", err)
	}
	s, err := pf.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.Width != VideoWidth || s.Height != VideoHeight || s.RenderTimeout != DefaultRenderTimeout {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if s.TitlePosition != TitlePosition || s.SubtitlePosition != SubtitlePosition {
		t.Fatalf("positions = %v/%v", s.TitlePosition, s.SubtitlePosition)
	}
}

func TestResolveOverrides(t *testing.T) {
	path := writeConfig(t, `
video:
  width: 720
  height: 1280
  crf: 0
title:
  position: 0
render:
  timeout: 90s
captions:
  provider: openai
  feed: hn
`)
	pf, err := LoadProjectFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s, err := pf.Resolve()
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if s.Width != 720 || s.Height != 1280 {
		t.Errorf("size = %dx%d", s.Width, s.Height)
	}
	if s.CRF != 0 {
		t.Errorf("explicit crf 0 lost: %d", s.CRF)
	}
	if s.TitlePosition != 0 {
		t.Errorf("explicit title position 0 lost: %v", s.TitlePosition)
	}
	if s.RenderTimeout != 90*time.Second {
		t.Errorf("timeout = %v", s.RenderTimeout)
	}
	if s.CaptionProvider != "openai" || s.CaptionFeed != "hn" {
		t.Errorf("captions = %q/%q", s.CaptionProvider, s.CaptionFeed)
	}
}

func TestResolveRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "video: [1, 2"},
		{"title position", "title:\n  position: 140\n"},
		{"bgm volume", "bgm:\n  volume: 2\n"},
		{"timeout", "render:\n  timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf, err := LoadProjectFile(writeConfig(t, tt.body))
			if err == nil {
				_, err = pf.Resolve()
			}
			if err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestWithRequestPrecedence(t *testing.T) {
	pf := &ProjectFile{}
	pf.Captions.Provider = "cohere"
	s, err := pf.Resolve()
	if err != nil {
		t.Fatal(err)
	}

	pos := 80.0
	got, err := s.WithRequest(types.RenderRequest{
		CaptionProvider:  "gemini",
		SubtitlePosition: &pos,
		TitleFont:        "Inter",
		RenderTimeout:    "2m",
	})
	if err != nil {
		t.Fatalf("WithRequest error: %v", err)
	}
	if got.CaptionProvider != "gemini" || got.SubtitlePosition != 80 || got.TitleFont != "Inter" || got.RenderTimeout != 2*time.Minute {
		t.Fatalf("overrides not applied: %+v", got)
	}

	kept, err := s.WithRequest(types.RenderRequest{})
	if err != nil || kept.CaptionProvider != "cohere" {
		t.Fatalf("empty request changed settings: %+v, %v", kept, err)
	}

	bad := -1.0
	if _, err := s.WithRequest(types.RenderRequest{TitlePosition: &bad}); err == nil {
		t.Fatal("negative title position accepted")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("REELSMITH_TEST_LIST", " a, b ,,c ")
	t.Setenv("REELSMITH_TEST_INT", "x")
	t.Setenv("REELSMITH_TEST_BOOL", "true")

	if got := GetEnvList("REELSMITH_TEST_LIST", nil); len(got) != 3 || got[1] != "b" {
		t.Errorf("GetEnvList = %q", got)
	}
	if got := GetEnvInt("REELSMITH_TEST_INT", 4); got != 4 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if !GetEnvBool("REELSMITH_TEST_BOOL", false) {
		t.Error("GetEnvBool = false")
	}
	if got := GetEnvOrDefault("REELSMITH_TEST_UNSET", "d"); got != "d" {
		t.Errorf("GetEnvOrDefault = %q", got)
	}
}
