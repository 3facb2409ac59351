package publish

import (
	"strings"
	"testing"

	"reelsmith/types"
)

func TestMetadataFor(t *testing.T) {
	tl := types.NewTimeline(10)
	tl.Title = &types.TitleGroup{Blocks: []types.TitleBlock{{Text: "Big News"}, {Text: " today"}}}
	tl.Captions = types.CaptionTrack{Entries: []types.CaptionEntry{
		{DisplayText: "Rivers are rising #Flood"},
		{DisplayText: "Stay safe #flood #weather"},
	}}

	md := MetadataFor(tl, "fallback")
	if md.Title != "Big News, today" {
		t.Errorf("title = %q", md.Title)
	}
	if got := strings.Join(md.Tags, ","); got != "flood,weather,shorts" {
		t.Errorf("tags = %s", got)
	}
	if !strings.HasPrefix(md.Description, "Rivers are rising #Flood\nStay safe") {
		t.Errorf("description = %q", md.Description)
	}
	if md.PrivacyStatus != "private" || md.CategoryID == "" {
		t.Errorf("metadata = %+v", md)
	}
}

func TestMetadataForFallbackTitle(t *testing.T) {
	md := MetadataFor(types.NewTimeline(5), strings.Repeat("x", 150))
	if n := len([]rune(md.Title)); n != maxTitleRunes {
		t.Fatalf("title runes = %d; want %d", n, maxTitleRunes)
	}
	if md.Description != md.Title+"\n\n#shorts" {
		t.Fatalf("description = %q", md.Description)
	}
}

func TestParseTags(t *testing.T) {
	if got := ParseTags(" a, ,b ,c"); strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("ParseTags = %v", got)
	}
}
