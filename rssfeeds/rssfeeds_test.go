package rssfeeds

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Sample</title>
  <item>
    <title>Older story</title>
    <link>https://example.com/older</link>
    <description>older summary</description>
    <pubDate>Mon, 01 Jan 2024 08:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Newer story</title>
    <link>https://example.com/newer</link>
    <guid>newer-guid</guid>
    <description>newer summary</description>
    <pubDate>Tue, 02 Jan 2024 08:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Third</title>
    <link>https://example.com/third</link>
  </item>
</channel>
</rss>`

func TestParseFeed(t *testing.T) {
	articles, err := ParseFeed(sampleFeed, 2)
	if err != nil {
		t.Fatalf("ParseFeed error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles; want 2", len(articles))
	}
	if articles[0].ID != GenerateID("https://example.com/older") {
		t.Errorf("id without guid = %q", articles[0].ID)
	}
	if articles[1].ID != "newer-guid" {
		t.Errorf("id with guid = %q", articles[1].ID)
	}
	if articles[1].PublishedAt.IsZero() {
		t.Error("published date not parsed")
	}
}

func TestResolveFeedURL(t *testing.T) {
	cases := map[string]string{
		"hn":                      "https://hnrss.org/newest",
		" HN ":                    "https://hnrss.org/newest",
		"https://example.com/rss": "https://example.com/rss",
	}
	for in, want := range cases {
		if got := ResolveFeedURL(in); got != want {
			t.Errorf("ResolveFeedURL(%q) = %q; want %q", in, got, want)
		}
	}
}

func fixedFetch(doc string) FetchFunc {
	return func(ctx context.Context, feedURL string, n int) ([]*Article, error) {
		return ParseFeed(doc, n)
	}
}

func TestEnrichUsesNewestReadableArticle(t *testing.T) {
	extracted := map[string]string{
		"https://example.com/newer": "The newer story body.",
		"https://example.com/older": "The older story body.",
	}
	e := NewEnricher("https://example.com/rss", nil)
	e.Fetch = fixedFetch(sampleFeed)
	e.Extractor.Extract = func(url string, _ time.Duration) (readability.Article, error) {
		body, ok := extracted[url]
		if !ok {
			return readability.Article{}, errors.New("404")
		}
		return readability.Article{TextContent: body}, nil
	}

	got, err := e.Enrich(context.Background(), "Write captions about today's news.")
	if err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if !strings.HasPrefix(got, "Write captions about today's news.\n\nSource material:\nNewer story\n") {
		t.Fatalf("prompt = %q", got)
	}
	if !strings.Contains(got, "The newer story body.") {
		t.Fatalf("prompt lacks article text: %q", got)
	}
}

func TestEnrichFailsOnEmptyFeed(t *testing.T) {
	e := NewEnricher("https://example.com/rss", nil)
	e.Fetch = func(ctx context.Context, feedURL string, n int) ([]*Article, error) { return nil, nil }
	if _, err := e.Enrich(context.Background(), "prompt"); err == nil {
		t.Fatal("Enrich succeeded on an empty feed")
	}
}

func TestClip(t *testing.T) {
	if got := clip("short   text", 20); got != "short text" {
		t.Errorf("clip = %q", got)
	}
	long := strings.Repeat("word ", 50)
	got := clip(long, 40)
	if !strings.HasSuffix(got, "…") || len([]rune(got)) > 41 {
		t.Errorf("clip = %q", got)
	}
}

func TestEnrichSkipsSeenArticles(t *testing.T) {
	seen := NewMemorySeen()
	e := NewEnricher("https://example.com/rss", nil)
	e.Fetch = fixedFetch(sampleFeed)
	e.Seen = seen
	e.Extractor.Extract = func(url string, _ time.Duration) (readability.Article, error) {
		return readability.Article{TextContent: "body of " + url}, nil
	}

	var picked []string
	for i := 0; i < 4; i++ {
		got, err := e.Enrich(context.Background(), "p")
		if err != nil {
			t.Fatalf("Enrich %d error: %v", i, err)
		}
		picked = append(picked, strings.Split(got, "\n")[3])
	}
	want := []string{"Newer story", "Older story", "Third", "Newer story"}
	for i := range want {
		if picked[i] != want[i] {
			t.Fatalf("picked = %q; want %q", picked, want)
		}
	}
}

func TestNormalizeAndHash(t *testing.T) {
	cases := []struct {
		name          string
		url           string
		title         string
		wantNormURL   string
		wantNormTitle string
	}{
		{"simple", "https://example.com/path", "Hello World", "https://example.com/path", "hello world"},
		{"utm and fragment", "https://example.com/path?utm_source=feed#section", "  Hello   World  ", "https://example.com/path", "hello world"},
		{"uppercase host", "HTTP://Example.COM/", "TiTle", "http://example.com", "title"},
		{"tracking params", "https://example.com/?fbclid=XYZ&gclid=ABC&utm_medium=1", "T", "https://example.com", "t"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := normalizeURL(c.url); got != c.wantNormURL {
				t.Fatalf("normalizeURL(%q) = %q; want %q", c.url, got, c.wantNormURL)
			}
			if got := normalizeTitle(c.title); got != c.wantNormTitle {
				t.Fatalf("normalizeTitle(%q) = %q; want %q", c.title, got, c.wantNormTitle)
			}
			a := &Article{URL: c.url, Title: c.title}
			b := &Article{URL: c.wantNormURL, Title: c.wantNormTitle}
			if NormalizeAndHash(a) != NormalizeAndHash(b) {
				t.Fatal("normalized forms hash differently")
			}
		})
	}
}
