package rssfeeds

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultCount is how many of the newest items are considered
	DefaultCount = 5
	// MaxSourceRunes bounds the article text appended to a prompt
	MaxSourceRunes = 4000
)

// FetchFunc loads at most n items of a feed
type FetchFunc func(ctx context.Context, feedURL string, n int) ([]*Article, error)

// Enricher appends the newest readable article of a feed to a caption prompt
type Enricher struct {
	Feed      string
	Count     int
	Fetch     FetchFunc
	Extractor *Extractor
	// Seen, when set, steers runs away from items earlier runs used
	Seen   SeenStore
	Logger *zap.Logger
}

// NewEnricher builds an Enricher for a preset name or feed URL
func NewEnricher(feed string, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		Feed:      feed,
		Count:     DefaultCount,
		Fetch:     FetchFeed,
		Extractor: NewExtractor(logger),
		Logger:    logger,
	}
}

// Enrich returns prompt followed by the source article: the newest readable
// item not yet seen, or the newest readable item when all were seen. It fails
// when the feed cannot be read or no item yields any text.
func (e *Enricher) Enrich(ctx context.Context, prompt string) (string, error) {
	feedURL := ResolveFeedURL(e.Feed)
	if feedURL == "" {
		return "", fmt.Errorf("no feed configured")
	}
	count := e.Count
	if count <= 0 {
		count = DefaultCount
	}

	articles, err := e.Fetch(ctx, feedURL, count)
	if err != nil {
		return "", err
	}
	if len(articles) == 0 {
		return "", fmt.Errorf("feed %s has no items", feedURL)
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})

	if e.Extractor != nil {
		e.Extractor.ExtractAll(ctx, articles)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var fallback *Article
	for _, a := range articles {
		if strings.TrimSpace(a.Text()) == "" {
			continue
		}
		if fallback == nil {
			fallback = a
		}
		if e.seen(ctx, a) {
			continue
		}
		return e.use(ctx, feedURL, prompt, a), nil
	}
	if fallback == nil {
		return "", fmt.Errorf("no readable article in feed %s", feedURL)
	}
	e.Logger.Info("every feed item was used before, reusing the newest", zap.String("feed", feedURL))
	return e.use(ctx, feedURL, prompt, fallback), nil
}

func (e *Enricher) seen(ctx context.Context, a *Article) bool {
	if e.Seen == nil {
		return false
	}
	ok, err := e.Seen.Exists(ctx, NormalizeAndHash(a))
	if err != nil {
		e.Logger.Warn("seen check failed", zap.String("url", a.URL), zap.Error(err))
		return false
	}
	return ok
}

func (e *Enricher) use(ctx context.Context, feedURL, prompt string, a *Article) string {
	if e.Seen != nil {
		if err := e.Seen.Add(ctx, NormalizeAndHash(a)); err != nil {
			e.Logger.Warn("failed to remember feed item", zap.String("url", a.URL), zap.Error(err))
		}
	}
	e.Logger.Info("prompt enriched from feed",
		zap.String("feed", feedURL),
		zap.String("title", a.Title),
		zap.String("url", a.URL))
	return SourcePrompt(prompt, a)
}

// SourcePrompt appends a as source material to prompt
func SourcePrompt(prompt string, a *Article) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nSource material:\n")
	if a.Title != "" {
		b.WriteString(a.Title)
		b.WriteString("\n")
	}
	b.WriteString(clip(a.Text(), MaxSourceRunes))
	return b.String()
}
