package rssfeeds

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// Article is one feed item, optionally with its extracted body
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"published_at"`
	Summary         string    `json:"summary"`
	Author          string    `json:"author,omitempty"`
	FullContentText string    `json:"full_content_text,omitempty"`
	Excerpt         string    `json:"excerpt,omitempty"`
	ExtractionError string    `json:"extraction_error,omitempty"`
}

// Text returns the best available body of the article
func (a *Article) Text() string {
	switch {
	case a.FullContentText != "":
		return a.FullContentText
	case a.Excerpt != "":
		return a.Excerpt
	default:
		return a.Summary
	}
}

// FetchFeed retrieves and parses an RSS/Atom feed, returning at most
// maxCount items in feed order
func FetchFeed(ctx context.Context, feedURL string, maxCount int) ([]*Article, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	return articlesFrom(feed, maxCount), nil
}

// ParseFeed parses an already downloaded feed document
func ParseFeed(doc string, maxCount int) ([]*Article, error) {
	feed, err := gofeed.NewParser().ParseString(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return articlesFrom(feed, maxCount), nil
}

func articlesFrom(feed *gofeed.Feed, maxCount int) []*Article {
	count := min(len(feed.Items), maxCount)
	articles := make([]*Article, 0, count)

	for i := 0; i < count; i++ {
		item := feed.Items[i]

		// Use GUID if available, otherwise generate from URL
		id := item.GUID
		if id == "" && item.Link != "" {
			id = GenerateID(item.Link)
		}

		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		articles = append(articles, &Article{
			ID:          id,
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: publishedAt,
			Summary:     summary,
			Author:      author,
		})
	}
	return articles
}
