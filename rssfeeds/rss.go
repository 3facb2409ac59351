// Package rssfeeds pulls recent articles from a news feed and turns the
// newest readable one into source material for caption prompts.
package rssfeeds

import "strings"

// FeedConfig represents the configuration for a single RSS feed
type FeedConfig struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FeedPresets maps friendly keys to RSS feed configurations
var FeedPresets = map[string]FeedConfig{
	"cna": {
		Name: "Channel News Asia",
		URL:  "https://www.channelnewsasia.com/api/v1/rss-outbound-feed?_format=xml",
	},
	"st": {
		Name: "Straits Times",
		URL:  "https://www.straitstimes.com/news/singapore/rss.xml",
	},
	"hn": {
		Name: "Hacker News",
		URL:  "https://hnrss.org/newest",
	},
	"tr": {
		Name: "Technology Review",
		URL:  "https://www.technologyreview.com/feed/",
	},
}

// ResolveFeedURL returns the URL of a preset, or the input itself when it
// names no preset
func ResolveFeedURL(feed string) string {
	if preset, ok := FeedPresets[strings.ToLower(strings.TrimSpace(feed))]; ok {
		return preset.URL
	}
	return strings.TrimSpace(feed)
}
