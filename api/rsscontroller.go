package api

import (
	"net/http"
	"sort"

	"reelsmith/rssfeeds"

	"github.com/gin-gonic/gin"
)

// RegisterFeedRoutes registers the feed preset listing used to pick a
// captions.feed value.
func RegisterFeedRoutes(r *gin.Engine) {
	r.GET("/api/feeds", handleListFeeds)
}

type feedPreset struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func handleListFeeds(c *gin.Context) {
	presets := make([]feedPreset, 0, len(rssfeeds.FeedPresets))
	for key, f := range rssfeeds.FeedPresets {
		presets = append(presets, feedPreset{Key: key, Name: f.Name, URL: f.URL})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Key < presets[j].Key })
	c.JSON(http.StatusOK, gin.H{"feeds": presets})
}
