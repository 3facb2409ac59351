package rssfeeds

import (
	"context"
	"fmt"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

const (
	WorkerCount      = 5
	extractorTimeout = 30 * time.Second
)

// ExtractFunc downloads a page and returns its readable content
type ExtractFunc func(url string, timeout time.Duration) (readability.Article, error)

// Extractor fills in article bodies with a bounded pool of workers
type Extractor struct {
	Extract ExtractFunc
	Workers int
	Logger  *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{Extract: fromURL, Workers: WorkerCount, Logger: logger}
}

func fromURL(url string, timeout time.Duration) (readability.Article, error) {
	return readability.FromURL(url, timeout)
}

// ExtractAll extracts every article; failures are recorded on the article.
// Articles not yet picked up when ctx ends are marked as canceled.
func (e *Extractor) ExtractAll(ctx context.Context, articles []*Article) {
	workers := e.Workers
	if workers <= 0 {
		workers = WorkerCount
	}
	var wg sync.WaitGroup
	articleChan := make(chan *Article)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for article := range articleChan {
				if ctx.Err() != nil {
					article.ExtractionError = ctx.Err().Error()
					continue
				}
				if err := e.extractContent(article); err != nil {
					article.ExtractionError = err.Error()
					e.Logger.Warn("extraction failed",
						zap.Int("worker", workerID),
						zap.String("url", article.URL),
						zap.Error(err))
				}
			}
		}(i)
	}

	for _, article := range articles {
		articleChan <- article
	}
	close(articleChan)
	wg.Wait()
}

func (e *Extractor) extractContent(article *Article) error {
	if article.URL == "" {
		return fmt.Errorf("article URL is empty")
	}

	extracted, err := e.Extract(article.URL, extractorTimeout)
	if err != nil {
		return fmt.Errorf("readability extraction failed: %w", err)
	}

	article.FullContentText = extracted.TextContent
	article.Excerpt = extracted.Excerpt
	if article.Author == "" {
		article.Author = extracted.Byline
	}
	e.Logger.Debug("extracted", zap.String("title", article.Title))
	return nil
}
