package captiongen

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// CohereProvider uses the Cohere chat endpoint
// SDK: github.com/cohere-ai/cohere-go/v2
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

func NewCohere(opts Options) (Provider, error) {
	model := opts.Model
	if model == "" {
		model = "command-r-plus"
	}
	httpClient := opts.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(opts.APIKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereProvider{client: client, model: model}, nil
}

func (c *CohereProvider) Name() string { return Cohere }

func (c *CohereProvider) Generate(ctx context.Context, prompt string) ([]string, error) {
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message: Instruction + prompt,
		Model:   &c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return nil, errors.New("cohere chat returned empty response")
	}
	return SplitResponse(resp.Text), nil
}
