package captiongen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// OpenAIProvider implements Provider with the Chat Completions API
// Endpoint: POST https://api.openai.com/v1/chat/completions
// Request: {"model": "...", "messages": [{"role": "user", "content": "..."}]}
// Response: {"choices": [{"message": {"content": "..."}}]}
type OpenAIProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAI(opts Options) (Provider, error) {
	p := &OpenAIProvider{apiKey: opts.APIKey, model: opts.Model, endpoint: opts.Endpoint, client: opts.Client}
	if p.model == "" {
		p.model = "gpt-4o-mini"
	}
	if p.endpoint == "" {
		p.endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if p.client == nil {
		p.client = http.DefaultClient
	}
	return p, nil
}

func (o *OpenAIProvider) Name() string { return OpenAI }

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string) ([]string, error) {
	payload := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": Instruction},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.7,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai chat error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return SplitResponse(parsed.Choices[0].Message.Content), nil
}
