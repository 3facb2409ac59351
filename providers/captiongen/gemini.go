package captiongen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiProvider calls the generateContent endpoint
type GeminiProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewGemini(opts Options) (Provider, error) {
	p := &GeminiProvider{apiKey: opts.APIKey, model: opts.Model, endpoint: opts.Endpoint, client: opts.Client}
	if p.model == "" {
		p.model = "gemini-2.5-flash-lite"
	}
	if p.endpoint == "" {
		p.endpoint = fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, p.model)
	}
	if p.client == nil {
		p.client = http.DefaultClient
	}
	return p, nil
}

func (g *GeminiProvider) Name() string { return Gemini }

func (g *GeminiProvider) Generate(ctx context.Context, prompt string) ([]string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": Instruction + prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.7,
			"maxOutputTokens": 2048,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := g.endpoint + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return SplitResponse(sb.String()), nil
}
