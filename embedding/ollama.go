package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	ollamaEmbedEndpoint  = "/api/embed"
	defaultHTTPTimeout   = 30 * time.Second

	// defaultInputLimit bounds input length in runes. Local embedding models
	// have small context windows; over-long text is truncated, not rejected.
	defaultInputLimit = 8000
)

// OllamaProvider computes embeddings via the Ollama embed API.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int
	inputLimit int
	httpClient *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaBaseURL overrides the default Ollama endpoint.
func WithOllamaBaseURL(baseURL string) OllamaOption {
	return func(p *OllamaProvider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.httpClient = c
	}
}

// WithOllamaInputLimit sets the input truncation budget in runes.
func WithOllamaInputLimit(limit int) OllamaOption {
	return func(p *OllamaProvider) {
		p.inputLimit = limit
	}
}

// NewOllamaProvider creates an Ollama-backed embedding provider.
// dimensions must match the configured model's output dimensionality.
func NewOllamaProvider(model string, dimensions int, opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL:    defaultOllamaBaseURL,
		model:      model,
		dimensions: dimensions,
		inputLimit: defaultInputLimit,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// Embed computes the embedding for a single text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch computes embeddings for all texts, order-preserving.
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if p.model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no input texts provided")
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = Truncate(t, p.inputLimit)
	}

	reqBody, err := json.Marshal(ollamaEmbedRequest{Model: p.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+ollamaEmbedEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings, expected %d", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// Dimensions returns the configured vector dimensionality.
func (p *OllamaProvider) Dimensions() int {
	return p.dimensions
}

// ID identifies this provider and model for cache keying.
func (p *OllamaProvider) ID() string {
	return "ollama:" + p.model
}
