package openai

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
	"time"

	"github.com/standin-bot/standin/pkg/errorsx"
	"github.com/standin-bot/standin/pkg/genai"
)

// Config holds settings for an OpenAI-compatible chat-completions
// endpoint. Setting APIVersion switches to the Azure deployment URL
// scheme and api-key header.
type Config struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIVersion  string  `mapstructure:"api_version"`
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
}

// Backend generates replies through a hosted chat-completions API.
type Backend struct {
	cfg    Config
	client *http.Client
}

func NewBackend(cfg Config) *Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.8
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.9
	}
	return &Backend{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *Backend) Name() string { return "openai" }

type chatRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []genai.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (b *Backend) Generate(ctx context.Context, req genai.Request) (genai.Response, error) {
	payload := chatRequest{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: b.cfg.Temperature,
		TopP:        b.cfg.TopP,
	}
	if b.cfg.APIVersion == "" {
		payload.Model = b.cfg.Model
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return genai.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint(), bytes.NewReader(body))
	if err != nil {
		return genai.Response{}, err
	}
	b.applyHeaders(httpReq)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return genai.Response{}, errorsx.Wrap(err, errorsx.ReasonBackendTimeout)
		}
		return genai.Response{}, errorsx.Wrap(err, errorsx.ReasonBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		msg, _ := io.ReadAll(resp.Body)
		return genai.Response{}, errorsx.Wrap(errors.New(string(msg)), errorsx.ReasonBackendRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return genai.Response{}, errorsx.Wrap(fmt.Errorf("status %d: %s", resp.StatusCode, msg), errorsx.ReasonBackendUnavailable)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return genai.Response{}, errorsx.Wrap(err, errorsx.ReasonBackendMalformed)
	}
	if len(out.Choices) == 0 {
		return genai.Response{}, errorsx.Wrap(errors.New("no choices in response"), errorsx.ReasonBackendMalformed)
	}
	return genai.Response{
		Text:       strings.TrimSpace(out.Choices[0].Message.Content),
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}

func (b *Backend) endpoint() string {
	base := strings.TrimSuffix(b.cfg.BaseURL, "/")
	if b.cfg.APIVersion != "" {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, url.PathEscape(b.cfg.Model), url.QueryEscape(b.cfg.APIVersion))
	}
	return base + "/chat/completions"
}

func (b *Backend) applyHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIVersion != "" {
		req.Header.Set("api-key", b.cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
}

var _ genai.Backend = (*Backend)(nil)
