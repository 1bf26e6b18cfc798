package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/trade-ledger/internal/llm"
)

const DefaultModelName = "gemini-2.0-flash"

// Config for the Gemini API client.
type Config struct {
	APIKey      string
	BaseURL     string // optional override, used by tests and proxies
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client implements llm.Generator using the Google GenAI SDK.
type Client struct {
	cfg    Config
	genai  *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModelName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{cfg: cfg, genai: gc, logger: logger}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		role := "user"
		if t.Role == "assistant" || t.Role == "model" {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: t.Text}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: req.UserText}}})

	temp := c.cfg.Temperature
	gcfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	if sys := strings.TrimSpace(req.SystemInstruction); sys != "" {
		gcfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: sys}}}
	}

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"text_len", len(req.UserText),
		"history", len(req.History),
	)

	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, contents, gcfg)
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.GenerateResponse{}, fmt.Errorf("gemini: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return llm.GenerateResponse{}, errors.New("gemini: empty response from model")
	}

	out := llm.GenerateResponse{ReplyText: text, Model: resp.ModelVersion}
	if out.Model == "" {
		out.Model = c.cfg.Model
	}
	if resp.UsageMetadata != nil {
		out.TokenCount = int(resp.UsageMetadata.TotalTokenCount)
	}

	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"model", out.Model,
		"tokens", out.TokenCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
