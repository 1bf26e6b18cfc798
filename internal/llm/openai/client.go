package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/trade-ledger/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends the system instruction, history and user text as one chat
// and asks for a JSON object reply.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	rid := uuid.New().String()
	start := time.Now()

	messages := make([]chatMessage, 0, len(req.History)+2)
	if sys := strings.TrimSpace(req.SystemInstruction); sys != "" {
		messages = append(messages, chatMessage{Role: "system", Content: sys})
	}
	for _, t := range req.History {
		role := t.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: t.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserText})

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages":        messages,
	}

	c.logger.Info("llm.generate.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"text_len", len(req.UserText),
		"history", len(req.History),
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}
	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.generate.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.GenerateResponse{}, fmt.Errorf("openai: %w", err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return llm.GenerateResponse{}, errors.New("no choices in openai response")
	}

	model := cc.Model
	if model == "" {
		model = c.cfg.Model
	}
	out := llm.GenerateResponse{
		ReplyText:  strings.TrimSpace(cc.Choices[0].Message.Content),
		Model:      model,
		TokenCount: cc.Usage.TotalTokens,
	}

	c.logger.Info("llm.generate.ok",
		"req_id", rid,
		"model", out.Model,
		"tokens", out.TokenCount,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
