// Package llm talks to an OpenAI-compatible chat completions endpoint (Groq
// by default).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "green-finance-risk/internal/common/errors"
	httpclient "green-finance-risk/internal/common/http"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/common/metrics"
)

const (
	completionsPath = "/chat/completions"
	roleUser        = "user"
	maxErrorBody    = 512
	baseBackoff     = 200 * time.Millisecond
)

// Config for the completion client.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RateLimitRPS float64
	RateBurst    int
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Client struct {
	config Config
	http   *httpclient.Client
	logger logger.Logger
}

// NewClient validates cfg. A missing API key or model is an API_ERROR, the
// same kind a failed call produces.
func NewClient(cfg Config, log logger.Logger, opts ...httpclient.Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperrors.NewAPIError("Error initializing LLM model. Check API key and model name",
			errors.New("API key is not set"), false)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, apperrors.NewAPIError("Error initializing LLM model. Check API key and model name",
			errors.New("model name is not set"), false)
	}
	if cfg.BaseURL == "" {
		return nil, apperrors.NewAPIError("Error initializing LLM model. Check API key and model name",
			errors.New("base URL is not set"), false)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	opts = append([]httpclient.Option{httpclient.WithRateLimit(cfg.RateLimitRPS, cfg.RateBurst)}, opts...)
	return &Client{
		config: cfg,
		http:   httpclient.NewClient(0, opts...),
		logger: log.With(map[string]interface{}{"component": "llm", "model": cfg.Model}),
	}, nil
}

// Model returns the configured model id.
func (c *Client) Model() string { return c.config.Model }

// Complete sends prompt as a single user message and returns the first
// choice's content. Empty content is EMPTY_RESPONSE and is never retried;
// transport failures, 429 and 5xx are retried up to MaxRetries times.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(ChatRequest{
		Model:    c.config.Model,
		Messages: []Message{{Role: roleUser, Content: prompt}},
	})
	if err != nil {
		return "", apperrors.NewAPIError("Error encoding completion request", err, false)
	}

	var lastErr *apperrors.StandardError
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff * time.Duration(1<<(attempt-1))
			c.logger.Warn("Retrying completion request", map[string]interface{}{
				"attempt":   attempt,
				"backoffMs": backoff.Milliseconds(),
				"error":     lastErr.Error(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", c.fail(apperrors.NewAPIError("Completion request timed out", ctx.Err(), true))
			}
		}

		content, err := c.send(ctx, body)
		if err == nil {
			metrics.CompletionRequests.WithLabelValues("success").Inc()
			c.logger.Info("LLM inference successful", map[string]interface{}{
				"attempts": attempt + 1,
			})
			return content, nil
		}

		lastErr = err
		if !err.Retryable || ctx.Err() != nil {
			break
		}
	}

	return "", c.fail(lastErr)
}

func (c *Client) fail(err *apperrors.StandardError) error {
	status := "error"
	if err.Code == apperrors.ErrCodeEmptyResponse {
		status = "empty"
		c.logger.Warn("LLM did not return any response", nil)
	} else {
		c.logger.Error("Error during LLM inference", map[string]interface{}{
			"errorCode": string(err.Code),
			"error":     err.Error(),
		})
	}
	metrics.CompletionRequests.WithLabelValues(status).Inc()
	return err
}

func (c *Client) send(ctx context.Context, body []byte) (string, *apperrors.StandardError) {
	url := strings.TrimRight(c.config.BaseURL, "/") + completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewAPIError("Error building completion request", err, false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return "", apperrors.NewAPIError("Error calling completion service", err, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return "", apperrors.NewAPIError("Completion service returned an error",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), retryable)
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", apperrors.NewAPIError("Error decoding completion response", err, false)
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return "", apperrors.NewEmptyResponseError()
	}
	return chat.Choices[0].Message.Content, nil
}
