package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LinkStrategist/internal/config"
	"LinkStrategist/internal/domain"
	"LinkStrategist/internal/logging"
	"LinkStrategist/internal/ports"
)

const (
	anthropicVersion        = "2023-06-01"
	defaultOpportunityCount = 3
	defaultMaxTokens        = 2000
	defaultContentLimit     = 12000
	defaultTimeout          = 30 * time.Second
	errorSnippetLimit       = 1024
	// replyBytesPerToken bounds the envelope size relative to max_tokens.
	replyBytesPerToken = 16
	replyEnvelopeSlack = 64 << 10
)

// Client implements ports.AnalysisClient on top of the Anthropic Messages API.
type Client struct {
	endpoint     string
	model        string
	apiKey       string
	maxTokens    int
	contentLimit int
	httpClient   *http.Client
	logger       *slog.Logger
}

var _ ports.AnalysisClient = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a client from configuration.
func NewClient(cfg config.AnalyzerConfig, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.ContentLimit <= 0 {
		cfg.ContentLimit = defaultContentLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := &Client{
		endpoint:     strings.TrimSpace(cfg.Endpoint),
		model:        strings.TrimSpace(cfg.Model),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		maxTokens:    cfg.MaxTokens,
		contentLimit: cfg.ContentLimit,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Analyze asks the model for link opportunities. A reply that is not the
// expected JSON shape is replaced by a fallback result instead of failing.
func (c *Client) Analyze(ctx context.Context, req ports.AnalysisRequest) (domain.AnalysisResult, error) {
	if c == nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyzer client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.AnalysisResult{}, fmt.Errorf("analyzer client misconfigured")
	}
	if req.OpportunityCount <= 0 {
		req.OpportunityCount = defaultOpportunityCount
	}

	prompt := buildPrompt(req, c.contentLimit)
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("marshal analyzer payload: %w", err)
	}

	start := time.Now()
	reply, err := c.send(ctx, body)
	if errors.Is(err, domain.ErrContractViolation) {
		c.logger.Warn("analyzer reply rejected, using fallback", "error", err, "to_url", req.TargetURL)
		return fallbackResult(req.TargetURL, req.Keyword), nil
	}
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	elapsed := time.Since(start).Seconds()

	result, err := decodeReply(reply)
	if err != nil {
		c.logger.Warn("analyzer reply rejected, using fallback",
			"error", err,
			"to_url", req.TargetURL,
			"snippet", snippet(string(reply)))
		return fallbackResult(req.TargetURL, req.Keyword), nil
	}

	result.ProcessingTime = elapsed
	c.logger.Debug("analyzer reply accepted",
		"opportunities", len(result.Opportunities),
		"elapsed", elapsed)
	return result, nil
}

func (c *Client) send(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: send request (timeout=%s): %w", domain.ErrUpstream, c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		return nil, fmt.Errorf("%w: analyzer returned %s: %s", domain.ErrUpstream, resp.Status, strings.TrimSpace(string(payload)))
	}

	limit := c.replyLimit()
	reply, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrUpstream, err)
	}
	if int64(len(reply)) > limit {
		return nil, fmt.Errorf("%w: reply exceeds %d bytes", domain.ErrContractViolation, limit)
	}
	return reply, nil
}

func (c *Client) replyLimit() int64 {
	return int64(c.maxTokens)*replyBytesPerToken + replyEnvelopeSlack
}
