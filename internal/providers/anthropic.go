package providers

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

	"github.com/google/uuid"

	"github.com/jackzampolin/comply/internal/errdefs"
	"github.com/jackzampolin/comply/internal/prompts/verdict"
	"github.com/jackzampolin/comply/internal/schema"
)

const (
	AnthropicBaseURL          = "https://api.anthropic.com/v1"
	AnthropicDefaultModel     = "claude-3-5-sonnet-latest"
	anthropicVersion          = "2023-06-01"
	anthropicDefaultMaxTokens = 1024
	anthropicDefaultTimeout   = 60 * time.Second
)

// AnthropicClient is the Anthropic Messages API variant. Structured output
// is a forced call to a single tool whose input_schema is the response schema.
type AnthropicClient struct {
	baseURL      string
	model        string
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
	credentials  Credentials
	logger       *slog.Logger
	client       *http.Client
}

// NewAnthropicClient creates an Anthropic client. The API key is resolved per call.
func NewAnthropicClient(cfg ClientConfig) (*AnthropicClient, error) {
	if cfg.Credentials == nil {
		return nil, &errdefs.ConfigError{Key: "credentials", Err: errors.New("no credential store")}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = AnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = AnthropicDefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = anthropicDefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = anthropicDefaultTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = verdict.SystemPrompt()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &AnthropicClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
		credentials:  cfg.Credentials,
		logger:       cfg.Logger,
		client:       httpClient,
	}, nil
}

func (c *AnthropicClient) Provider() Provider { return Anthropic }

func (c *AnthropicClient) Model() string { return c.model }

// BuildPrompt returns a single user message. The Messages API has no
// system role, so the system instruction is folded in ahead of the user text.
func (c *AnthropicClient) BuildPrompt(userText string) Prompt {
	return Prompt{Messages: []Message{{
		Role: RoleUser,
		Content: []Content{
			{Type: "text", Text: c.systemPrompt},
			{Type: "text", Text: userText},
		},
	}}}
}

func (c *AnthropicClient) BuildConstraints(s *schema.ResponseSchema) (Constraints, error) {
	return buildConstraints(MechanismTool, s)
}

// Send makes one Messages API call with a forced tool choice.
func (c *AnthropicClient) Send(ctx context.Context, p Prompt, cons Constraints) (*Reply, error) {
	if cons.Mechanism != MechanismTool {
		return nil, fmt.Errorf("anthropic: unsupported structured-output mechanism %q", cons.Mechanism)
	}

	apiKey, err := c.credentials.APIKey(ctx, string(Anthropic))
	if err != nil {
		return nil, err
	}

	req := &anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Tools: []anthropicTool{{
			Name:        cons.Name,
			Description: cons.Description,
			InputSchema: cons.Schema,
		}},
		ToolChoice: &anthropicToolChoice{Type: "tool", Name: cons.Name},
	}
	for _, m := range p.Messages {
		if m.Role == RoleSystem {
			continue
		}
		am := anthropicMessage{Role: string(m.Role)}
		for _, part := range m.Content {
			am.Content = append(am.Content, anthropicContent{Type: part.Type, Text: part.Text})
		}
		req.Messages = append(req.Messages, am)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.New().String()
	start := time.Now()
	body, err := c.doRequest(ctx, "/messages", apiKey, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("anthropic reply",
		"request_id", requestID,
		"model", c.model,
		"elapsed", time.Since(start))

	return &Reply{
		Provider:  Anthropic,
		Model:     c.model,
		RequestID: requestID,
		Body:      body,
		Latency:   time.Since(start),
		Schema:    cons.Schema,
	}, nil
}

func (c *AnthropicClient) doRequest(ctx context.Context, path, apiKey string, body any) (json.RawMessage, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		msg := string(respBody)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, &errdefs.ConfigError{Key: "ANTHROPIC_API_KEY", Err: fmt.Errorf("rejected by vendor: %s", msg)}
		}
		return nil, fmt.Errorf("Anthropic error (status %d): %s", resp.StatusCode, msg)
	}
	return respBody, nil
}

// Parse reads the input of the first tool_use block for the response tool.
func (c *AnthropicClient) Parse(r *Reply, inputMsg string) (*Result, error) {
	if r == nil || len(r.Body) == 0 {
		return nil, &errdefs.EmptyResponseError{Provider: string(Anthropic), Model: c.model}
	}

	var resp anthropicResponse
	if err := json.Unmarshal(r.Body, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: failed to decode reply: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.Name != constraintName {
			continue
		}
		if len(block.Input) == 0 {
			break
		}
		return decodeVerdict(Anthropic, c.model, r.Schema, string(block.Input), inputMsg)
	}

	c.logger.Warn("anthropic reply has no tool_use block",
		"request_id", r.RequestID,
		"stop_reason", resp.StopReason)
	return nil, &errdefs.EmptyResponseError{Provider: string(Anthropic), Model: c.model}
}

var _ Client = (*AnthropicClient)(nil)
