package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/jackzampolin/comply/internal/errdefs"
	"github.com/jackzampolin/comply/internal/prompts/verdict"
	"github.com/jackzampolin/comply/internal/schema"
)

const (
	OpenAIDefaultModel   = "gpt-4o-mini"
	openAIDefaultTimeout = 60 * time.Second
)

// OpenAIClient is the OpenAI chat-completions variant. Structured output
// uses response_format json_schema in strict mode.
type OpenAIClient struct {
	model        string
	systemPrompt string
	timeout      time.Duration
	credentials  Credentials
	logger       *slog.Logger
	client       openai.Client
}

// NewOpenAIClient creates an OpenAI client. The API key is resolved per call.
func NewOpenAIClient(cfg ClientConfig) (*OpenAIClient, error) {
	if cfg.Credentials == nil {
		return nil, &errdefs.ConfigError{Key: "credentials", Err: errors.New("no credential store")}
	}
	if cfg.Model == "" {
		cfg.Model = OpenAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = openAIDefaultTimeout
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

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
		credentials:  cfg.Credentials,
		logger:       cfg.Logger,
		client:       openai.NewClient(opts...),
	}, nil
}

func (c *OpenAIClient) Provider() Provider { return OpenAI }

func (c *OpenAIClient) Model() string { return c.model }

// BuildPrompt puts the system instruction in its own message ahead of the user turn.
func (c *OpenAIClient) BuildPrompt(userText string) Prompt {
	return Prompt{Messages: []Message{
		textMessage(RoleSystem, c.systemPrompt),
		textMessage(RoleUser, userText),
	}}
}

func (c *OpenAIClient) BuildConstraints(s *schema.ResponseSchema) (Constraints, error) {
	return buildConstraints(MechanismJSONSchema, s)
}

// Send makes one chat-completions call. SDK retries are disabled.
func (c *OpenAIClient) Send(ctx context.Context, p Prompt, cons Constraints) (*Reply, error) {
	if cons.Mechanism != MechanismJSONSchema {
		return nil, fmt.Errorf("openai: unsupported structured-output mechanism %q", cons.Mechanism)
	}

	apiKey, err := c.credentials.APIKey(ctx, string(OpenAI))
	if err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(p.Messages))
	for _, m := range p.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Text()))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Text()))
		default:
			messages = append(messages, openai.UserMessage(m.Text()))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        cons.Name,
					Description: openai.String(cons.Description),
					Schema:      cons.Schema,
					Strict:      openai.Bool(cons.Strict),
				},
			},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.New().String()
	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params,
		option.WithAPIKey(apiKey),
		option.WithHeader("X-Client-Request-Id", requestID),
	)
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	c.logger.Debug("openai reply",
		"request_id", requestID,
		"model", completion.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"elapsed", time.Since(start))

	return &Reply{
		Provider:  OpenAI,
		Model:     c.model,
		RequestID: requestID,
		Body:      json.RawMessage(completion.RawJSON()),
		Latency:   time.Since(start),
		Schema:    cons.Schema,
	}, nil
}

// Parse reads the first choice's message content as JSON text.
func (c *OpenAIClient) Parse(r *Reply, inputMsg string) (*Result, error) {
	if r == nil || len(r.Body) == 0 {
		return nil, &errdefs.EmptyResponseError{Provider: string(OpenAI), Model: c.model}
	}

	var completion openai.ChatCompletion
	if err := json.Unmarshal(r.Body, &completion); err != nil {
		return nil, fmt.Errorf("openai: failed to decode reply: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, &errdefs.EmptyResponseError{Provider: string(OpenAI), Model: c.model}
	}

	msg := completion.Choices[0].Message
	if strings.TrimSpace(msg.Content) == "" {
		if msg.Refusal != "" {
			c.logger.Warn("openai refused", "request_id", r.RequestID, "refusal", msg.Refusal)
		}
		return nil, &errdefs.EmptyResponseError{Provider: string(OpenAI), Model: c.model}
	}

	return decodeVerdict(OpenAI, c.model, r.Schema, msg.Content, inputMsg)
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized {
			return &errdefs.ConfigError{Key: "OPENAI_API_KEY", Err: fmt.Errorf("rejected by vendor: %s", apiErr.Message)}
		}
		if apiErr.Message != "" {
			return fmt.Errorf("OpenAI error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("OpenAI error (status %d)", apiErr.StatusCode)
	}
	return fmt.Errorf("openai request failed: %w", err)
}

var _ Client = (*OpenAIClient)(nil)
