package providers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jackzampolin/comply/internal/errdefs"
	"github.com/jackzampolin/comply/internal/schema"
)

// Provider tags a vendor variant.
type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Azure     Provider = "azure"
)

// ParseProvider maps a configured name to a Provider tag.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case OpenAI, Anthropic, Azure:
		return p, nil
	default:
		return "", &errdefs.UnsupportedProviderError{Provider: s}
	}
}

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content is one part of a message.
type Content struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

// Message is a chat message.
type Message struct {
	Role    Role      `json:"role"`
	Content []Content `json:"content"`
}

// Text joins the text parts of the message.
func (m Message) Text() string {
	parts := make([]string, 0, len(m.Content))
	for _, c := range m.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}

// Prompt is the ordered message list for one request. System messages come
// before the user message.
type Prompt struct {
	Messages []Message `json:"messages"`
}

func textMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Content{{Type: "text", Text: text}}}
}

// Mechanism is the vendor feature used to force structured output.
type Mechanism string

const (
	MechanismJSONSchema Mechanism = "json_schema" // response_format json_schema
	MechanismTool       Mechanism = "tool"        // forced tool call
)

const (
	constraintName        = "compliance_response"
	constraintDescription = "Returns the compliance response for the given input in a structured json format"
)

// Constraints is a structured-output directive. Each variant renders it into
// its own request shape inside Send.
type Constraints struct {
	Mechanism   Mechanism      `json:"mechanism"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Strict      bool           `json:"strict"`
	Schema      map[string]any `json:"schema"`
}

// Reply is the raw vendor answer to one Send.
type Reply struct {
	Provider  Provider        `json:"provider"`
	Model     string          `json:"model"`
	RequestID string          `json:"request_id"`
	Body      json.RawMessage `json:"body"`
	Latency   time.Duration   `json:"latency"`

	// Schema is the document the payload must satisfy.
	Schema map[string]any `json:"-"`
}

// Result is the uniform verdict returned for every provider.
type Result struct {
	Model           string   `json:"model"`
	Provider        Provider `json:"llm_provider"`
	IsCompliant     bool     `json:"is_compliant"`
	Reasoning       string   `json:"reasoning"`
	ConfidenceScore float64  `json:"confidence_score"`
	InputMsg        string   `json:"input_msg"`
}

// Client is implemented by one variant per vendor.
type Client interface {
	Provider() Provider
	Model() string

	// BuildPrompt wraps user text with the system instruction.
	BuildPrompt(userText string) Prompt

	// BuildConstraints encodes the response schema as a structured-output directive.
	// is_compliant, reasoning and confidence_score are always required and
	// undeclared fields are always rejected.
	BuildConstraints(s *schema.ResponseSchema) (Constraints, error)

	// Send makes exactly one vendor call.
	Send(ctx context.Context, p Prompt, c Constraints) (*Reply, error)

	// Parse extracts the verdict from a reply.
	Parse(r *Reply, inputMsg string) (*Result, error)
}

// Credentials resolves API keys at call time.
type Credentials interface {
	APIKey(ctx context.Context, provider string) (string, error)
}

// ClientConfig configures any variant.
type ClientConfig struct {
	Model        string
	BaseURL      string        // Optional (tests, proxies)
	Timeout      time.Duration // Per-call timeout
	MaxTokens    int           // Anthropic only
	SystemPrompt string
	Credentials  Credentials
	HTTPClient   *http.Client // Optional (tests)
	Logger       *slog.Logger
}

// New constructs the variant for p. Azure and unknown tags return
// *errdefs.UnsupportedProviderError without touching the network.
func New(p Provider, cfg ClientConfig) (Client, error) {
	var (
		client Client
		err    error
	)
	switch p {
	case OpenAI:
		client, err = NewOpenAIClient(cfg)
	case Anthropic:
		client, err = NewAnthropicClient(cfg)
	case Azure:
		client, err = NewAzureClient(cfg)
	default:
		err = &errdefs.UnsupportedProviderError{Provider: string(p)}
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// buildConstraints renders the shared directive. Every declared field is
// required alongside the mandatory ones so strict vendors accept the schema.
func buildConstraints(mech Mechanism, s *schema.ResponseSchema) (Constraints, error) {
	if s == nil {
		return Constraints{}, &errdefs.ConfigError{Key: "response properties", Err: errNoSchema}
	}
	if err := s.Validate(schema.RequiredFields); err != nil {
		return Constraints{}, err
	}

	required := append([]string(nil), schema.RequiredFields...)
	for _, name := range s.Names() {
		if !slices.Contains(required, name) {
			required = append(required, name)
		}
	}

	return Constraints{
		Mechanism:   mech,
		Name:        constraintName,
		Description: constraintDescription,
		Strict:      true,
		Schema:      s.JSONSchema(required, true),
	}, nil
}
