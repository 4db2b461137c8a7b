package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/comply/internal/prompts/verdict"
	"github.com/jackzampolin/comply/internal/schema"
)

const MockClientName = "mock"

// MockClient is a deterministic Client for testing and dry runs.
type MockClient struct {
	// Configurable behavior
	ProviderTag     Provider
	ModelName       string
	Latency         time.Duration
	IsCompliant     bool
	Reasoning       string
	ConfidenceScore float64
	Payload         string // Overrides the generated payload when set
	SendErr         error

	// State
	sendCount atomic.Int64
	lastInput atomic.Value // Prompt
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ProviderTag:     OpenAI,
		ModelName:       MockClientName,
		IsCompliant:     true,
		Reasoning:       "mock verdict",
		ConfidenceScore: 0.9,
	}
}

func (c *MockClient) Provider() Provider { return c.ProviderTag }

func (c *MockClient) Model() string { return c.ModelName }

func (c *MockClient) BuildPrompt(userText string) Prompt {
	return Prompt{Messages: []Message{
		textMessage(RoleSystem, verdict.SystemPrompt()),
		textMessage(RoleUser, userText),
	}}
}

func (c *MockClient) BuildConstraints(s *schema.ResponseSchema) (Constraints, error) {
	return buildConstraints(MechanismJSONSchema, s)
}

// Send returns the configured verdict after Latency.
func (c *MockClient) Send(ctx context.Context, p Prompt, cons Constraints) (*Reply, error) {
	count := c.sendCount.Add(1)
	c.lastInput.Store(p)

	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}
	if c.SendErr != nil {
		return nil, c.SendErr
	}

	body := c.Payload
	if body == "" {
		data, err := json.Marshal(map[string]any{
			"is_compliant":     c.IsCompliant,
			"reasoning":        c.Reasoning,
			"confidence_score": c.ConfidenceScore,
		})
		if err != nil {
			return nil, err
		}
		body = string(data)
	}

	return &Reply{
		Provider:  c.ProviderTag,
		Model:     c.ModelName,
		RequestID: fmt.Sprintf("mock-%d", count),
		Body:      json.RawMessage(body),
		Schema:    cons.Schema,
	}, nil
}

func (c *MockClient) Parse(r *Reply, inputMsg string) (*Result, error) {
	return decodeVerdict(c.ProviderTag, c.ModelName, r.Schema, string(r.Body), inputMsg)
}

// SendCount returns the number of Send calls.
func (c *MockClient) SendCount() int64 {
	return c.sendCount.Load()
}

// LastPrompt returns the prompt passed to the most recent Send.
func (c *MockClient) LastPrompt() (Prompt, bool) {
	p, ok := c.lastInput.Load().(Prompt)
	return p, ok
}

var _ Client = (*MockClient)(nil)
