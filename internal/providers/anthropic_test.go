package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackzampolin/comply/internal/errdefs"
)

func anthropicToolReply(input string) map[string]any {
	return map[string]any{
		"id":    "msg_test",
		"type":  "message",
		"role":  "assistant",
		"model": AnthropicDefaultModel,
		"content": []map[string]any{
			{
				"type":  "tool_use",
				"id":    "toolu_1",
				"name":  "compliance_response",
				"input": json.RawMessage(input),
			},
		},
		"stop_reason": "tool_use",
		"usage":       map[string]int{"input_tokens": 100, "output_tokens": 20},
	}
}

func TestAnthropicClient_Send(t *testing.T) {
	t.Run("forced tool call", func(t *testing.T) {
		var received anthropicRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/messages" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.Header.Get("x-api-key"); got != "test-key" {
				t.Errorf("x-api-key = %q", got)
			}
			if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
				t.Errorf("anthropic-version = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("decode request: %v", err)
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(anthropicToolReply(
				`{"is_compliant":false,"reasoning":"discriminatory","confidence_score":0.75}`))
		}))
		defer server.Close()

		client, err := NewAnthropicClient(ClientConfig{
			BaseURL:      server.URL,
			SystemPrompt: "be strict",
			Credentials:  StaticCredentials{"anthropic": "test-key"},
		})
		if err != nil {
			t.Fatalf("NewAnthropicClient() error = %v", err)
		}

		cons, err := client.BuildConstraints(defaultSchema(t))
		if err != nil {
			t.Fatalf("BuildConstraints() error = %v", err)
		}
		reply, err := client.Send(context.Background(), client.BuildPrompt("page"), cons)
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		result, err := client.Parse(reply, "page")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if result.IsCompliant {
			t.Error("expected IsCompliant = false")
		}
		if result.ConfidenceScore != 0.75 {
			t.Errorf("ConfidenceScore = %v", result.ConfidenceScore)
		}
		if result.Provider != Anthropic {
			t.Errorf("Provider = %s", result.Provider)
		}

		if received.MaxTokens != 1024 {
			t.Errorf("max_tokens = %d, want 1024", received.MaxTokens)
		}
		if received.ToolChoice == nil || received.ToolChoice.Type != "tool" || received.ToolChoice.Name != "compliance_response" {
			t.Errorf("tool_choice = %+v", received.ToolChoice)
		}
		if len(received.Tools) != 1 || received.Tools[0].Name != "compliance_response" {
			t.Fatalf("tools = %+v", received.Tools)
		}
		if received.Tools[0].InputSchema["additionalProperties"] != false {
			t.Errorf("input_schema.additionalProperties = %v", received.Tools[0].InputSchema["additionalProperties"])
		}
		if len(received.Messages) != 1 || received.Messages[0].Role != "user" {
			t.Fatalf("messages = %+v", received.Messages)
		}
		parts := received.Messages[0].Content
		if len(parts) != 2 || parts[0].Text != "be strict" || parts[1].Text != "page" {
			t.Errorf("content = %+v", parts)
		}
	})

	t.Run("rejected key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
		}))
		defer server.Close()

		client, _ := NewAnthropicClient(ClientConfig{
			BaseURL:     server.URL,
			Credentials: StaticCredentials{"anthropic": "bad"},
		})
		cons, _ := client.BuildConstraints(defaultSchema(t))
		_, err := client.Send(context.Background(), client.BuildPrompt("x"), cons)
		cfgErr, ok := errdefs.IsConfigError(err)
		if !ok {
			t.Fatalf("Send() error = %v, want ConfigError", err)
		}
		if cfgErr.Key != "ANTHROPIC_API_KEY" {
			t.Errorf("Key = %q", cfgErr.Key)
		}
	})

	t.Run("wrong mechanism", func(t *testing.T) {
		client, _ := NewAnthropicClient(ClientConfig{Credentials: StaticCredentials{"anthropic": "k"}})
		_, err := client.Send(context.Background(), Prompt{}, Constraints{Mechanism: MechanismJSONSchema})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestAnthropicClient_Parse(t *testing.T) {
	client, _ := NewAnthropicClient(ClientConfig{Credentials: StaticCredentials{"anthropic": "k"}})
	cons, _ := client.BuildConstraints(defaultSchema(t))

	t.Run("text only reply is empty", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "I think it is fine."}},
			"stop_reason": "end_turn",
		})
		_, err := client.Parse(&Reply{Body: body, Schema: cons.Schema}, "x")
		if _, ok := errdefs.IsEmptyResponseError(err); !ok {
			t.Fatalf("Parse() error = %v, want EmptyResponseError", err)
		}
	})

	t.Run("extra field is invalid", func(t *testing.T) {
		body, _ := json.Marshal(anthropicToolReply(
			`{"is_compliant":true,"reasoning":"ok","confidence_score":0.5,"severity":"low"}`))
		_, err := client.Parse(&Reply{Body: body, Schema: cons.Schema}, "x")
		if _, ok := errdefs.IsInvalidResponseError(err); !ok {
			t.Fatalf("Parse() error = %v, want InvalidResponseError", err)
		}
	})

	t.Run("nil reply", func(t *testing.T) {
		_, err := client.Parse(nil, "x")
		if _, ok := errdefs.IsEmptyResponseError(err); !ok {
			t.Fatalf("Parse() error = %v, want EmptyResponseError", err)
		}
	})
}
