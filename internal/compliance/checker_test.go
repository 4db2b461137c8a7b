package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/comply/internal/crawler"
	"github.com/jackzampolin/comply/internal/errdefs"
	"github.com/jackzampolin/comply/internal/prompts"
	"github.com/jackzampolin/comply/internal/prompts/verdict"
	"github.com/jackzampolin/comply/internal/providers"
)

func pageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func newChecker(t *testing.T, client providers.Client, cfg Config) *Checker {
	t.Helper()
	cfg.Extractor = crawler.New(crawler.Config{})
	cfg.Clients = Fixed(client)
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestChecker_Check(t *testing.T) {
	server := pageServer(t, `<html><head><title>Example</title></head><body><p>Hello world</p></body></html>`)
	mock := providers.NewMockClient()
	c := newChecker(t, mock, Config{})

	result, err := c.Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !result.IsCompliant || result.Reasoning != "mock verdict" || result.ConfidenceScore != 0.9 {
		t.Errorf("result = %+v", result)
	}
	if result.Provider != providers.OpenAI {
		t.Errorf("Provider = %s", result.Provider)
	}

	// The user turn carries the banner and the body inside the backticks.
	banner := prompts.Banner("Title: Example", prompts.BannerWidth, '=')
	if len(banner) != 100 {
		t.Fatalf("banner length = %d", len(banner))
	}
	if !strings.Contains(result.InputMsg, banner+"\nHello world") {
		t.Errorf("InputMsg = %q", result.InputMsg)
	}
	if !strings.Contains(result.InputMsg, "```") {
		t.Errorf("InputMsg missing backticks: %q", result.InputMsg)
	}

	p, ok := mock.LastPrompt()
	if !ok {
		t.Fatal("expected a prompt")
	}
	if p.Messages[0].Text() != verdict.SystemPrompt() {
		t.Error("expected system instruction first")
	}
	if p.Messages[1].Text() != result.InputMsg {
		t.Error("expected user turn to equal InputMsg")
	}
}

func TestChecker_Idempotent(t *testing.T) {
	server := pageServer(t, `<title>Same</title><h1>Policy</h1><p>Unchanged page</p>`)
	mock := providers.NewMockClient()
	c := newChecker(t, mock, Config{})

	first, err := c.Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	second, err := c.Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if *first != *second {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
	if mock.SendCount() != 2 {
		t.Errorf("SendCount() = %d, want 2", mock.SendCount())
	}
}

func TestChecker_Errors(t *testing.T) {
	t.Run("fetch failure stops before the model", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		mock := providers.NewMockClient()
		c := newChecker(t, mock, Config{})
		_, err := c.Check(context.Background(), server.URL)
		fe, ok := errdefs.IsFetchError(err)
		if !ok {
			t.Fatalf("Check() error = %v, want FetchError", err)
		}
		if fe.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d", fe.StatusCode)
		}
		if mock.SendCount() != 0 {
			t.Errorf("SendCount() = %d, want 0", mock.SendCount())
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		server := pageServer(t, `<p>text</p>`)
		mock := providers.NewMockClient()
		mock.Payload = "null"
		c := newChecker(t, mock, Config{})
		_, err := c.Check(context.Background(), server.URL)
		if _, ok := errdefs.IsEmptyResponseError(err); !ok {
			t.Fatalf("Check() error = %v, want EmptyResponseError", err)
		}
	})

	t.Run("vendor failure is not retried", func(t *testing.T) {
		server := pageServer(t, `<p>text</p>`)
		mock := providers.NewMockClient()
		mock.SendErr = errors.New("vendor down")
		c := newChecker(t, mock, Config{})
		if _, err := c.Check(context.Background(), server.URL); err == nil {
			t.Fatal("expected error")
		}
		if mock.SendCount() != 1 {
			t.Errorf("SendCount() = %d, want 1", mock.SendCount())
		}
	})

	t.Run("missing client source", func(t *testing.T) {
		_, err := New(Config{Extractor: crawler.New(crawler.Config{})})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestChecker_UserTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.tmpl")
	if err := os.WriteFile(path, []byte("REVIEW:\n{{.Text}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolver := prompts.NewResolver(nil)
	verdict.RegisterPrompts(resolver)
	if err := resolver.SetOverride(verdict.UserKey, path); err != nil {
		t.Fatalf("SetOverride() error = %v", err)
	}

	server := pageServer(t, `<p>short body</p>`)
	c := newChecker(t, providers.NewMockClient(), Config{Prompts: resolver})
	result, err := c.Check(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.InputMsg != "REVIEW:\nshort body" {
		t.Errorf("InputMsg = %q", result.InputMsg)
	}
}

func TestResultJSON(t *testing.T) {
	data, err := json.Marshal(providers.Result{Model: "m", Provider: providers.Anthropic, IsCompliant: true, Reasoning: "r", ConfidenceScore: 0.5, InputMsg: "i"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"model":"m","llm_provider":"anthropic","is_compliant":true,"reasoning":"r","confidence_score":0.5,"input_msg":"i"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
