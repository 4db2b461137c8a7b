package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/check":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Could not validate credentials"}`))
				return
			}
			w.Write([]byte(`{"url":"` + r.URL.Query().Get("url") + `"}`))
		case "/token":
			if err := r.ParseForm(); err != nil || r.PostForm.Get("username") != "alice" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"access_token":"tok"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream down"))
		}
	}))
	defer server.Close()
	ctx := context.Background()

	t.Run("get with token and query", func(t *testing.T) {
		var resp struct{ URL string }
		client := NewClient(server.URL + "/").WithToken("tok")
		if err := client.Get(ctx, "/check", url.Values{"url": {"https://example.com/?a=1"}}, &resp); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if resp.URL != "https://example.com/?a=1" {
			t.Errorf("URL = %q", resp.URL)
		}
	})

	t.Run("json error body", func(t *testing.T) {
		err := NewClient(server.URL).Get(ctx, "/check", nil, nil)
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("Get() error = %v, want *Error", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Could not validate credentials" {
			t.Errorf("error = %+v", apiErr)
		}
	})

	t.Run("plain error body", func(t *testing.T) {
		err := NewClient(server.URL).Get(ctx, "/other", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream down") {
			t.Errorf("Get() error = %v", err)
		}
	})

	t.Run("post form", func(t *testing.T) {
		var resp struct {
			AccessToken string `json:"access_token"`
		}
		form := url.Values{"username": {"alice"}, "password": {"pw"}}
		if err := NewClient(server.URL).PostForm(ctx, "/token", form, &resp); err != nil {
			t.Fatalf("PostForm() error = %v", err)
		}
		if resp.AccessToken != "tok" {
			t.Errorf("AccessToken = %q", resp.AccessToken)
		}
	})
}

func TestOutputTo(t *testing.T) {
	data := map[string]any{"is_compliant": true}

	tests := []struct {
		format OutputFormat
		want   string
	}{
		{format: OutputFormatJSON, want: "{\n  \"is_compliant\": true\n}\n"},
		{format: OutputFormatYAML, want: "is_compliant: true\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := OutputTo(&buf, tt.format, data); err != nil {
				t.Fatalf("OutputTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("OutputTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := OutputTo(&bytes.Buffer{}, "xml", data); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	if err := SetOutputFormat("json"); err != nil || GetOutputFormat() != OutputFormatJSON {
		t.Errorf("SetOutputFormat(json) = %v, format %s", err, GetOutputFormat())
	}
	if err := SetOutputFormat("toml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if GetOutputFormat() != DefaultOutput {
		t.Errorf("format after bad value = %s", GetOutputFormat())
	}
}
