package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jackzampolin/comply/internal/svcctx"
)

func TestServer_Lifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv, err := New(Config{Host: "127.0.0.1", Port: "0", Services: &svcctx.Services{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.IsRunning() {
		t.Fatal("server should not be running before Start")
	}

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := waitForRunning(ctx, srv, 5*time.Second); err != nil {
		t.Fatal(err)
	}
	baseURL := "http://" + srv.Addr()
	if err := waitForServer(ctx, baseURL, 5*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}

	t.Run("double start", func(t *testing.T) {
		if err := srv.Start(ctx); err == nil {
			t.Error("second Start() should return error")
		}
	})

	serverCancel()

	select {
	case err := <-serverErr:
		if err != nil {
			t.Errorf("Start() returned %v after cancellation", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not respond to context cancellation")
	}
	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func TestServer_StartPortInUse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first, err := New(Config{Port: "0", Services: &svcctx.Services{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	go first.Start(ctx)
	if err := waitForRunning(ctx, first, 5*time.Second); err != nil {
		t.Fatal(err)
	}

	_, port, _ := net.SplitHostPort(first.Addr())
	second, err := New(Config{Port: port, Services: &svcctx.Services{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Error("expected listen error on a busy port")
	}
	if second.IsRunning() {
		t.Error("failed server should not report running")
	}
}

// waitForRunning polls until Start has bound its listener.
func waitForRunning(ctx context.Context, srv *Server, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if srv.IsRunning() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return fmt.Errorf("server not running after %s", timeout)
}

// waitForServer polls the server until it responds or timeout.
func waitForServer(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return fmt.Errorf("server not ready after %s", timeout)
}
