package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/comply/internal/home"
)

func TestCommandTree(t *testing.T) {
	want := []string{
		"serve", "check", "mcp", "version",
		"api health", "api status", "api token", "api check-compliance", "api prompts", "api prompt",
		"users add", "users list",
		"config init", "config keys", "config get",
	}
	for _, path := range want {
		t.Run(path, func(t *testing.T) {
			cmd, _, err := rootCmd.Find(strings.Fields(path))
			if err != nil {
				t.Fatalf("Find(%s) error = %v", path, err)
			}
			if cmd == rootCmd {
				t.Fatalf("%s not registered", path)
			}
		})
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) error {
		rootCmd.SetArgs(append([]string{"--home", dir, "--env-file", ""}, args...))
		return rootCmd.Execute()
	}
	t.Cleanup(func() {
		homeDir, cfgFile, configForce = "", "", false
	})

	if err := run("config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	h, _ := home.New(dir)
	if !h.ConfigExists() {
		t.Fatalf("expected %s", filepath.Join(dir, home.ConfigFileName))
	}
	if err := run("config", "init"); err == nil {
		t.Error("expected second init to refuse overwrite")
	}
	if err := run("config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	defer func(prev string) { logLevel = prev }(logLevel)

	for _, lvl := range []string{"debug", "info", "WARN", "error"} {
		logLevel = lvl
		if _, err := newLogger(io.Discard); err != nil {
			t.Errorf("newLogger(%s) error = %v", lvl, err)
		}
	}
	logLevel = "loud"
	if _, err := newLogger(io.Discard); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestReadPassword(t *testing.T) {
	if got, err := readPassword("s3cret"); err != nil || got != "s3cret" {
		t.Errorf("readPassword() = %q, %v", got, err)
	}
	if _, err := readPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
