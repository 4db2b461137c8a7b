package prompts

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("Hello {{.Name}}, you have {{ .Count }} items from {{.Name}}")
	want := []string{"Count", "Name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVariables() = %v, want %v", got, want)
	}
}

func TestRender(t *testing.T) {
	t.Run("renders data", func(t *testing.T) {
		got, err := Render("k", "text: {{.Text}}", struct{ Text string }{"hi {{.X}}"})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if got != "text: hi {{.X}}" {
			t.Errorf("Render() = %q", got)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, err := Render("k", "{{.Missing}}", map[string]string{}); err == nil {
			t.Error("expected error for missing key")
		}
	})
}

func TestResolver(t *testing.T) {
	r := NewResolver(nil)
	r.Register(EmbeddedPrompt{Key: "test.system", Text: "embedded {{.Text}}"})

	t.Run("embedded default", func(t *testing.T) {
		p, err := r.Resolve("test.system")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.IsOverride {
			t.Error("expected embedded prompt")
		}
		if p.Hash != HashText("embedded {{.Text}}") {
			t.Errorf("Hash = %s", p.Hash)
		}
		if !reflect.DeepEqual(p.Variables, []string{"Text"}) {
			t.Errorf("Variables = %v", p.Variables)
		}
	})

	t.Run("file override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "system.txt")
		if err := os.WriteFile(path, []byte("from disk"), 0o644); err != nil {
			t.Fatalf("failed to write override: %v", err)
		}
		if err := r.SetOverride("test.system", path); err != nil {
			t.Fatalf("SetOverride() error = %v", err)
		}
		p, err := r.Resolve("test.system")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !p.IsOverride || p.Text != "from disk" || p.Source != path {
			t.Errorf("Resolve() = %+v", p)
		}

		if err := r.SetOverride("test.system", ""); err != nil {
			t.Fatalf("SetOverride(clear) error = %v", err)
		}
		p, _ = r.Resolve("test.system")
		if p.IsOverride {
			t.Error("override should be cleared")
		}
	})

	t.Run("override file missing", func(t *testing.T) {
		if err := r.SetOverride("test.system", filepath.Join(t.TempDir(), "gone.txt")); err != nil {
			t.Fatalf("SetOverride() error = %v", err)
		}
		defer r.SetOverride("test.system", "")
		if _, err := r.Resolve("test.system"); err == nil {
			t.Error("expected error for missing override file")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := r.Resolve("nope"); err == nil {
			t.Error("expected error")
		}
		if err := r.SetOverride("nope", "x"); err == nil {
			t.Error("expected error")
		}
	})

	if got := len(r.AllEmbedded()); got != 1 {
		t.Errorf("AllEmbedded() = %d prompts, want 1", got)
	}
}
