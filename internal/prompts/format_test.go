package prompts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBanner(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		left  int
		right int
	}{
		{"even padding", "Title: Example!", 42, 43},
		{"odd padding", "Title: Example", 43, 43},
		{"single rune", "x", 49, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Banner(tt.in, BannerWidth, '=')
			if n := utf8.RuneCountInString(got); n != BannerWidth {
				t.Fatalf("len = %d, want %d", n, BannerWidth)
			}
			want := strings.Repeat("=", tt.left) + tt.in + strings.Repeat("=", tt.right)
			if got != want {
				t.Errorf("Banner() = %q, want %q", got, want)
			}
		})
	}

	t.Run("too long is unpadded", func(t *testing.T) {
		long := strings.Repeat("t", 120)
		if got := Banner(long, BannerWidth, '='); got != long {
			t.Errorf("Banner() = %q", got)
		}
	})
}

func TestFormat(t *testing.T) {
	t.Run("title banner first", func(t *testing.T) {
		out := Format("Hello world", "Example")
		lines := strings.Split(out, "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
		}
		if utf8.RuneCountInString(lines[0]) != 100 {
			t.Errorf("banner length = %d, want 100", utf8.RuneCountInString(lines[0]))
		}
		if !strings.Contains(lines[0], "Title: Example") {
			t.Errorf("banner = %q", lines[0])
		}
		if strings.Trim(lines[0], "=") != "Title: Example" {
			t.Errorf("banner should be only = fill around the title: %q", lines[0])
		}
		if lines[1] != "Hello world" {
			t.Errorf("body = %q", lines[1])
		}
	})

	t.Run("no title no banner", func(t *testing.T) {
		out := Format("Hello world", "")
		if out != "Hello world" {
			t.Errorf("Format() = %q", out)
		}
		if strings.Contains(out, "Title:") {
			t.Error("unexpected banner")
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		if got := Wrap("Hello world", 80); got != "Hello world" {
			t.Errorf("Wrap() = %q", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := Wrap("", 80); got != "" {
			t.Errorf("Wrap() = %q", got)
		}
	})

	t.Run("wraps at width", func(t *testing.T) {
		text := strings.Repeat("word ", 40)
		got := Wrap(text, 80)
		for i, line := range strings.Split(got, "\n") {
			if displayWidth(line) > 80 {
				t.Errorf("line %d too wide (%d): %q", i, displayWidth(line), line)
			}
			if strings.HasPrefix(line, " ") || strings.HasSuffix(line, " ") {
				t.Errorf("line %d keeps boundary whitespace: %q", i, line)
			}
		}
		if strings.Join(strings.Fields(got), " ") != strings.TrimSpace(text) {
			t.Error("words changed by wrapping")
		}
	})

	t.Run("long word not split", func(t *testing.T) {
		long := strings.Repeat("x", 95)
		got := Wrap("short "+long+" tail", 80)
		want := "short\n" + long + "\ntail"
		if got != want {
			t.Errorf("Wrap() = %q, want %q", got, want)
		}
	})

	t.Run("blank lines preserved", func(t *testing.T) {
		text := "first paragraph\n\nsecond paragraph"
		if got := Wrap(text, 80); got != text {
			t.Errorf("Wrap() = %q, want %q", got, text)
		}
	})

	t.Run("heading markers kept", func(t *testing.T) {
		text := "\n# Top\n\nintro"
		if got := Wrap(text, 80); got != text {
			t.Errorf("Wrap() = %q, want %q", got, text)
		}
	})

	t.Run("wide runes count double", func(t *testing.T) {
		word := strings.Repeat("漢", 30)
		got := Wrap(word+" "+word, 80)
		if got != word+"\n"+word {
			t.Errorf("Wrap() = %q", got)
		}
	})

	t.Run("tabs expand", func(t *testing.T) {
		if got := Wrap("a\tb", 80); got != "a       b" {
			t.Errorf("Wrap() = %q", got)
		}
	})
}

func TestWrap_Properties(t *testing.T) {
	inputs := []string{
		strings.Repeat("lorem ipsum dolor sit amet ", 50),
		"para\n\n" + strings.Repeat("abcdefghij ", 30) + "\n### heading\n" + strings.Repeat("z", 200),
		strings.Repeat("a ", 200),
	}
	for _, in := range inputs {
		out := Wrap(in, WrapWidth)
		if strings.Join(strings.Fields(out), " ") != strings.Join(strings.Fields(in), " ") {
			t.Errorf("words changed: %q", out)
		}
		for _, line := range strings.Split(out, "\n") {
			if displayWidth(line) > WrapWidth && len(strings.Fields(line)) > 1 {
				t.Errorf("line exceeds %d columns with more than one word: %q", WrapWidth, line)
			}
		}
	}
}
