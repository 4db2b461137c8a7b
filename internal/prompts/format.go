package prompts

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const (
	// BannerWidth is the total width of the centered title line.
	BannerWidth = 100
	// WrapWidth is the maximum display width of a wrapped body line.
	WrapWidth = 80

	tabSize = 8
)

// Format joins a page title and body into the user-turn text sent to the model.
// A non-empty title becomes a banner line; the body is wrapped to WrapWidth.
func Format(body, title string) string {
	wrapped := Wrap(body, WrapWidth)
	if title == "" {
		return wrapped
	}
	return Banner("Title: "+title, BannerWidth, '=') + "\n" + wrapped
}

// Banner centers s in a line of n runes filled with fill. When the padding
// is odd the extra fill rune goes on the right. s is returned unchanged when
// it is already n runes or longer.
func Banner(s string, n int, fill rune) string {
	pad := n - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	f := string(fill)
	return strings.Repeat(f, left) + s + strings.Repeat(f, pad-left)
}

// Wrap word-wraps text so that no line is wider than w display columns.
//
// Words are never split: a word wider than w gets a line of its own.
// Whitespace inside a line is kept as written, newlines included; whitespace
// falling on a line boundary is dropped. Tabs expand to 8-column stops first.
func Wrap(text string, w int) string {
	chunks := splitChunks(expandTabs(text))
	var lines []string

	for len(chunks) > 0 {
		var line []string
		lineWidth := 0

		if len(lines) > 0 && isSpace(chunks[0]) {
			chunks = chunks[1:]
		}

		for len(chunks) > 0 {
			cw := displayWidth(chunks[0])
			if lineWidth+cw > w {
				break
			}
			line = append(line, chunks[0])
			lineWidth += cw
			chunks = chunks[1:]
		}

		if len(chunks) > 0 && len(line) == 0 && displayWidth(chunks[0]) > w {
			line = append(line, chunks[0])
			chunks = chunks[1:]
		}

		if len(line) > 0 && isSpace(line[len(line)-1]) {
			line = line[:len(line)-1]
		}
		if len(line) > 0 {
			lines = append(lines, strings.Join(line, ""))
		}
	}
	return strings.Join(lines, "\n")
}

// splitChunks splits text into alternating runs of whitespace and non-whitespace.
func splitChunks(text string) []string {
	var chunks []string
	start := 0
	inSpace := false
	for i, r := range text {
		sp := asciiSpace(r)
		if i == 0 {
			inSpace = sp
			continue
		}
		if sp != inSpace {
			chunks = append(chunks, text[start:i])
			start = i
			inSpace = sp
		}
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}

func expandTabs(text string) string {
	if !strings.ContainsRune(text, '\t') {
		return text
	}
	var sb strings.Builder
	col := 0
	for _, r := range text {
		switch r {
		case '\t':
			n := tabSize - col%tabSize
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}

// displayWidth counts terminal columns: wide and fullwidth runes take two,
// combining marks take none.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case width.LookupRune(r).Kind() == width.EastAsianWide, width.LookupRune(r).Kind() == width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func isSpace(chunk string) bool {
	for _, r := range chunk {
		if !asciiSpace(r) {
			return false
		}
	}
	return true
}

func asciiSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
