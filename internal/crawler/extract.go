package crawler

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// ExtractHTML parses markup and returns the page title and flattened body.
//
// Paragraphs, list items and h1-h6 headings are emitted in document order,
// one per line. Headings are wrapped as "\n## text\n". An element nested in
// another matched element is emitted on its own as well.
func ExtractHTML(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped(n.DataAtom) {
				return
			}
			if level := headingLevel(n.DataAtom); level > 0 {
				if text := collectText(n); text != "" {
					blocks = append(blocks, "\n"+strings.Repeat("#", level)+" "+text+"\n")
				}
			} else if n.DataAtom == atom.P || n.DataAtom == atom.Li {
				if text := collectText(n); text != "" {
					blocks = append(blocks, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return &Page{
		Body:  strings.Join(blocks, "\n"),
		Title: findTitle(doc),
	}, nil
}

// findTitle returns the text of the first <title> element, or "".
func findTitle(doc *html.Node) string {
	if n := findFirst(doc, atom.Title); n != nil {
		return collectText(n)
	}
	return ""
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collectText joins the trimmed text nodes of a subtree with single spaces.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode && skipped(n.DataAtom) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return norm.NFC.String(sb.String())
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func skipped(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}
