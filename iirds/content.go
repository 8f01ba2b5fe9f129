package iirds

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// elements whose text is never user-visible
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// extractText pulls the human-visible text out of an XHTML rendition,
// collapsing runs of whitespace to single spaces.
func extractText(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(strings.Join(strings.Fields(text), " "))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return sb.String(), nil
}

// hasTextExtension reports whether a rendition path points at a content type
// we can extract text from.
func hasTextExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".xhtml", ".html", ".htm", ".txt"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
