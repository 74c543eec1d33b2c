package gliffy

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// TextContent extracts the readable text of a node. A direct text field
// wins; otherwise the graphic's HTML fragment is parsed, markup is
// stripped, and the result is collapsed to non-empty trimmed lines joined
// by newlines. Line breaks between block elements are preserved, intra-line
// whitespace is trimmed.
func TextContent(n *Node) string {
	if n.Text != "" {
		return n.Text
	}
	if n.Graphic == nil || n.Graphic.Text == nil || n.Graphic.Text.HTML == "" {
		return ""
	}
	return stripHTML(n.Graphic.Text.HTML)
}

// stripHTML flattens an HTML fragment into newline-separated text lines.
func stripHTML(fragment string) string {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		// Not parseable as HTML at all; treat the raw string as one line.
		return strings.TrimSpace(fragment)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			parts = append(parts, node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		// Block-ish elements and explicit breaks separate lines.
		if node.Type == html.ElementNode {
			switch node.Data {
			case "br", "p", "div", "li", "tr":
				parts = append(parts, "\n")
			}
		}
	}
	walk(root)

	var lines []string
	for _, raw := range strings.Split(strings.Join(parts, ""), "\n") {
		if line := strings.Join(strings.Fields(raw), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

var fontSizeRe = regexp.MustCompile(`(?i)font-size:\s*(\d+(?:\.\d+)?)\s*px`)

// FontSize scans a node's text HTML for an inline font-size declaration and
// returns it in pixels, or def when none is found. Style attributes on tags
// are checked first; if none carry a size, the raw fragment is scanned for
// the first px value anywhere. Gliffy exports have been observed to place
// the declaration outside style attributes, so the raw scan is intentional.
func FontSize(n *Node, def int) int {
	if n.Graphic == nil || n.Graphic.Text == nil || n.Graphic.Text.HTML == "" {
		return def
	}
	fragment := n.Graphic.Text.HTML

	if root, err := html.Parse(strings.NewReader(fragment)); err == nil {
		if size, ok := fontSizeFromTags(root); ok {
			return size
		}
	}
	if m := fontSizeRe.FindStringSubmatch(fragment); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(f)
		}
	}
	return def
}

func fontSizeFromTags(node *html.Node) (int, bool) {
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Key != "style" {
				continue
			}
			if m := fontSizeRe.FindStringSubmatch(attr.Val); m != nil {
				if f, err := strconv.ParseFloat(m[1], 64); err == nil {
					return int(f), true
				}
			}
		}
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if size, ok := fontSizeFromTags(c); ok {
			return size, true
		}
	}
	return 0, false
}
