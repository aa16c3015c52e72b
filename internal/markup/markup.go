// Package markup extracts plain text and metadata from exported article HTML.
package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document holds everything extracted from one article's HTML file.
type Document struct {
	Title       string
	Subtitle    string
	Description string
	Text        string
	Tags        []string
}

// Elements removed entirely, including their text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"head":     true,
}

// Elements that end a paragraph in the extracted text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"header": true, "footer": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true,
	"figure": true, "figcaption": true, "table": true, "tr": true,
	"br": true, "hr": true,
}

// Parse extracts text and metadata from raw article HTML.
func Parse(data []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	d := &Document{}
	d.Title = elementText(root, "h1")
	if d.Title == "" {
		d.Title = titleTagText(root)
	}
	d.Subtitle = classText(root, "p-summary")
	if d.Subtitle == "" {
		d.Subtitle = classText(root, "graf--subtitle")
	}
	d.Description = metaContent(root, "description")
	if d.Description == "" {
		d.Description = d.Subtitle
	}
	d.Tags = extractTags(root)
	d.Text = extractText(root)
	return d, nil
}

// extractText returns the article body as plain text: one line per block
// element, intra-line whitespace collapsed, script/style content dropped.
func extractText(root *html.Node) string {
	content := contentRoot(root)

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			sb.WriteString("\n")
		}
	}
	walk(content)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}

// contentRoot picks the most specific content container the exporter emits:
// <article>, then the e-content/postArticle-content wrappers, then <main>,
// then <body>, then the document itself.
func contentRoot(root *html.Node) *html.Node {
	if n := findElement(root, "article"); n != nil {
		return n
	}
	for _, class := range []string{"e-content", "postArticle-content"} {
		if n := findClass(root, class); n != nil {
			return n
		}
	}
	if n := findElement(root, "main"); n != nil {
		return n
	}
	if n := findElement(root, "body"); n != nil {
		return n
	}
	return root
}

// elementText returns the collapsed text of the first element with the given
// tag, searching the whole document.
func elementText(root *html.Node, tag string) string {
	n := findElement(root, tag)
	if n == nil {
		return ""
	}
	return collapsedText(n)
}

// titleTagText reads <title> from the document head.
func titleTagText(root *html.Node) string {
	n := findElement(root, "title")
	if n == nil || n.FirstChild == nil || n.FirstChild.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(n.FirstChild.Data)
}

// classText returns the collapsed text of the first element carrying the
// given class.
func classText(root *html.Node, class string) string {
	n := findClass(root, class)
	if n == nil {
		return ""
	}
	return collapsedText(n)
}

// metaContent returns the content attribute of <meta name="...">.
func metaContent(root *html.Node, name string) string {
	var out string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if out != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var matched bool
			var content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					matched = attr.Val == name
				case "content":
					content = attr.Val
				}
			}
			if matched && content != "" {
				out = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// extractTags collects the exporter's tag anchors (class "p-tag") and any
// meta keywords, deduplicated case-insensitively in document order.
func extractTags(root *html.Node) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "p-tag") {
			add(collapsedText(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if kw := metaContent(root, "keywords"); kw != "" {
		for _, tag := range strings.Split(kw, ",") {
			add(tag)
		}
	}
	return out
}

func findElement(root *html.Node, tag string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func findClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, class) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// collapsedText returns the node's descendant text with whitespace collapsed
// to single spaces, skipping non-content elements.
func collapsedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
