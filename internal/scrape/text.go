package scrape

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var skippedTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "iframe": true, "svg": true,
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true, "caption": true, "details": true, "summary": true,
}

// paragraphTags are set off by a blank line on both sides.
var paragraphTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// InnerText renders the visible text of a selection roughly the way a browser's
// innerText does: block elements break lines, whitespace runs collapse, and
// script-like or hidden elements are skipped.
func InnerText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		renderText(&b, n, false)
	}
	return normalizeLines(b.String())
}

// TextContent returns the trimmed concatenated text of the selection.
func TextContent(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func renderText(b *strings.Builder, n *html.Node, inPre bool) {
	tag := ""
	switch n.Type {
	case html.TextNode:
		if inPre {
			b.WriteString(n.Data)
		} else {
			b.WriteString(collapseSpaces(n.Data))
		}
		return
	case html.ElementNode:
		tag = strings.ToLower(n.Data)
		if skippedTags[tag] || isHidden(n) {
			return
		}
		switch tag {
		case "br":
			b.WriteByte('\n')
			return
		case "pre":
			inPre = true
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	breaks := 0
	switch {
	case paragraphTags[tag]:
		breaks = 2
	case blockTags[tag]:
		breaks = 1
	}
	breakLines(b, breaks)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c, inPre)
	}
	breakLines(b, breaks)
	if tag == "td" || tag == "th" {
		b.WriteByte('\t')
	}
}

// breakLines makes the rendered text end in at least n line breaks, ignoring
// trailing spaces. Nothing is written before the first visible text.
func breakLines(b *strings.Builder, n int) {
	if n == 0 {
		return
	}
	s := strings.TrimRight(b.String(), " \t")
	if s == "" {
		return
	}
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < n; have++ {
		b.WriteByte('\n')
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

// normalizeLines trims every line and keeps at most one blank line in a row.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// documentTitle mirrors document.title: the first HTML <title>, whitespace
// collapsed. Titles inside inline SVG belong to the SVG namespace and are skipped.
func documentTitle(doc *goquery.Document) string {
	var title string
	doc.Find("title").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Nodes[0].Namespace != "" {
			return true
		}
		title = strings.Join(strings.Fields(s.Text()), " ")
		return false
	})
	return title
}
