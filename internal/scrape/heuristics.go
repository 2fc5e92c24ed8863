package scrape

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// heuristicFunc returns raw field text, or "" when the heuristic finds nothing.
type heuristicFunc func(x *extraction, loc Locator, spec LocatorSpec) string

var heuristics = map[string]heuristicFunc{
	HeuristicAboutTheJob: aboutTheJob,
	HeuristicCompanyLink: companyLink,
}

// blockSelector lists the containers scanned by the about-the-job heuristic.
const blockSelector = "div, section, article, main"

// aboutTheJob accepts the first block, in document order, that carries the
// description marker and is long enough to be a real description card.
func aboutTheJob(x *extraction, _ Locator, spec LocatorSpec) string {
	marker := spec.DescriptionMarker
	if marker == "" {
		marker = AboutTheJobMarker
	}
	var found string
	x.doc.Find(blockSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		if !strings.Contains(raw, marker) || utf8.RuneCountInString(raw) <= x.opts.HeuristicBlockLength {
			return true
		}
		found = stripMarker(InnerText(s), marker)
		return false
	})
	return found
}

// companyLink takes the first anchor pointing at a company profile page. Job
// boards link employer names this way regardless of visual redesigns.
func companyLink(x *extraction, loc Locator, _ LocatorSpec) string {
	minLen := max(loc.MinLength, 1)
	var found string
	x.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/company/") {
			return true
		}
		text := TextContent(s)
		if utf8.RuneCountInString(text) < minLen {
			return true
		}
		found = text
		return false
	})
	return found
}

// stripMarker removes a leading marker (case-insensitive) and the whitespace after it.
func stripMarker(text, marker string) string {
	if marker == "" || len(text) < len(marker) || !strings.EqualFold(text[:len(marker)], marker) {
		return text
	}
	return strings.TrimLeftFunc(text[len(marker):], unicode.IsSpace)
}
