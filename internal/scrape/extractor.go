package scrape

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// extraction carries the state of one Extract call.
type extraction struct {
	doc      *goquery.Document
	platform Platform
	opts     Options
	trace    *trace
}

// ExtractHTML parses an HTML snapshot and extracts a record from it. The only
// error is a document that cannot be parsed at all.
func ExtractHTML(r io.Reader, pageURL string, opts *Options) (*JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return Extract(doc, pageURL, opts), nil
}

// Extract recovers a JobRecord from a parsed document. It never fails: fields that
// no strategy resolves are left empty. The document is only read.
func Extract(doc *goquery.Document, pageURL string, opts *Options) *JobRecord {
	o := opts.resolved()
	rec := &JobRecord{
		URL:      pageURL,
		Platform: Classify(pageURL),
	}
	x := &extraction{
		doc:      doc,
		platform: rec.Platform,
		opts:     o,
		trace:    &trace{enabled: o.Trace},
	}
	x.trace.addf("platform: %s", rec.Platform)

	if doc == nil {
		x.trace.addf("no document to extract from")
		rec.Trace = x.trace.snapshot()
		return rec
	}

	spec := o.Locators[rec.Platform]
	for _, f := range Fields {
		if v := x.resolve(f, spec); v != "" {
			rec.set(f, v)
		}
	}

	if rec.Platform == PlatformUnknown {
		x.genericFallback(rec)
	}
	if rec.Title == "" {
		x.titleFallback(rec)
	}

	for _, f := range rec.Missing() {
		x.trace.addf("%s: not found", f)
	}
	rec.Trace = x.trace.snapshot()
	return rec
}

// resolve walks the field's chain and returns the first accepted value.
func (x *extraction) resolve(f Field, spec LocatorSpec) string {
	for _, loc := range spec.For(f) {
		text, err := x.locate(f, loc, spec)
		if err != nil {
			x.trace.addf("%s: query fault at %s: %v", f, loc.Name(), err)
			continue
		}
		if text == "" {
			x.trace.addf("%s: no match for %s", f, loc.Name())
			continue
		}
		if reason := x.reject(f, loc, text); reason != "" {
			x.trace.addf("%s: rejected %s (%s)", f, loc.Name(), reason)
			continue
		}
		x.trace.addf("%s: found with %s (len: %d)", f, loc.Name(), utf8.RuneCountInString(text))
		return text
	}
	return ""
}

// locate runs one locator. Panics and invalid selectors become errors so a
// single broken step never aborts the call.
func (x *extraction) locate(f Field, loc Locator, spec LocatorSpec) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panic: %v", r)
		}
	}()

	if loc.Heuristic != "" {
		h, ok := heuristics[loc.Heuristic]
		if !ok {
			return "", fmt.Errorf("unknown heuristic %q", loc.Heuristic)
		}
		return strings.TrimSpace(h(x, loc, spec)), nil
	}

	sel, err := cascadia.Compile(loc.Selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector: %w", err)
	}
	match := x.doc.FindMatcher(sel).First()
	if match.Length() == 0 {
		return "", nil
	}
	if f != FieldDescription {
		return TextContent(match), nil
	}
	return stripMarker(InnerText(match), spec.DescriptionMarker), nil
}

// reject explains why a non-empty match is not acceptable, or returns "".
func (x *extraction) reject(f Field, loc Locator, text string) string {
	n := utf8.RuneCountInString(text)
	if f == FieldDescription {
		if n < x.opts.MinDescriptionLength {
			return fmt.Sprintf("len %d below %d", n, x.opts.MinDescriptionLength)
		}
		return ""
	}
	if loc.MinLength > 0 && n < loc.MinLength {
		return fmt.Sprintf("len %d below %d", n, loc.MinLength)
	}
	return ""
}

// genericFallback fills title and description from page metadata when the
// platform has no locator tables.
func (x *extraction) genericFallback(rec *JobRecord) {
	x.trace.addf("using generic fallback")
	if rec.Title == "" {
		if og := x.metaContent(`meta[property="og:title"]`); og != "" {
			rec.Title = og
			x.trace.addf("title: found with og:title")
		} else if dt := documentTitle(x.doc); dt != "" {
			rec.Title = dt
			x.trace.addf("title: found with document title")
		}
	}
	if rec.Description == "" {
		if desc := x.metaContent(`meta[name="description"]`); desc != "" {
			rec.Description = desc
			x.trace.addf("description: found with meta description")
		} else if body := InnerText(x.doc.Find("body")); body != "" {
			rec.Description = strings.TrimSpace(truncateRunes(body, x.opts.BodyTextLimit))
			x.trace.addf("description: found with body text (first %d chars)", x.opts.BodyTextLimit)
		}
	}
}

// titleFallback decomposes the document title into title and company.
func (x *extraction) titleFallback(rec *JobRecord) {
	docTitle := documentTitle(x.doc)
	if docTitle == "" {
		x.trace.addf("title: document title is empty")
		return
	}
	parts := DecomposeTitle(docTitle, x.opts.TitleSeparators, x.opts.BrandDenylist)
	if parts.Separator == "" || parts.Title == "" {
		rec.Title = docTitle
		x.trace.addf("title: used full document title")
		return
	}
	rec.Title = parts.Title
	x.trace.addf("title: found from document title split by %q", parts.Separator)
	if rec.Company != "" {
		return
	}
	switch {
	case parts.Company != "":
		rec.Company = parts.Company
		x.trace.addf("company: found from document title split by %q", parts.Separator)
	case parts.Rejected != "":
		x.trace.addf("company: rejected %q from document title (site brand)", parts.Rejected)
	}
}

func (x *extraction) metaContent(selector string) string {
	content, _ := x.doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
