package scrape

// Locator is one step in a field's ordered fallback chain. Exactly one of Selector
// or Heuristic is set. Selectors resolve to the first matching element in document
// order; heuristics are looked up by name.
type Locator struct {
	Selector  string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Heuristic string `json:"heuristic,omitempty" yaml:"heuristic,omitempty"`
	// MinLength rejects title/company matches shorter than this many characters.
	MinLength int `json:"min_length,omitempty" yaml:"min_length,omitempty"`
}

// Name identifies the locator in trace lines.
func (l Locator) Name() string {
	if l.Heuristic != "" {
		return "heuristic:" + l.Heuristic
	}
	return l.Selector
}

// LocatorSpec holds the ordered locator chains of one platform.
type LocatorSpec struct {
	Title       []Locator `json:"title,omitempty" yaml:"title,omitempty"`
	Company     []Locator `json:"company,omitempty" yaml:"company,omitempty"`
	Description []Locator `json:"description,omitempty" yaml:"description,omitempty"`
	// DescriptionMarker is a heading stripped from the start of description text.
	DescriptionMarker string `json:"description_marker,omitempty" yaml:"description_marker,omitempty"`
}

// For returns the chain for a field.
func (s LocatorSpec) For(f Field) []Locator {
	switch f {
	case FieldTitle:
		return s.Title
	case FieldCompany:
		return s.Company
	case FieldDescription:
		return s.Description
	}
	return nil
}

// Heuristic names understood by the extractor.
const (
	HeuristicAboutTheJob = "about-the-job"
	HeuristicCompanyLink = "company-link"
)

// AboutTheJobMarker is the heading LinkedIn places above every job description.
const AboutTheJobMarker = "About the job"

func selectors(minLength int, sels ...string) []Locator {
	out := make([]Locator, 0, len(sels))
	for _, s := range sels {
		out = append(out, Locator{Selector: s, MinLength: minLength})
	}
	return out
}

// DefaultLocators returns the built-in locator tables. Order within each chain is
// significant: current structural markup first, generic tags last. A fresh map is
// returned on every call so callers may extend it.
func DefaultLocators() map[Platform]LocatorSpec {
	return map[Platform]LocatorSpec{
		PlatformLinkedIn: {
			Title: selectors(0,
				".job-details-jobs-unified-top-card__job-title",
				".jobs-unified-top-card__job-title",
				"h1.t-24",
				"h1",
				".top-card-layout__title",
			),
			// Single-character matches are logo or icon links.
			Company: append(selectors(2,
				".job-details-jobs-unified-top-card__company-name",
				".jobs-unified-top-card__company-name",
				".jobs-unified-top-card__subtitle-primary-grouping a",
				".job-details-jobs-unified-top-card__primary-description a",
				"[class*='company-name']",
				".topcard__org-name-link",
			), Locator{Heuristic: HeuristicCompanyLink, MinLength: 2}),
			Description: append(selectors(0,
				"#job-details",
				".jobs-description__content",
				".jobs-box__html-content",
				".jobs-description-content__text",
				"#job-details span",
				".description__text",
				"div.jobs-description",
			), Locator{Heuristic: HeuristicAboutTheJob}),
			DescriptionMarker: AboutTheJobMarker,
		},
		PlatformIndeed: {
			Title: selectors(0,
				".jobsearch-JobInfoHeader-title",
				"[data-testid='jobsearch-JobInfoHeader-title']",
				"h1",
			),
			Company: selectors(0,
				"[data-company-name='true']",
				"[data-testid='inlineHeader-companyName']",
				".jobsearch-CompanyInfoContainer a",
				"div[class*='companyName']",
			),
			Description: selectors(0,
				"#jobDescriptionText",
				".jobsearch-JobComponent-description",
			),
		},
		PlatformNaukri: {
			Title: selectors(0,
				".jd-header-title",
				"h1.jd-header-title",
				"h1",
				".styles_jd-header-title__rZwM1",
			),
			Company: selectors(0,
				".jd-header-comp-name a",
				".jd-header-comp-name",
				"div.company-name",
				".styles_jd-header-comp-name__MvqAI a",
			),
			Description: selectors(0,
				".job-desc",
				".dang-inner-html",
				".styles_job-desc-container__txpYf",
				"#job-description",
			),
		},
	}
}
