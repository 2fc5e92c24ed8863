package scrape

// Empirically tuned thresholds. They are overridable through Options.
const (
	// DefaultMinDescriptionLength is the shortest description a locator may return.
	// Shorter matches are placeholder containers whose content has not loaded yet.
	DefaultMinDescriptionLength = 50
	// DefaultHeuristicBlockLength is the text length a block must exceed to be taken
	// as the description by the about-the-job heuristic.
	DefaultHeuristicBlockLength = 200
	// DefaultBodyTextLimit caps the body text used as a generic description.
	DefaultBodyTextLimit = 500
)

// DefaultBrandDenylist holds site-brand tokens that are never accepted as a company
// taken from the document title. Matching is a case-sensitive substring test.
var DefaultBrandDenylist = []string{"LinkedIn", "Indeed", "Naukri", "Job", "Work"}

// DefaultTitleSeparators are tried in order against the document title.
var DefaultTitleSeparators = []string{" | ", " at ", " - ", " – ", " — "}

// Options tunes a single extraction call.
type Options struct {
	// Trace records which strategy resolved each field.
	Trace bool

	MinDescriptionLength int
	HeuristicBlockLength int
	BodyTextLimit        int

	BrandDenylist   []string
	TitleSeparators []string

	// Locators replaces the built-in tables when non-nil.
	Locators map[Platform]LocatorSpec
}

// DefaultOptions returns options with every threshold at its default and tracing off.
func DefaultOptions() *Options {
	return &Options{
		MinDescriptionLength: DefaultMinDescriptionLength,
		HeuristicBlockLength: DefaultHeuristicBlockLength,
		BodyTextLimit:        DefaultBodyTextLimit,
		BrandDenylist:        DefaultBrandDenylist,
		TitleSeparators:      DefaultTitleSeparators,
	}
}

// resolved fills unset fields with defaults without mutating o.
func (o *Options) resolved() Options {
	if o == nil {
		return *DefaultOptions()
	}
	out := *o
	if out.MinDescriptionLength <= 0 {
		out.MinDescriptionLength = DefaultMinDescriptionLength
	}
	if out.HeuristicBlockLength <= 0 {
		out.HeuristicBlockLength = DefaultHeuristicBlockLength
	}
	if out.BodyTextLimit <= 0 {
		out.BodyTextLimit = DefaultBodyTextLimit
	}
	if out.BrandDenylist == nil {
		out.BrandDenylist = DefaultBrandDenylist
	}
	if out.TitleSeparators == nil {
		out.TitleSeparators = DefaultTitleSeparators
	}
	if out.Locators == nil {
		out.Locators = DefaultLocators()
	}
	return out
}
