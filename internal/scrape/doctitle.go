package scrape

import "strings"

// TitleParts is the result of decomposing a document title.
type TitleParts struct {
	Title   string
	Company string
	// Separator is the token the title was split on, empty when none matched.
	Separator string
	// Rejected holds a company candidate dropped by the brand denylist.
	Rejected string
}

// DecomposeTitle splits a "<Job Title><sep><Company>..." document title. The first
// separator present wins and only its first occurrence is used, so later repeats
// (location suffixes and the like) stay out of the title. Without a separator the
// whole title is returned.
func DecomposeTitle(docTitle string, separators, denylist []string) TitleParts {
	for _, sep := range separators {
		if sep == "" || !strings.Contains(docTitle, sep) {
			continue
		}
		parts := strings.Split(docTitle, sep)
		tp := TitleParts{
			Title:     strings.TrimSpace(parts[0]),
			Separator: sep,
		}
		candidate := strings.TrimSpace(parts[1])
		if candidate != "" {
			if containsAny(candidate, denylist) {
				tp.Rejected = candidate
			} else {
				tp.Company = candidate
			}
		}
		return tp
	}
	return TitleParts{Title: strings.TrimSpace(docTitle)}
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
