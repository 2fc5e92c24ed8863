package scrape

import "fmt"

// trace collects diagnostic lines for one extraction call. A disabled trace
// discards everything.
type trace struct {
	enabled bool
	lines   []string
}

func (t *trace) addf(format string, args ...any) {
	if !t.enabled {
		return
	}
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *trace) snapshot() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
