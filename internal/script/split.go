package script

import (
	"regexp"
	"strings"
	"unicode"
)

// delimiterPattern matches a line holding a single "/" and optional
// whitespace other than a newline, Unicode spaces included. It is
// line-anchored so a slash inside a path literal such as '/data' never
// splits a statement.
var delimiterPattern = regexp.MustCompile(`(?m)^[\t\v\f\r \x{85}\p{Z}]*/[\t\v\f\r \x{85}\p{Z}]*$`)

// Fragment is a region of a script between delimiter lines.
type Fragment struct {
	Text string
	// Line is the 1-based script line of the first non-blank character,
	// or of the region start when the region is blank.
	Line int
}

// SplitRaw partitions script on delimiter lines. A script with N delimiter
// lines yields exactly N+1 regions, blank ones included. Delimiter lines
// are not part of any region.
func SplitRaw(script string) []Fragment {
	bounds := delimiterPattern.FindAllStringIndex(script, -1)

	fragments := make([]Fragment, 0, len(bounds)+1)
	start := 0
	for _, b := range bounds {
		fragments = append(fragments, newFragment(script, start, b[0]))
		start = b[1]
	}
	fragments = append(fragments, newFragment(script, start, len(script)))

	return fragments
}

// Split returns the non-blank fragments of script in script order.
func Split(script string) []Fragment {
	var fragments []Fragment
	for _, f := range SplitRaw(script) {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		fragments = append(fragments, f)
	}
	return fragments
}

func newFragment(script string, start, end int) Fragment {
	text := script[start:end]

	// Point the line at the first real character rather than at the
	// newline left behind by the previous delimiter.
	offset := start
	if trimmed := strings.TrimLeftFunc(text, unicode.IsSpace); trimmed != "" {
		offset = end - len(trimmed)
	}

	return Fragment{
		Text: text,
		Line: strings.Count(script[:offset], "\n") + 1,
	}
}
