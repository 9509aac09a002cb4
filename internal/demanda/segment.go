package demanda

import (
	"regexp"
	"strings"
)

// headingPattern matches an ordinal section heading at the start of a line,
// e.g. "PRIMERO. - DESIGNACIÓN DEL JUZGADOR:", consuming the descriptive
// label through its colon. Only the thirteen canonical ordinals are
// recognized.
var headingPattern = func() *regexp.Regexp {
	words := make([]string, len(Sections))
	for i := range Sections {
		words[i] = regexp.QuoteMeta(ordinalWords[i])
	}
	return regexp.MustCompile(`(?m)^(` + strings.Join(words, "|") + `)\.\s*-.*?:\s*`)
}()

// Segment splits a demand document's text into its canonical sections. Keys
// absent from the result were not present in the input; callers must treat
// absence distinctly from empty content. When the same ordinal heading
// appears more than once (malformed input) the last occurrence wins.
func Segment(text string) map[Section]string {
	matches := headingPattern.FindAllStringSubmatchIndex(text, -1)
	sections := make(map[Section]string, len(matches))
	for i, m := range matches {
		ordinal := text[m[2]:m[3]]
		section, ok := SectionForOrdinal(ordinal)
		if !ok {
			continue
		}
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[section] = strings.TrimSpace(text[m[1]:end])
	}
	return sections
}
