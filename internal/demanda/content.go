package demanda

import "strings"

// ContentKind distinguishes the two shapes a segmented section can take.
type ContentKind int

const (
	// PlainText marks a section whose body is free-running prose.
	PlainText ContentKind = iota
	// FieldMap marks a section whose body is "Key: value" lines.
	FieldMap
)

// SectionContent is the parsed body of one section: either plain text or a
// map of labeled fields, never both.
type SectionContent struct {
	Kind   ContentKind
	Text   string
	Fields map[string]string
}

// ParseSections segments text and parses each section body. A body where at
// least one line contains a colon becomes a FieldMap (one entry per such
// line, first colon splits, both sides trimmed); otherwise the body stays
// PlainText.
func ParseSections(text string) map[Section]SectionContent {
	out := make(map[Section]SectionContent)
	for section, body := range Segment(text) {
		fields := parseFieldLines(body)
		if len(fields) > 0 {
			out[section] = SectionContent{Kind: FieldMap, Fields: fields}
		} else {
			out[section] = SectionContent{Kind: PlainText, Text: body}
		}
	}
	return out
}

func parseFieldLines(body string) map[string]string {
	var fields map[string]string
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}
