// Package textnorm provides the text-cleanup primitives shared by the
// segmentation, placeholder, and indexing packages: whitespace normalization
// for extracted document text, control-character stripping for export paths,
// and slug derivation for stable identifiers.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceBeforeBreak = regexp.MustCompile(`[ \t]+\n`)
	spaceAfterBreak  = regexp.MustCompile(`\n[ \t]+`)
	runsOfSpace      = regexp.MustCompile(`[ \t]{2,}`)
	runsOfBlankLines = regexp.MustCompile(`\n{3,}`)

	// C0 and C1 control ranges minus TAB, LF and CR. Structured output
	// formats (DOCX/XML) reject these, and PDF extraction produces them.
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)

	nonSlugRuns = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeWhitespace collapses stray horizontal whitespace around line
// breaks, runs of spaces, and runs of blank lines, then trims the result.
func NormalizeWhitespace(text string) string {
	text = spaceBeforeBreak.ReplaceAllString(text, "\n")
	text = spaceAfterBreak.ReplaceAllString(text, "\n")
	text = runsOfSpace.ReplaceAllString(text, " ")
	text = runsOfBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripControlChars removes C0/C1 control characters, keeping TAB, LF and CR.
// Every user-facing export path must pass through here first.
func StripControlChars(text string) string {
	return controlChars.ReplaceAllString(text, "")
}

// Slugify lowercases text, strips diacritics, and squeezes everything that is
// not [a-z0-9] into single underscores. Idempotent.
func Slugify(text string) string {
	text = stripAccents(strings.ToLower(text))
	text = nonSlugRuns.ReplaceAllString(text, "_")
	return strings.Trim(text, "_")
}

// Fold lowercases text and strips diacritics. Used for accent- and
// case-insensitive comparisons in article search.
func Fold(text string) string {
	return stripAccents(strings.ToLower(text))
}

// TitleCase uppercases the first letter of each word and lowercases the rest,
// with Spanish casing rules. Used for person names and form labels.
func TitleCase(text string) string {
	return cases.Title(language.Spanish).String(text)
}

func stripAccents(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
