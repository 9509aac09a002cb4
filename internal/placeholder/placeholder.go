// Package placeholder discovers and fills the fill-in tokens of legal demand
// templates. Two syntaxes exist: bracket tokens like [NOMBRE] used by demand
// templates, and double-brace tokens like {{NOMBRE}} produced by LLM
// anonymization. A single document uses one syntax or the other.
package placeholder

import (
	"regexp"
	"strings"

	"github.com/mvillagomez/demandas/internal/textnorm"
)

// Syntax selects which token form Discover scans for.
type Syntax int

const (
	Bracket Syntax = iota
	Brace
)

var (
	bracketToken = regexp.MustCompile(`\[([^\]]+)\]`)
	braceToken   = regexp.MustCompile(`\{\{([^}]+)\}\}`)

	innerSpace    = regexp.MustCompile(`\s+`)
	trailingPunct = regexp.MustCompile(`[._-]+$`)

	// Paper-form blanks: runs of dots or underscores standing in for a value.
	dottedBlank = regexp.MustCompile(`(?:\.{3,}|_{5,})`)
)

// Normalize returns the canonical placeholder name: internal whitespace
// collapsed to single spaces, trailing dot/underscore/dash runs stripped,
// uppercased. Distinct raw spellings that normalize equally are the same
// placeholder.
func Normalize(name string) string {
	name = strings.TrimSpace(innerSpace.ReplaceAllString(name, " "))
	name = trailingPunct.ReplaceAllString(name, "")
	return strings.ToUpper(name)
}

// Discover returns the unique placeholder names in text for the given syntax,
// in order of first appearance. Names that are empty after normalization are
// skipped.
func Discover(text string, syntax Syntax) []string {
	re := bracketToken
	if syntax == Brace {
		re = braceToken
	}
	seen := make(map[string]bool)
	var names []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		name := Normalize(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Fill substitutes bracket placeholders in text using values. A token [NAME]
// resolves through three keys in order: the raw name as written, its
// uppercase form, and its uppercased slug. Tokens with no non-empty value
// stay as [NAME], so a later pass can still resolve them.
func Fill(text string, values map[string]string) string {
	if len(values) == 0 {
		return text
	}
	return bracketToken.ReplaceAllStringFunc(text, func(token string) string {
		raw := token[1 : len(token)-1]
		if v := values[raw]; v != "" {
			return v
		}
		if v := values[strings.ToUpper(raw)]; v != "" {
			return v
		}
		if v := values[strings.ToUpper(textnorm.Slugify(raw))]; v != "" {
			return v
		}
		return token
	})
}

// FillDottedBlanks replaces runs of three or more dots, or five or more
// underscores, with successive elements of values. Once values run out the
// remaining blanks are left as they are. Bracket tokens are unaffected.
func FillDottedBlanks(text string, values []string) string {
	next := 0
	return dottedBlank.ReplaceAllStringFunc(text, func(blank string) string {
		if next >= len(values) {
			return blank
		}
		v := values[next]
		next++
		return v
	})
}
