// Package articleindex builds and queries the exact-match index of legal
// articles ("Artículo N" entries) used for precise citation lookup, as
// opposed to semantic retrieval. The index is built once per corpus snapshot
// and is immutable afterwards; Manager handles atomic swap-in of rebuilds.
package articleindex

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mvillagomez/demandas/internal/textnorm"
)

// Document is one corpus document handed in by the caller: extracted text
// plus metadata. Recognized metadata keys: "documento" and "articulo"
// (explicit article identity, skips regex discovery) and "source" (file name
// the text came from).
type Document struct {
	Text     string
	Metadata map[string]string
}

// Entry is one indexed article.
type Entry struct {
	Document      string
	ArticleNumber int
	Text          string
}

// Index is an ordered, immutable collection of article entries.
type Index struct {
	entries []Entry
}

var articleHeading = regexp.MustCompile(`(?i)Art[ií]culo\s+(\d+)\b`)

// Build indexes a corpus snapshot. Documents carrying explicit "documento"
// and "articulo" metadata contribute exactly one entry without any text
// scanning; all others are scanned for "Artículo N" headings, each entry's
// text running from its heading to the next one (or end of text). A
// (document, article) pair already indexed is dropped, first occurrence
// wins.
func Build(docs []Document) *Index {
	ix := &Index{}
	seen := make(map[[2]string]bool)

	for _, doc := range docs {
		meta := doc.Metadata
		if name, num := meta["documento"], meta["articulo"]; name != "" && num != "" {
			key := [2]string{name, num}
			if seen[key] {
				continue
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				continue
			}
			ix.entries = append(ix.entries, Entry{
				Document:      name,
				ArticleNumber: n,
				Text:          strings.TrimSpace(doc.Text),
			})
			seen[key] = true
			continue
		}

		source := meta["source"]
		name := strings.TrimSuffix(source, filepath.Ext(source))

		matches := articleHeading.FindAllStringSubmatchIndex(doc.Text, -1)
		for i, m := range matches {
			num := doc.Text[m[2]:m[3]]
			key := [2]string{name, num}
			if seen[key] {
				continue
			}
			end := len(doc.Text)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			n, _ := strconv.Atoi(num)
			ix.entries = append(ix.entries, Entry{
				Document:      name,
				ArticleNumber: n,
				Text:          strings.TrimSpace(doc.Text[m[0]:end]),
			})
			seen[key] = true
		}
	}
	return ix
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the indexed entries in insertion order.
func (ix *Index) Entries() []Entry { return ix.entries }

// SearchByNumber returns the entries whose article number equals num
// (compared as strings). A non-empty documentFilter additionally requires an
// accent- and case-insensitive substring match in either direction, so both
// abbreviated and expanded document names typed by a user are tolerated.
func (ix *Index) SearchByNumber(num, documentFilter string) []Entry {
	num = strings.TrimSpace(num)
	filter := textnorm.Fold(strings.TrimSpace(documentFilter))

	var results []Entry
	for _, e := range ix.entries {
		if strconv.Itoa(e.ArticleNumber) != num {
			continue
		}
		if filter != "" {
			doc := textnorm.Fold(e.Document)
			if !strings.Contains(doc, filter) && !strings.Contains(filter, doc) {
				continue
			}
		}
		results = append(results, e)
	}
	return results
}

// synonyms maps a keyword to interchangeable alternatives for exact keyword
// search. Small and fixed on purpose; extend as real queries demand it.
var synonyms = map[string][]string{
	"abuso":    {"agresion", "agresión"},
	"agresion": {"abuso", "agresión"},
	"agresión": {"abuso", "agresion"},
}

var queryWord = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// SearchByKeywords returns every entry whose text contains, for each query
// word longer than two characters, that word or one of its synonyms.
// Matching is conjunctive across distinct words and disjunctive within a
// synonym group. Results keep index order; no relevance ranking is applied.
func (ix *Index) SearchByKeywords(query string) []Entry {
	var groups [][]string
	for _, w := range queryWord.FindAllString(strings.ToLower(query), -1) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		groups = append(groups, append([]string{w}, synonyms[w]...))
	}
	if len(groups) == 0 {
		return nil
	}

	var results []Entry
	for _, e := range ix.entries {
		text := strings.ToLower(e.Text)
		if matchesAllGroups(text, groups) {
			results = append(results, e)
		}
	}
	return results
}

func matchesAllGroups(text string, groups [][]string) bool {
	for _, group := range groups {
		found := false
		for _, w := range group {
			if strings.Contains(text, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
