package articleindex

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	// ErrNoCorpusLoaded reports that a search ran before any corpus was
	// indexed. Callers should tell the user to load a corpus, not that
	// nothing matched.
	ErrNoCorpusLoaded = errors.New("no corpus loaded")

	// ErrNoArticleFound reports that a well-formed search matched nothing.
	ErrNoArticleFound = errors.New("no article found")
)

var (
	articleRef = regexp.MustCompile(`(?i)art(?:[íi]culo|\.)?\s*(\d+)`)
	// documentClause extracts a "de la/el/los/las <name>" clause following
	// the article reference; the %s slot receives the article number.
	documentClause = `(?i)art(?:[íi]culo|\.)?\s*%s\s+de\s+(?:la|el|los|las)\s+([\p{L}\p{N}\s]+)`
)

// Manager owns the current index and the corpus root it was built from.
// Queries read the index through an RWMutex; a rebuild swaps the pointer
// only once the new index is fully built, so in-flight searches keep reading
// the old snapshot.
type Manager struct {
	mu         sync.RWMutex
	index      *Index
	corpusRoot string
}

// NewManager returns a manager with no index loaded; Swap installs one.
func NewManager(corpusRoot string) *Manager {
	return &Manager{corpusRoot: corpusRoot}
}

// Swap installs a freshly built index.
func (m *Manager) Swap(ix *Index) {
	m.mu.Lock()
	m.index = ix
	m.mu.Unlock()
}

// Rebuild builds an index from docs and installs it.
func (m *Manager) Rebuild(docs []Document) *Index {
	ix := Build(docs)
	m.Swap(ix)
	return ix
}

func (m *Manager) snapshot() *Index {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

// Loaded reports whether an index is installed.
func (m *Manager) Loaded() bool { return m.snapshot() != nil }

// Search routes a free-form query: a query containing an explicit article
// reference ("artículo 5", "art. 5") becomes a number search, with any
// trailing "de la <document>" clause used as the document filter; anything
// else becomes a synonym-aware keyword search. Returns ErrNoCorpusLoaded
// when no index is installed and ErrNoArticleFound when nothing matched.
func (m *Manager) Search(query string) ([]Entry, error) {
	ix := m.snapshot()
	if ix == nil {
		return nil, ErrNoCorpusLoaded
	}

	match := articleRef.FindStringSubmatch(query)
	if match == nil {
		results := ix.SearchByKeywords(strings.TrimSpace(query))
		if len(results) == 0 {
			return nil, ErrNoArticleFound
		}
		return results, nil
	}

	num := match[1]
	filter := ""
	clauseRe, err := regexp.Compile(fmt.Sprintf(documentClause, regexp.QuoteMeta(num)))
	if err == nil {
		if clause := clauseRe.FindStringSubmatch(query); clause != nil {
			filter = strings.TrimSpace(clause[1])
		}
	}

	results := ix.SearchByNumber(num, filter)
	if len(results) == 0 {
		return nil, ErrNoArticleFound
	}
	return results, nil
}

// SourceLink returns the conventional open-the-source path hint for an
// entry: <corpus-root>/<document>.pdf.
func (m *Manager) SourceLink(e Entry) string {
	return filepath.Join(m.corpusRoot, e.Document+".pdf")
}
