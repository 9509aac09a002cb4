// Package extract obtains plain text from template and corpus files. PDFs
// are not parsed here; a .pdf source is served by its .txt sidecar, which
// the ingestion step is expected to have produced.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mvillagomez/demandas/internal/articleindex"
	"github.com/mvillagomez/demandas/internal/assembler"
	"github.com/mvillagomez/demandas/internal/textnorm"
)

// FileExtractor reads template text from the filesystem.
type FileExtractor struct{}

// ExtractText returns the text behind source. A .txt file is read directly;
// a .pdf is served from its sidecar (same path, .txt extension), with the
// whitespace noise of PDF extraction normalized away. A missing sidecar
// yields an empty string, meaning no usable text.
func (FileExtractor) ExtractText(source string) (string, error) {
	path := source
	fromPDF := strings.EqualFold(filepath.Ext(source), ".pdf")
	if fromPDF {
		path = strings.TrimSuffix(source, filepath.Ext(source)) + ".txt"
		if _, err := os.Stat(path); err != nil {
			return "", nil
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if fromPDF {
		return textnorm.NormalizeWhitespace(string(b)), nil
	}
	return string(b), nil
}

// LoadCorpus reads every .txt file under root (and .txt sidecars of .pdf
// files) into indexable documents, tagged with their source file name.
// Order is deterministic: sorted by file name.
func LoadCorpus(root string) ([]articleindex.Document, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus dir: %w", err)
	}

	var ex FileExtractor
	seen := make(map[string]bool)
	var docs []articleindex.Document
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".pdf" {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[base] {
			continue
		}
		text, err := ex.ExtractText(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		seen[base] = true
		docs = append(docs, articleindex.Document{
			Text:     text,
			Metadata: map[string]string{"source": name},
		})
	}
	return docs, nil
}

var retrievalWord = regexp.MustCompile(`[a-z0-9]+`)

// DirRetriever answers retrieval queries from a directory of case documents
// (.txt files or .pdf sidecars). Documents are ranked by how many of the
// query's words they contain, accent- and case-insensitive; documents
// sharing no word with the query are left out. A missing directory means no
// case material, not an error.
type DirRetriever struct {
	Dir string
}

func (r DirRetriever) Query(_ context.Context, text string, k int) ([]assembler.Document, error) {
	docs, err := LoadCorpus(r.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var words []string
	for _, w := range retrievalWord.FindAllString(textnorm.Fold(text), -1) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil, nil
	}

	type scored struct {
		doc   articleindex.Document
		score int
	}
	var matches []scored
	for _, doc := range docs {
		folded := textnorm.Fold(doc.Text)
		score := 0
		for _, w := range words {
			if strings.Contains(folded, w) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{doc, score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	out := make([]assembler.Document, 0, len(matches))
	for _, m := range matches {
		out = append(out, assembler.Document{Content: m.doc.Text, Metadata: m.doc.Metadata})
	}
	return out, nil
}
