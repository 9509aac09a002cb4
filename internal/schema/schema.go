// Package schema turns a template's discovered placeholders into a form
// schema an arbitrary rendering layer (desktop or web) can present, and
// reconciles freshly extracted values against previously entered ones.
package schema

import (
	"regexp"
	"strings"

	"github.com/mvillagomez/demandas/internal/textnorm"
)

// Field describes one form input derived from a placeholder.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Lines    int    `json:"lines,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Schema is the externally presentable form shape.
type Schema struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// essentialFields always get a multi-line text widget, whatever their
// inferred line count says.
var essentialFields = map[string]bool{
	"HECHOS":              true,
	"FUNDAMENTOS_DERECHO": true,
	"PRETENSION":          true,
	"REFERENCIAS":         true,
}

var trailingDots = regexp.MustCompile(`[.…]+$`)

// Derive builds a form schema from an ordered placeholder list. Field names
// are uppercased slugs, labels replace underscores with spaces and
// title-case the result, and line counts come from trailing dots on the
// label (paper forms mark long answers with dotted lines).
func Derive(placeholders []string, title string) Schema {
	fields := make([]Field, 0, len(placeholders))
	for _, name := range placeholders {
		label := textnorm.TitleCase(strings.ReplaceAll(name, "_", " "))
		f := Field{
			Name:     strings.ToUpper(textnorm.Slugify(name)),
			Label:    label,
			Required: false,
			Lines:    InferLines(label),
		}
		if essentialFields[name] {
			f.Type = "text"
		}
		fields = append(fields, f)
	}
	return Schema{Title: title, Fields: fields}
}

// InferLines derives a field's height from the trailing dots of its label:
// one line per two dots, a Unicode ellipsis counting as three, minimum one.
func InferLines(label string) int {
	m := trailingDots.FindString(label)
	if m == "" {
		return 1
	}
	count := strings.Count(m, ".") + 3*strings.Count(m, "…")
	if count/2 < 1 {
		return 1
	}
	return count / 2
}

// CacheStore persists entered form data per demand type.
type CacheStore interface {
	LoadFormData(tipo string) (map[string]string, error)
	SaveFormData(tipo string, data map[string]string) error
}

// Reconcile merges freshly extracted values with the cached data for tipo.
// With discard set, the cache is overwritten wholesale. Otherwise only keys
// the cache lacks are taken from the fresh extraction: values the user
// already entered are never silently clobbered by re-extraction.
func Reconcile(cache CacheStore, tipo string, fresh map[string]string, discard bool) (map[string]string, error) {
	if discard {
		if err := cache.SaveFormData(tipo, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	merged, err := cache.LoadFormData(tipo)
	if err != nil {
		return nil, err
	}
	for k, v := range fresh {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	if err := cache.SaveFormData(tipo, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
