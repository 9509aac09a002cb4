package assembler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mvillagomez/demandas/internal/placeholder"
)

var tracer = otel.Tracer("github.com/mvillagomez/demandas/internal/assembler")

// ErrTemplateNotFound reports that no usable template text could be
// obtained for the requested demand type.
var ErrTemplateNotFound = errors.New("template not found")

// ErrNoActiveSession reports a Submit without a session in progress.
var ErrNoActiveSession = errors.New("no active assembly session")

// TextExtractor yields the raw text behind a template source. An empty
// string with a nil error means the source held no usable text.
type TextExtractor interface {
	ExtractText(source string) (string, error)
}

// Session tracks one interactive fill in progress: the placeholders still
// unanswered, the answers collected so far, and the partially filled
// document they will be spliced into.
type Session struct {
	ID      string
	Pending []string
	Values  map[string]string
	Index   int
	Partial string
}

// Result is the outcome of a generation step. When Done is set, Document
// holds the completed demand. Otherwise Prompt asks for the next value and
// Pending lists everything still missing.
type Result struct {
	Document string
	Prompt   string
	Pending  []string
	Done     bool
}

// Generator owns the resolver chain and at most one active session. It is
// not safe for concurrent use; callers serialize access per generation
// context.
type Generator struct {
	resolvers []Resolver
	session   *Session
	lastDoc   string
}

// New builds a generator with the given resolver chain. Case data passed to
// Start always resolves first; the given resolvers run after it, in order,
// and the first value wins.
func New(resolvers ...Resolver) *Generator {
	return &Generator{resolvers: resolvers}
}

// Session returns the in-progress session, nil when none is active.
func (g *Generator) Session() *Session { return g.session }

// LastDocument returns the most recently completed demand text.
func (g *Generator) LastDocument() string { return g.lastDoc }

// Abandon discards any in-progress session.
func (g *Generator) Abandon() { g.session = nil }

// Start fills templateText from caseData and the resolver chain. Bracket
// placeholders resolve first, then dotted blank runs consume the remaining
// case data in key order. If everything resolved the result is Done;
// otherwise a session opens and the result prompts for the first missing
// value.
func (g *Generator) Start(ctx context.Context, templateText string, caseData map[string]string) (Result, error) {
	ctx, span := tracer.Start(ctx, "assembler.start")
	defer span.End()

	if strings.TrimSpace(templateText) == "" {
		return Result{}, ErrTemplateNotFound
	}

	resolvers := g.resolvers
	if len(caseData) > 0 {
		resolvers = append([]Resolver{CaseDataResolver{Data: caseData}}, resolvers...)
	}

	names := placeholder.Discover(templateText, placeholder.Bracket)
	values := make(map[string]string, len(names))
	for _, name := range names {
		v, ok, err := resolveChain(ctx, resolvers, name)
		if err != nil {
			return Result{}, err
		}
		if ok {
			values[name] = v
		}
	}

	filled := placeholder.Fill(templateText, values)
	if len(caseData) > 0 {
		filled = placeholder.FillDottedBlanks(filled, orderedValues(caseData))
	}

	pending := placeholder.Discover(filled, placeholder.Bracket)
	span.SetAttributes(
		attribute.Int("placeholders.total", len(names)),
		attribute.Int("placeholders.pending", len(pending)),
	)

	if len(pending) == 0 {
		g.session = nil
		g.lastDoc = filled
		return Result{Document: filled, Done: true}, nil
	}

	g.session = &Session{
		ID:      uuid.NewString(),
		Pending: pending,
		Values:  make(map[string]string, len(pending)),
		Partial: filled,
	}
	return Result{
		Document: filled,
		Prompt:   startPrompt(pending),
		Pending:  pending,
	}, nil
}

// StartFromSource extracts the template text from source and starts a
// generation with it. A source that yields no text maps to
// ErrTemplateNotFound.
func (g *Generator) StartFromSource(ctx context.Context, extractor TextExtractor, source string, caseData map[string]string) (Result, error) {
	text, err := extractor.ExtractText(source)
	if err != nil {
		return Result{}, fmt.Errorf("extract template %s: %w", source, err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, source)
	}
	return g.Start(ctx, text, caseData)
}

// Submit records the user's answer for the current placeholder. A reply
// starting with "omitir" skips it, leaving a visible [NAME] marker in the
// document. When the last placeholder is answered the session closes and
// the completed document comes back.
func (g *Generator) Submit(input string) (Result, error) {
	s := g.session
	if s == nil {
		return Result{}, ErrNoActiveSession
	}

	name := s.Pending[s.Index]
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(strings.ToLower(trimmed), "omitir") {
		s.Values[name] = "[" + name + "]"
	} else {
		s.Values[name] = trimmed
	}
	s.Index++

	if s.Index < len(s.Pending) {
		return Result{
			Prompt:  valuePrompt(s.Pending[s.Index]),
			Pending: s.Pending[s.Index:],
		}, nil
	}

	doc := s.Partial
	for ph, val := range s.Values {
		doc = strings.ReplaceAll(doc, "["+ph+"]", val)
	}
	g.session = nil
	g.lastDoc = doc
	return Result{Document: doc, Done: true}, nil
}

func startPrompt(pending []string) string {
	return fmt.Sprintf("Faltan datos para: %s.\n\n%s",
		strings.Join(pending, ", "), valuePrompt(pending[0]))
}

func valuePrompt(name string) string {
	return fmt.Sprintf("Ingresa el valor para '%s' o escribe 'omitir' para dejarlo en blanco.", name)
}

// orderedValues returns the map's values sorted by key, so dotted blanks
// fill deterministically.
func orderedValues(data map[string]string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(data[k]); v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}
