// Package assembler turns a demand template plus case data into a completed
// document. Placeholders resolve through an ordered chain of strategies;
// whatever remains unresolved becomes an interactive session where the user
// supplies values one at a time (or skips, leaving a visible [NAME] marker).
package assembler

import (
	"context"
	"strings"

	"github.com/mvillagomez/demandas/internal/llm"
)

// Document is a retrieved snippet of case material.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Retriever is the similarity-search capability the resolver chain draws
// case answers from. Implementations live outside this core.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]Document, error)
}

// Resolver is one strategy for producing a placeholder's value. ok reports
// whether the strategy produced a usable value; err aborts the whole chain
// (credit refusals must reach the caller, not degrade into a skip).
type Resolver interface {
	Resolve(ctx context.Context, name string) (value string, ok bool, err error)
}

// CaseDataResolver answers from an in-memory case data map, trying the name
// as given and uppercased.
type CaseDataResolver struct {
	Data map[string]string
}

func (r CaseDataResolver) Resolve(_ context.Context, name string) (string, bool, error) {
	if v := r.Data[name]; v != "" {
		return v, true, nil
	}
	if v := r.Data[strings.ToUpper(name)]; v != "" {
		return v, true, nil
	}
	return "", false, nil
}

const qaSystemPrompt = "Responde a la pregunta usando únicamente los fragmentos del caso " +
	"proporcionados. Responde solo con el dato solicitado, sin explicaciones. " +
	"Si el dato no aparece en los fragmentos, responde 'no consta'."

// RetrievalResolver asks the case retriever for relevant snippets and has
// the model extract the requested value from them. Short answers and
// answers containing a negation are rejected so a hedging response never
// lands in the document.
type RetrievalResolver struct {
	Retriever Retriever
	Caller    llm.Caller
	K         int
}

func (r RetrievalResolver) Resolve(ctx context.Context, name string) (string, bool, error) {
	if r.Retriever == nil || r.Caller == nil {
		return "", false, nil
	}
	k := r.K
	if k <= 0 {
		k = 15
	}
	question := "¿Cuál es el " + strings.ToLower(strings.ReplaceAll(name, "_", " ")) + " en este caso?"
	docs, err := r.Retriever.Query(ctx, question, k)
	if err != nil || len(docs) == 0 {
		return "", false, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Fragmentos del caso:\n\n")
	for _, d := range docs {
		prompt.WriteString(d.Content)
		prompt.WriteString("\n---\n")
	}
	prompt.WriteString("\nPregunta: ")
	prompt.WriteString(question)

	answer, err := r.Caller.Complete(ctx, qaSystemPrompt, prompt.String())
	if err != nil {
		return "", false, err
	}
	answer = strings.TrimSpace(answer)
	if len(answer) > 3 && !strings.Contains(strings.ToLower(answer), "no") {
		return answer, true, nil
	}
	return "", false, nil
}

// resolveChain tries each resolver in order and stops at the first value.
func resolveChain(ctx context.Context, resolvers []Resolver, name string) (string, bool, error) {
	for _, r := range resolvers {
		v, ok, err := r.Resolve(ctx, name)
		if err != nil {
			return "", false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, nil
}
