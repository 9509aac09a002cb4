// Package httpapi exposes the assistant over HTTP for web frontends. The
// interactive fill flow maps onto sessions: a generate call that leaves
// placeholders unresolved returns a session id, and values are submitted
// against it one at a time.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvillagomez/demandas/internal/articleindex"
	"github.com/mvillagomez/demandas/internal/assembler"
	"github.com/mvillagomez/demandas/internal/demanda"
	"github.com/mvillagomez/demandas/internal/extract"
	"github.com/mvillagomez/demandas/internal/llm"
	"github.com/mvillagomez/demandas/internal/meter"
	"github.com/mvillagomez/demandas/internal/placeholder"
	"github.com/mvillagomez/demandas/internal/schema"
	"github.com/mvillagomez/demandas/internal/store"
)

const (
	// maxSessions caps how many interactive fills can sit open at once;
	// inserting past the cap evicts the oldest one.
	maxSessions = 64
	sessionTTL  = time.Hour
)

// session is one stored interactive fill. Its mutex is held across every
// Submit so concurrent posts against the same session id serialize instead
// of mutating the generator's state at the same time.
type session struct {
	mu      sync.Mutex
	gen     *assembler.Generator
	created time.Time
}

// Server holds the pieces the handlers orchestrate. NewGenerator builds a
// fresh generator (with its resolver chain) per generation request.
type Server struct {
	templatesDir string
	newGenerator func() *assembler.Generator
	articles     *articleindex.Manager
	store        *store.Store
	caller       llm.Caller

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer wires the handlers onto a mux. reg may be nil to skip the
// metrics endpoint; caller may be nil when no model is configured, which
// disables the anonymize and entities endpoints.
func NewServer(templatesDir string, newGenerator func() *assembler.Generator, articles *articleindex.Manager, st *store.Store, caller llm.Caller, reg *prometheus.Registry) http.Handler {
	s := &Server{
		templatesDir: templatesDir,
		newGenerator: newGenerator,
		articles:     articles,
		store:        st,
		caller:       caller,
		sessions:     map[string]*session{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/generate", s.handleGenerate)
	mux.HandleFunc("/v1/sessions/", s.handleSessionSubmit)
	mux.HandleFunc("/v1/schema", s.handleSchema)
	mux.HandleFunc("/v1/fill", s.handleFill)
	mux.HandleFunc("/v1/segment", s.handleSegment)
	mux.HandleFunc("/v1/articles/search", s.handleArticleSearch)
	mux.HandleFunc("/v1/anonymize", s.handleAnonymize)
	mux.HandleFunc("/v1/entities", s.handleEntities)
	mux.HandleFunc("/v1/health", s.handleHealth)
	if reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := 500
	switch {
	case errors.Is(err, assembler.ErrTemplateNotFound),
		errors.Is(err, articleindex.ErrNoArticleFound):
		status = 404
	case errors.Is(err, meter.ErrInsufficientCredit):
		status = 402
	case errors.Is(err, articleindex.ErrNoCorpusLoaded),
		errors.Is(err, assembler.ErrNoActiveSession):
		status = 409
	}
	writeJSON(w, status, map[string]any{
		"ok":    false,
		"error": map[string]any{"message": err.Error()},
	})
}

func decodeBody(r *http.Request, dst any) error {
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return json.Unmarshal(blob, dst)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// loadTemplate resolves a demand type to its template text: a file named
// after the type in the templates directory, falling back to the built-in
// general template.
func (s *Server) loadTemplate(tipo string) (string, error) {
	var ex extract.FileExtractor
	for _, ext := range []string{".txt", ".pdf"} {
		text, err := ex.ExtractText(filepath.Join(s.templatesDir, tipo+ext))
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	if tipo == "" || tipo == "general" {
		return demanda.COGEPTemplate, nil
	}
	return "", nil
}

func resultPayload(res assembler.Result, sessionID string) map[string]any {
	payload := map[string]any{
		"ok":   true,
		"done": res.Done,
	}
	if res.Document != "" {
		payload["document"] = res.Document
	}
	if !res.Done {
		payload["prompt"] = res.Prompt
		payload["pending"] = res.Pending
		payload["session_id"] = sessionID
	}
	return payload
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Tipo         string            `json:"tipo"`
		TemplateText string            `json:"template_text"`
		CaseData     map[string]string `json:"case_data"`
		Cliente      string            `json:"cliente"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, 400, map[string]any{"ok": false, "error": map[string]any{"message": err.Error()}})
		return
	}

	text := req.TemplateText
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = s.loadTemplate(strings.TrimSpace(req.Tipo))
		if err != nil {
			writeError(w, err)
			return
		}
	}

	gen := s.newGenerator()
	res, err := gen.Start(r.Context(), text, req.CaseData)
	if err != nil {
		writeError(w, err)
		return
	}

	sessionID := ""
	if !res.Done {
		sessionID = gen.Session().ID
		s.storeSession(sessionID, &session{gen: gen, created: time.Now()})
	} else if s.store != nil {
		_ = s.store.RegisterCase(req.Tipo, res.Document, req.Cliente)
	}
	writeJSON(w, 200, resultPayload(res, sessionID))
}

func (s *Server) handleSessionSubmit(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if !strings.HasSuffix(path, "/submit") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	sessionID := strings.TrimSuffix(strings.TrimSuffix(path, "/submit"), "/")
	if sessionID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req struct {
		Value string `json:"value"`
		Tipo  string `json:"tipo"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, 400, map[string]any{"ok": false, "error": map[string]any{"message": err.Error()}})
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		writeError(w, assembler.ErrNoActiveSession)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	res, err := sess.gen.Submit(req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Done {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		if s.store != nil {
			_ = s.store.RegisterCase(req.Tipo, res.Document, "")
		}
	}
	writeJSON(w, 200, resultPayload(res, sessionID))
}

// storeSession records an open session, first dropping sessions past their
// TTL and, if the cap is still exceeded, the oldest open one.
func (s *Server) storeSession(id string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for old, existing := range s.sessions {
		if now.Sub(existing.created) > sessionTTL {
			delete(s.sessions, old)
		}
	}
	for len(s.sessions) >= maxSessions {
		oldestID := ""
		var oldestAt time.Time
		for old, existing := range s.sessions {
			if oldestID == "" || existing.created.Before(oldestAt) {
				oldestID, oldestAt = old, existing.created
			}
		}
		delete(s.sessions, oldestID)
	}
	s.sessions[id] = sess
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	tipo := strings.TrimSpace(r.URL.Query().Get("tipo"))
	text, err := s.loadTemplate(tipo)
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, assembler.ErrTemplateNotFound)
		return
	}
	names := placeholder.Discover(text, placeholder.Bracket)
	writeJSON(w, 200, schema.Derive(names, tipo))
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Text   string            `json:"text"`
		Values map[string]string `json:"values"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, 400, map[string]any{"ok": false, "error": map[string]any{"message": err.Error()}})
		return
	}
	filled := placeholder.Fill(req.Text, req.Values)
	writeJSON(w, 200, map[string]any{
		"ok":       true,
		"document": filled,
		"pending":  placeholder.Discover(filled, placeholder.Bracket),
	})
}

func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, 400, map[string]any{"ok": false, "error": map[string]any{"message": err.Error()}})
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "sections": demanda.Segment(req.Text)})
}

func (s *Server) handleArticleSearch(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	entries, err := s.articles.Search(query)
	if err != nil {
		writeError(w, err)
		return
	}
	results := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		results = append(results, map[string]any{
			"documento": e.Document,
			"articulo":  e.ArticleNumber,
			"texto":     e.Text,
			"fuente":    s.articles.SourceLink(e),
		})
	}
	writeJSON(w, 200, map[string]any{"ok": true, "results": results})
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if s.caller == nil {
		writeJSON(w, 503, map[string]any{"ok": false, "error": map[string]any{"message": "no model configured"}})
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, 400, map[string]any{"ok": false, "error": map[string]any{"message": err.Error()}})
		return
	}
	template, fields, err := llm.GenerateTemplate(r.Context(), s.caller, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "template": template, "fields": fields})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	if s.caller == nil {
		writeJSON(w, 503, map[string]any{"ok": false, "error": map[string]any{"message": "no model configured"}})
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, 400, map[string]any{"ok": false, "error": map[string]any{"message": err.Error()}})
		return
	}
	entities, err := llm.ExtractEntities(r.Context(), s.caller, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "entities": entities})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":            true,
		"corpus_loaded": s.articles != nil && s.articles.Loaded(),
	})
}
