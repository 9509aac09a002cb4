package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mvillagomez/demandas/internal/articleindex"
	"github.com/mvillagomez/demandas/internal/assembler"
)

func newTestServer(t *testing.T, manager *articleindex.Manager) http.Handler {
	t.Helper()
	if manager == nil {
		manager = articleindex.NewManager(t.TempDir())
	}
	return NewServer(t.TempDir(), func() *assembler.Generator {
		return assembler.New()
	}, manager, nil, nil, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response (%d): %v\n%s", rec.Code, err, rec.Body.String())
	}
	return rec.Code, out
}

func TestGenerateComplete(t *testing.T) {
	h := newTestServer(t, nil)
	code, out := doJSON(t, h, http.MethodPost, "/v1/generate", map[string]any{
		"template_text": "Yo, [NOMBRE], declaro.",
		"case_data":     map[string]string{"NOMBRE": "Ana"},
	})
	if code != 200 {
		t.Fatalf("code=%d: %v", code, out)
	}
	if out["done"] != true || out["document"] != "Yo, Ana, declaro." {
		t.Fatalf("out=%v", out)
	}
	if _, ok := out["session_id"]; ok {
		t.Fatal("complete generation must not open a session")
	}
}

func TestGenerateSessionFlow(t *testing.T) {
	h := newTestServer(t, nil)
	code, out := doJSON(t, h, http.MethodPost, "/v1/generate", map[string]any{
		"template_text": "[A] y [B]",
	})
	if code != 200 || out["done"] != false {
		t.Fatalf("code=%d out=%v", code, out)
	}
	sessionID, _ := out["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("no session id: %v", out)
	}

	code, out = doJSON(t, h, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", map[string]any{"value": "uno"})
	if code != 200 || out["done"] != false {
		t.Fatalf("first submit: code=%d out=%v", code, out)
	}

	code, out = doJSON(t, h, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", map[string]any{"value": "omitir"})
	if code != 200 || out["done"] != true {
		t.Fatalf("second submit: code=%d out=%v", code, out)
	}
	if out["document"] != "uno y [B]" {
		t.Fatalf("document=%v", out["document"])
	}

	// The session is gone once completed.
	code, _ = doJSON(t, h, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", map[string]any{"value": "x"})
	if code != 409 {
		t.Fatalf("expected 409 after completion, got %d", code)
	}
}

func TestConcurrentSubmitsSerialize(t *testing.T) {
	h := newTestServer(t, nil)
	_, out := doJSON(t, h, http.MethodPost, "/v1/generate", map[string]any{
		"template_text": "[A] [B] [C] [D]",
	})
	sessionID, _ := out["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("no session id: %v", out)
	}

	// Four placeholders, four simultaneous submits. Each one must land on
	// its own placeholder: all succeed, exactly one completes the session.
	type reply struct {
		code int
		out  map[string]any
	}
	replies := make(chan reply, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, out := doJSON(t, h, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", map[string]any{"value": "x"})
			replies <- reply{code, out}
		}()
	}
	wg.Wait()
	close(replies)

	done := 0
	for r := range replies {
		if r.code != 200 {
			t.Fatalf("submit code=%d out=%v", r.code, r.out)
		}
		if r.out["done"] == true {
			done++
			if r.out["document"] != "x x x x" {
				t.Fatalf("document=%v", r.out["document"])
			}
		}
	}
	if done != 1 {
		t.Fatalf("done replies=%d want 1", done)
	}

	code, _ := doJSON(t, h, http.MethodPost, "/v1/sessions/"+sessionID+"/submit", map[string]any{"value": "x"})
	if code != 409 {
		t.Fatalf("expected 409 after completion, got %d", code)
	}
}

func TestSessionCapEvictsOldest(t *testing.T) {
	h := newTestServer(t, nil)

	ids := make([]string, 0, maxSessions+1)
	for i := 0; i <= maxSessions; i++ {
		_, out := doJSON(t, h, http.MethodPost, "/v1/generate", map[string]any{
			"template_text": fmt.Sprintf("caso %d: [VALOR]", i),
		})
		id, _ := out["session_id"].(string)
		if id == "" {
			t.Fatalf("generation %d opened no session: %v", i, out)
		}
		ids = append(ids, id)
	}

	code, _ := doJSON(t, h, http.MethodPost, "/v1/sessions/"+ids[0]+"/submit", map[string]any{"value": "x"})
	if code != 409 {
		t.Fatalf("oldest session must be evicted, got %d", code)
	}
	code, out := doJSON(t, h, http.MethodPost, "/v1/sessions/"+ids[len(ids)-1]+"/submit", map[string]any{"value": "x"})
	if code != 200 || out["done"] != true {
		t.Fatalf("newest session lost: code=%d out=%v", code, out)
	}
}

func TestGenerateMissingTemplate(t *testing.T) {
	h := newTestServer(t, nil)
	code, _ := doJSON(t, h, http.MethodPost, "/v1/generate", map[string]any{"tipo": "inexistente"})
	if code != 404 {
		t.Fatalf("code=%d want 404", code)
	}
}

func TestGenerateFallsBackToBuiltinTemplate(t *testing.T) {
	h := newTestServer(t, nil)
	code, out := doJSON(t, h, http.MethodPost, "/v1/generate", map[string]any{"tipo": "general"})
	if code != 200 {
		t.Fatalf("code=%d: %v", code, out)
	}
	if out["done"] != false {
		t.Fatal("builtin template should have pending placeholders")
	}
}

func TestFillEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	code, out := doJSON(t, h, http.MethodPost, "/v1/fill", map[string]any{
		"text":   "[NOMBRE] y [PENDIENTE]",
		"values": map[string]string{"NOMBRE": "Ana"},
	})
	if code != 200 {
		t.Fatalf("code=%d", code)
	}
	if out["document"] != "Ana y [PENDIENTE]" {
		t.Fatalf("document=%v", out["document"])
	}
	pending, _ := out["pending"].([]any)
	if len(pending) != 1 || pending[0] != "PENDIENTE" {
		t.Fatalf("pending=%v", out["pending"])
	}
}

func TestSegmentEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	code, out := doJSON(t, h, http.MethodPost, "/v1/segment", map[string]any{
		"text": "PRIMERO. - DESIGNACIÓN DEL JUZGADOR:\nUnidad Judicial",
	})
	if code != 200 {
		t.Fatalf("code=%d", code)
	}
	sections, _ := out["sections"].(map[string]any)
	if sections["DESIGNACION_JUZGADOR"] != "Unidad Judicial" {
		t.Fatalf("sections=%v", out["sections"])
	}
}

func TestSchemaEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/schema?tipo=general", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("code=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ACTOR_NOMBRES_APELLIDOS") {
		t.Fatalf("schema body: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/schema?tipo=inexistente", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("code=%d want 404", rec.Code)
	}
}

func TestArticleSearchEndpoint(t *testing.T) {
	manager := articleindex.NewManager("/corpus")
	manager.Rebuild([]articleindex.Document{{
		Text:     "Artículo 5.- contenido del artículo.",
		Metadata: map[string]string{"source": "ley.txt"},
	}})
	h := newTestServer(t, manager)

	req := httptest.NewRequest(http.MethodGet, "/v1/articles/search?q=art%C3%ADculo+5", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Results []struct {
			Documento string `json:"documento"`
			Articulo  int    `json:"articulo"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].Articulo != 5 || out.Results[0].Documento != "ley" {
		t.Fatalf("results=%+v", out.Results)
	}
}

func TestArticleSearchWithoutCorpus(t *testing.T) {
	h := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/articles/search?q=algo", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 409 {
		t.Fatalf("code=%d want 409", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("code=%d", rec.Code)
	}
	var out struct {
		OK           bool `json:"ok"`
		CorpusLoaded bool `json:"corpus_loaded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.OK || out.CorpusLoaded {
		t.Fatalf("out=%+v", out)
	}
}
