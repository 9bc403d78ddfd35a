package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"scamwatch/internal/core/corpus"
	"scamwatch/internal/core/signature"
	modkit "scamwatch/internal/modkit"
	phttp "scamwatch/internal/platform/net/http"
	adminmod "scamwatch/internal/services/admin/module"

	"github.com/go-chi/chi/v5"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func newTestMux(t *testing.T) stdhttp.Handler {
	t.Helper()

	store, err := corpus.Load(filepath.Join(t.TempDir(), "corpus.json"))
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	eng := signature.NewEngine(store, stubEmbedder{}, signature.DefaultConfig())

	m := adminmod.New(modkit.Deps{Corpus: store, Engine: eng})
	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)
	return r.Mux()
}

func do(t *testing.T, mux stdhttp.Handler, method, path string, body any) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var env phttp.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v\nbody: %s", err, rr.Body.String())
	}
	return rr, env
}

func dataMap(t *testing.T, env phttp.Envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object: %+v", env.Data, env)
	}
	return m
}

func TestDomainLifecycle(t *testing.T) {
	mux := newTestMux(t)

	rr, env := do(t, mux, stdhttp.MethodPost, "/admin/domains", map[string]string{"host": "Bad.Example"})
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("add status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := dataMap(t, env)["count"].(float64); got != 1 {
		t.Fatalf("count after add = %v, want 1", got)
	}

	// duplicate adds conflict
	rr, _ = do(t, mux, stdhttp.MethodPost, "/admin/domains", map[string]string{"host": "bad.example"})
	if rr.Code != stdhttp.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rr.Code)
	}

	rr, env = do(t, mux, stdhttp.MethodGet, "/admin/domains", nil)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	ds := dataMap(t, env)["domains"].([]any)
	if len(ds) != 1 || ds[0] != "bad.example" {
		t.Fatalf("domains = %v", ds)
	}

	rr, env = do(t, mux, stdhttp.MethodDelete, "/admin/domains/bad.example", nil)
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("remove status = %d", rr.Code)
	}
	if got := dataMap(t, env)["count"].(float64); got != 0 {
		t.Fatalf("count after remove = %v, want 0", got)
	}

	rr, _ = do(t, mux, stdhttp.MethodDelete, "/admin/domains/bad.example", nil)
	if rr.Code != stdhttp.StatusNotFound {
		t.Fatalf("remove missing status = %d, want 404", rr.Code)
	}
}

func TestAnalyze_DenylistedHostFlagged(t *testing.T) {
	mux := newTestMux(t)

	if rr, _ := do(t, mux, stdhttp.MethodPost, "/admin/domains", map[string]string{"host": "scam.example"}); rr.Code != stdhttp.StatusOK {
		t.Fatalf("seed domain status = %d", rr.Code)
	}

	rr, env := do(t, mux, stdhttp.MethodPost, "/admin/analyze", map[string]string{
		"text": "free nitro at https://scam.example/claim",
	})
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("analyze status = %d: %s", rr.Code, rr.Body.String())
	}
	d := dataMap(t, env)
	if d["flagged"] != true {
		t.Fatalf("flagged = %v, want true", d["flagged"])
	}
	if d["similarity"].(float64) != 1.0 {
		t.Fatalf("similarity = %v, want 1", d["similarity"])
	}
	if d["matched_category"] != "known_malicious_domain" {
		t.Fatalf("matched_category = %v", d["matched_category"])
	}
}

func TestAnalyze_RejectsEmptyBody(t *testing.T) {
	mux := newTestMux(t)

	rr, _ := do(t, mux, stdhttp.MethodPost, "/admin/analyze", map[string]string{})
	if rr.Code != stdhttp.StatusBadRequest && rr.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want validation failure", rr.Code)
	}
}

func TestAddMessageGrowsCorpus(t *testing.T) {
	mux := newTestMux(t)

	rr, _ := do(t, mux, stdhttp.MethodPost, "/admin/corpus", map[string]any{
		"text":     "HURRY claim your $50 gift card, DM me now",
		"category": "gift_card_scam",
		"flags":    []string{"too_good_to_be_true"},
	})
	if rr.Code != stdhttp.StatusOK {
		t.Fatalf("add message status = %d: %s", rr.Code, rr.Body.String())
	}

	_, env := do(t, mux, stdhttp.MethodGet, "/admin/status", nil)
	d := dataMap(t, env)
	if d["ok"] != true || d["service"] != "admin" {
		t.Fatalf("status payload = %v", d)
	}
	if got := d["messages"].(float64); got != 1 {
		t.Fatalf("messages = %v, want 1", got)
	}
}
