package faq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Store, *Catalog) {
	t.Helper()
	store := newTestStore(t)
	catalog := NewCatalog(store, zerolog.Nop())
	r := chi.NewRouter()
	RegisterRoutes(r, store, catalog)
	return r, store, catalog
}

func TestRoutesCreateRefreshesCatalog(t *testing.T) {
	r, _, catalog := newTestRouter(t)

	body := `{"language":"en","category":"hostel","question":"Is there a hostel?","answer":"Yes.","keywords":["hostel"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/faqs/", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created Entry
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := catalog.Snapshot().Get(created.ID); !ok {
		t.Error("catalog should contain the new entry after create")
	}
}

func TestRoutesCreateValidation(t *testing.T) {
	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/faqs/", strings.NewReader(`{"language":"fr","question":"q","answer":"a"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/faqs/", strings.NewReader(`not json`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestRoutesGetUpdateDelete(t *testing.T) {
	r, store, catalog := newTestRouter(t)
	ctx := context.Background()
	if _, err := store.Upsert(ctx, sampleEntries); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/faqs/fee-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/faqs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing: expected 404, got %d", w.Code)
	}

	update := `{"language":"en","category":"fees","question":"What is the admission fee?","answer":"Rs. 6000"}`
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/faqs/fee-1", strings.NewReader(update)))
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if e, ok := catalog.Snapshot().Get("fee-1"); !ok || e.Answer != "Rs. 6000" {
		t.Errorf("catalog not refreshed after update: %+v", e)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/faqs/fee-1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if _, ok := catalog.Snapshot().Get("fee-1"); ok {
		t.Error("catalog still serves deleted entry")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/faqs/fee-1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestRoutesListSearchReload(t *testing.T) {
	r, store, _ := newTestRouter(t)
	if _, err := store.Upsert(context.Background(), sampleEntries); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/faqs/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("reload: expected 200, got %d", w.Code)
	}
	var reload map[string]int
	json.Unmarshal(w.Body.Bytes(), &reload)
	if reload["entries"] != len(sampleEntries) {
		t.Errorf("reload entries = %d, want %d", reload["entries"], len(sampleEntries))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/faqs/?language=en&category=fees", nil))
	var list []Entry
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 3 {
		t.Errorf("list: expected 3 entries, got %d", len(list))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/faqs/search?q=hostel&language=en", nil))
	var found []Entry
	json.Unmarshal(w.Body.Bytes(), &found)
	if len(found) != 1 || found[0].ID != "hos-1" {
		t.Errorf("search: expected hos-1, got %+v", found)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/faqs/categories?language=en", nil))
	var cats map[string][]string
	json.Unmarshal(w.Body.Bytes(), &cats)
	if len(cats["categories"]) != 3 {
		t.Errorf("categories: got %v", cats)
	}
}
