package faq

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

// RegisterRoutes mounts the FAQ admin API. Every write refreshes the catalog
// so the matcher sees it on the next request.
func RegisterRoutes(r chi.Router, store *Store, catalog *Catalog) {
	r.Route("/api/faqs", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleCreate(store, catalog))
		r.Get("/categories", handleCategories(store))
		r.Get("/search", handleSearch(catalog))
		r.Post("/reload", handleReload(catalog))
		r.Get("/{id}", handleGet(store))
		r.Put("/{id}", handleUpdate(store, catalog))
		r.Delete("/{id}", handleDelete(store, catalog))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := Filter{
			Language: lang.Code(r.URL.Query().Get("language")),
			Category: intent.Intent(r.URL.Query().Get("category")),
		}
		entries, err := store.List(r.Context(), f)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleCreate(store *Store, catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := e.Validate(); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		created, err := store.Create(r.Context(), e)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		refresh(r, catalog)
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if e == nil {
			http.Error(w, `{"error":"faq not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleUpdate(store *Store, catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Entry
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		e.ID = chi.URLParam(r, "id")
		if err := e.Validate(); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		updated, err := store.Update(r.Context(), e)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if updated == nil {
			http.Error(w, `{"error":"faq not found"}`, http.StatusNotFound)
			return
		}
		refresh(r, catalog)
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleDelete(store *Store, catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, `{"error":"faq not found"}`, http.StatusNotFound)
			return
		}
		refresh(r, catalog)
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCategories(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := store.Categories(r.Context(), lang.Code(r.URL.Query().Get("language")))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if cats == nil {
			cats = []string{}
		}
		writeJSON(w, http.StatusOK, map[string][]string{"categories": cats})
	}
}

func handleSearch(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
			return
		}
		code, err := lang.ParseCode(r.URL.Query().Get("language"))
		if err != nil {
			code = lang.English
		}
		limit := 10
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
			limit = l
		}
		results := catalog.Snapshot().Search(q, code, limit)
		if results == nil {
			results = []Entry{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func handleReload(catalog *Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := catalog.Refresh(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"version": snap.Version(),
			"entries": snap.Len(),
		})
	}
}

// refresh reloads the catalog after a successful write. A failed reload is
// logged; the write itself already succeeded.
func refresh(r *http.Request, catalog *Catalog) {
	if _, err := catalog.Refresh(r.Context()); err != nil {
		catalog.log.Error().Err(err).Msg("faq catalog refresh after write failed")
	}
}
