package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/faqbot/internal/vectordb"
)

// maxUploadBytes bounds a multipart upload: one document plus form overhead.
const maxUploadBytes = DefaultMaxFileSize + 64<<10

// Index is the vector store behind the document API.
type Index interface {
	vectordb.VectorStore
	Sources(ctx context.Context) ([]vectordb.Source, error)
}

// UploadResponse is the body of POST /api/documents.
type UploadResponse struct {
	Source    string `json:"source"`
	Chunks    int    `json:"chunks"`
	Unchanged bool   `json:"unchanged"`
}

type documentAPI struct {
	index    Index
	ingester *Ingester
	dir      string
	log      zerolog.Logger

	// mu serializes index changes with the export that follows them.
	mu sync.Mutex
}

// RegisterRoutes mounts the document API. Every change is persisted to dir
// so a restart keeps uploaded documents; an empty dir keeps them in memory.
func RegisterRoutes(r chi.Router, index Index, opts Options, dir string) {
	api := &documentAPI{index: index, ingester: New(index, opts), dir: dir, log: opts.Logger}
	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", api.list)
		r.Post("/", api.upload)
		r.Delete("/*", api.remove)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (api *documentAPI) list(w http.ResponseWriter, r *http.Request) {
	sources, err := api.index.Sources(r.Context())
	if err != nil {
		api.log.Error().Err(err).Msg("listing documents")
		http.Error(w, `{"error":"could not list documents"}`, http.StatusInternalServerError)
		return
	}
	if sources == nil {
		sources = []vectordb.Source{}
	}
	writeJSON(w, http.StatusOK, sources)
}

func (api *documentAPI) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, `{"error":"document too large"}`, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, `{"error":"multipart field \"file\" is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	src, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, `{"error":"could not read upload"}`, http.StatusBadRequest)
		return
	}
	name := r.FormValue("source")
	if name == "" {
		name = header.Filename
	}
	source, err := CleanSource(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	n, err := api.ingester.IngestSource(r.Context(), source, src)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		api.log.Error().Err(err).Str("source", source).Msg("document not ingested")
		http.Error(w, `{"error":"could not index document"}`, http.StatusInternalServerError)
		return
	}
	if n > 0 {
		if err := api.persist(r.Context()); err != nil {
			http.Error(w, `{"error":"document indexed but not saved"}`, http.StatusInternalServerError)
			return
		}
	}
	api.log.Info().Str("source", source).Int("chunks", n).Msg("document uploaded")
	writeJSON(w, http.StatusCreated, UploadResponse{Source: source, Chunks: n, Unchanged: n == 0})
}

func (api *documentAPI) remove(w http.ResponseWriter, r *http.Request) {
	source, err := CleanSource(chi.URLParam(r, "*"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	existing, err := api.index.GetBySource(r.Context(), source)
	if err != nil {
		api.log.Error().Err(err).Str("source", source).Msg("looking up document")
		http.Error(w, `{"error":"could not delete document"}`, http.StatusInternalServerError)
		return
	}
	if len(existing) == 0 {
		http.Error(w, `{"error":"document not found"}`, http.StatusNotFound)
		return
	}
	if err := api.index.DeleteBySource(r.Context(), source); err != nil {
		api.log.Error().Err(err).Str("source", source).Msg("deleting document")
		http.Error(w, `{"error":"could not delete document"}`, http.StatusInternalServerError)
		return
	}
	if err := api.persist(r.Context()); err != nil {
		http.Error(w, `{"error":"document deleted but not saved"}`, http.StatusInternalServerError)
		return
	}
	api.log.Info().Str("source", source).Int("chunks", len(existing)).Msg("document deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (api *documentAPI) persist(ctx context.Context) error {
	if api.dir == "" {
		return nil
	}
	if err := api.index.Persist(ctx, api.dir); err != nil {
		api.log.Error().Err(err).Str("dir", api.dir).Msg("persisting vector store")
		return err
	}
	return nil
}
