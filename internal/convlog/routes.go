package convlog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/faqbot/internal/chat"
)

// DefaultStatsWindow is the stats period when since is not given.
const DefaultStatsWindow = 24 * time.Hour

// maxLogLimit caps GET /api/admin/logs.
const maxLogLimit = 500

// StatsResponse is the body of GET /api/admin/stats.
type StatsResponse struct {
	Since      time.Time             `json:"since"`
	Total      int                   `json:"total"`
	Strategies map[chat.Strategy]int `json:"strategies"`
	Written    int64                 `json:"written"`
	Dropped    int64                 `json:"dropped"`
}

// RegisterRoutes mounts the conversation log admin API.
func RegisterRoutes(r chi.Router, sink *SQLiteSink) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/logs", handleLogs(sink))
		r.Get("/stats", handleStats(sink, time.Now))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func handleLogs(sink *SQLiteSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		if sessionID == "" {
			http.Error(w, `{"error":"session_id is required"}`, http.StatusBadRequest)
			return
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, `{"error":"limit must be a positive integer"}`, http.StatusBadRequest)
				return
			}
			limit = min(n, maxLogLimit)
		}

		recs, err := sink.Recent(r.Context(), sessionID, limit)
		if err != nil {
			sink.log.Error().Err(err).Str("session_id", sessionID).Msg("listing conversation turns")
			http.Error(w, `{"error":"could not read the conversation log"}`, http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// handleStats accepts since as RFC 3339 or as a duration back from now
// ("6h").
func handleStats(sink *SQLiteSink, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := now().Add(-DefaultStatsWindow)
		if v := r.URL.Query().Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				since = t
			} else if d, err := time.ParseDuration(v); err == nil && d > 0 {
				since = now().Add(-d)
			} else {
				http.Error(w, `{"error":"since must be an RFC 3339 time or a positive duration"}`, http.StatusBadRequest)
				return
			}
		}

		counts, err := sink.StrategyCounts(r.Context(), since)
		if err != nil {
			sink.log.Error().Err(err).Msg("counting conversation turns")
			http.Error(w, `{"error":"could not read the conversation log"}`, http.StatusInternalServerError)
			return
		}
		resp := StatsResponse{
			Since:      since.UTC(),
			Strategies: make(map[chat.Strategy]int, len(chat.Strategies())),
			Written:    sink.Written(),
			Dropped:    sink.Dropped(),
		}
		for _, st := range chat.Strategies() {
			resp.Strategies[st] = counts[st]
			resp.Total += counts[st]
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
