package convlog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/faqbot/internal/chat"
)

func newTestRouter(t *testing.T) (*chi.Mux, *SQLiteSink) {
	t.Helper()
	sink, _ := openSink(t, 16)
	sink.Record("s1", turn(1, chat.StrategyFAQ))
	sink.Record("s1", turn(2, chat.StrategyHandoff))
	sink.Record("s1", turn(3, chat.StrategyFAQ))
	sink.Record("s2", turn(1, chat.StrategyRAG))
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r := chi.NewRouter()
	RegisterRoutes(r, sink)
	return r, sink
}

func TestRoutesLogs(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs?session_id=s1&limit=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var recs []Record
	if err := json.NewDecoder(w.Body).Decode(&recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Seq != 2 || recs[1].Seq != 3 {
		t.Errorf("logs = %+v, want seq 2 and 3", recs)
	}
	if recs[0].SessionID != "s1" || recs[0].Strategy != chat.StrategyHandoff {
		t.Errorf("first record = %+v", recs[0])
	}
}

func TestRoutesLogsUnknownSessionIsEmptyList(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/logs?session_id=nobody", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestRoutesLogsRejectsBadQuery(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, target := range []string{
		"/api/admin/logs",
		"/api/admin/logs?session_id=s1&limit=0",
		"/api/admin/logs?session_id=s1&limit=many",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, w.Code)
		}
	}
}

func TestRoutesStats(t *testing.T) {
	r, sink := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp StatsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 4 {
		t.Errorf("total = %d, want 4", resp.Total)
	}
	want := map[chat.Strategy]int{
		chat.StrategyFAQ:        2,
		chat.StrategyRAG:        1,
		chat.StrategyGenerative: 0,
		chat.StrategyHandoff:    1,
	}
	for st, n := range want {
		if got, ok := resp.Strategies[st]; !ok || got != n {
			t.Errorf("strategies[%s] = %d (present %v), want %d", st, got, ok, n)
		}
	}
	if resp.Written != sink.Written() || resp.Dropped != 0 {
		t.Errorf("written=%d dropped=%d", resp.Written, resp.Dropped)
	}
}

func TestRoutesStatsSince(t *testing.T) {
	r, _ := newTestRouter(t)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	for _, tc := range []struct {
		since string
		total int
	}{
		{"1h", 4},
		{future, 0},
	} {
		target := "/api/admin/stats?since=" + tc.since
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", target, w.Code)
		}
		var resp StatsResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp.Total != tc.total {
			t.Errorf("%s: total = %d, want %d", target, resp.Total, tc.total)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats?since=yesterday", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
