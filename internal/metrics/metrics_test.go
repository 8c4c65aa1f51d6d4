package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/router"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	return rec.Body.String()
}

func assertLine(t *testing.T, body, line string) {
	t.Helper()
	for _, l := range strings.Split(body, "\n") {
		if l == line {
			return
		}
	}
	t.Errorf("metrics output missing line %q", line)
}

func TestObserveResponse(t *testing.T) {
	m := New()
	m.ObserveResponse(chat.Response{Strategy: chat.StrategyFAQ, Language: lang.English, Confidence: 0.9}, 20*time.Millisecond)
	m.ObserveResponse(chat.Response{Strategy: chat.StrategyRAG, Language: lang.English, Confidence: 0.6, Degraded: true}, time.Second)

	body := scrape(t, m)
	assertLine(t, body, `faqbot_turns_total{language="en",strategy="faq"} 1`)
	assertLine(t, body, `faqbot_degraded_responses_total{language="en"} 1`)
	assertLine(t, body, `faqbot_handle_message_seconds_count{strategy="rag"} 1`)
}

func TestRouterObserver(t *testing.T) {
	m := New()
	m.StateVisited(router.FAQCheck, false)
	m.StateVisited(router.DocRetrieval, true)
	m.BackendFailed(router.DocRetrieval, &router.BackendError{Backend: router.BackendRetrieval, Op: "search", Timeout: true, Err: errors.New("deadline")})

	body := scrape(t, m)
	assertLine(t, body, `faqbot_router_states_total{accepted="false",state="FAQ_CHECK"} 1`)
	assertLine(t, body, `faqbot_router_states_total{accepted="true",state="DOC_RETRIEVAL"} 1`)
	assertLine(t, body, `faqbot_backend_errors_total{backend="retrieval",state="DOC_RETRIEVAL",timeout="true"} 1`)
}

func TestRuntimeCollectors(t *testing.T) {
	body := scrape(t, New())
	if !strings.Contains(body, "go_goroutines") {
		t.Error("go runtime collector not registered")
	}
}
