package convlog

import (
	"context"
	"testing"
	"time"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/db"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/logging"
	"github.com/ziadkadry99/faqbot/internal/session"
)

func openSink(t *testing.T, buffer int) (*SQLiteSink, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewSQLiteSink(database, buffer, logging.Nop()), database
}

func turn(seq int64, strategy chat.Strategy) session.Turn {
	return session.Turn{
		Seq:              seq,
		Utterance:        lang.Utterance{Raw: "what are the fees", Language: lang.English},
		Intent:           intent.Fees,
		IntentConfidence: 0.7,
		Strategy:         strategy,
		Response:         "500",
		Language:         lang.English,
		Confidence:       0.9,
		Provenance:       []chat.Provenance{{Kind: chat.ProvenanceFAQ, ID: "faq-1", Score: 0.9}},
		CreatedAt:        time.Now(),
	}
}

func TestRecordAndRecent(t *testing.T) {
	sink, _ := openSink(t, 16)
	sink.Record("s1", turn(1, chat.StrategyFAQ))
	sink.Record("s1", turn(2, chat.StrategyHandoff))
	sink.Record("s2", turn(1, chat.StrategyRAG))

	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sink.Written() != 3 {
		t.Fatalf("written = %d, want 3", sink.Written())
	}

	recs, err := sink.Recent(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Seq != 1 || recs[1].Seq != 2 {
		t.Errorf("records out of order: %d, %d", recs[0].Seq, recs[1].Seq)
	}
	if recs[0].Strategy != chat.StrategyFAQ || recs[0].Intent != intent.Fees {
		t.Errorf("record fields = %+v", recs[0])
	}
	if len(recs[0].Provenance) != 1 || recs[0].Provenance[0].ID != "faq-1" {
		t.Errorf("provenance = %+v", recs[0].Provenance)
	}
}

func TestRecentLimitKeepsNewest(t *testing.T) {
	sink, _ := openSink(t, 16)
	for i := int64(1); i <= 5; i++ {
		sink.Record("s1", turn(i, chat.StrategyGenerative))
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	recs, err := sink.Recent(context.Background(), "s1", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].Seq != 4 || recs[1].Seq != 5 {
		t.Errorf("got %+v, want seq 4 and 5", recs)
	}
}

func TestStrategyCounts(t *testing.T) {
	sink, _ := openSink(t, 16)
	sink.Record("a", turn(1, chat.StrategyFAQ))
	sink.Record("b", turn(1, chat.StrategyFAQ))
	sink.Record("c", turn(1, chat.StrategyHandoff))
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	counts, err := sink.StrategyCounts(context.Background(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("StrategyCounts: %v", err)
	}
	if counts[chat.StrategyFAQ] != 2 || counts[chat.StrategyHandoff] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	sink, _ := openSink(t, 1)
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	sink.Record("s1", turn(1, chat.StrategyFAQ))
	if sink.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", sink.Dropped())
	}
	// Closing twice is fine.
	if err := sink.Close(context.Background()); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestRecordNeverBlocks(t *testing.T) {
	sink, _ := openSink(t, 1)
	done := make(chan struct{})
	go func() {
		for i := int64(1); i <= 200; i++ {
			sink.Record("s1", turn(i, chat.StrategyFAQ))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Record blocked")
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sink.Written()+sink.Dropped() != 200 {
		t.Errorf("written %d + dropped %d != 200", sink.Written(), sink.Dropped())
	}
}

func TestReusedSessionIDKeepsBothConversations(t *testing.T) {
	sink, database := openSink(t, 16)
	first := turn(1, chat.StrategyFAQ)
	first.ID = "turn-a"
	second := turn(1, chat.StrategyRAG)
	second.ID = "turn-b"
	sink.Record("sid", first)
	sink.Record("sid", second)
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var rows int
	if err := database.QueryRow(`SELECT COUNT(*) FROM conversation_turns WHERE session_id = 'sid'`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 2 || sink.Written() != 2 || sink.Dropped() != 0 {
		t.Fatalf("rows=%d written=%d dropped=%d, want 2/2/0", rows, sink.Written(), sink.Dropped())
	}

	recs, err := sink.Recent(context.Background(), "sid", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "turn-a" || recs[1].ID != "turn-b" {
		t.Errorf("Recent = %+v, want turn-a then turn-b", recs)
	}
}

func TestDuplicateTurnIDIsCountedAsDropped(t *testing.T) {
	sink, _ := openSink(t, 16)
	tr := turn(1, chat.StrategyFAQ)
	tr.ID = "same"
	sink.Record("s1", tr)
	sink.Record("s1", tr)
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sink.Written() != 1 || sink.Dropped() != 1 {
		t.Errorf("written=%d dropped=%d, want 1/1", sink.Written(), sink.Dropped())
	}
}
