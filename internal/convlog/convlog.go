// Package convlog records completed turns for later review. Recording is
// asynchronous and never fails or slows the response path.
package convlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/db"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/session"
)

// DefaultBuffer is the number of records queued before new ones are dropped.
const DefaultBuffer = 256

// Sink receives completed turns.
type Sink interface {
	Record(sessionID string, turn session.Turn)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(string, session.Turn) {}

// Record is one stored turn.
type Record struct {
	ID               string            `json:"id"`
	SessionID        string            `json:"session_id"`
	Seq              int64             `json:"seq"`
	Language         lang.Code         `json:"language"`
	Utterance        string            `json:"utterance"`
	Intent           intent.Intent     `json:"intent"`
	IntentConfidence float64           `json:"intent_confidence"`
	Strategy         chat.Strategy     `json:"strategy"`
	Response         string            `json:"response"`
	Confidence       float64           `json:"confidence"`
	Provenance       []chat.Provenance `json:"provenance"`
	Degraded         bool              `json:"degraded"`
	CreatedAt        time.Time         `json:"created_at"`
}

// SQLiteSink writes turns to the conversation_turns table from a single
// background goroutine.
type SQLiteSink struct {
	db      *db.DB
	log     zerolog.Logger
	queue   chan Record
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	written atomic.Int64
}

// NewSQLiteSink starts the writer goroutine. Call Close to drain it.
func NewSQLiteSink(database *db.DB, buffer int, log zerolog.Logger) *SQLiteSink {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &SQLiteSink{
		db:    database,
		log:   log,
		queue: make(chan Record, buffer),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

// Record queues a turn. When the buffer is full the turn is dropped with a
// warning.
func (s *SQLiteSink) Record(sessionID string, t session.Turn) {
	rec := Record{
		ID:               t.ID,
		SessionID:        sessionID,
		Seq:              t.Seq,
		Language:         t.Language,
		Utterance:        t.Utterance.Raw,
		Intent:           t.Intent,
		IntentConfidence: t.IntentConfidence,
		Strategy:         t.Strategy,
		Response:         t.Response,
		Confidence:       t.Confidence,
		Provenance:       t.Provenance,
		Degraded:         t.Degraded,
		CreatedAt:        t.CreatedAt,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- rec:
	default:
		s.dropped.Add(1)
		s.log.Warn().Str("session_id", sessionID).Int64("seq", t.Seq).Msg("conversation log buffer full; dropping turn")
	}
}

// Dropped returns how many records were discarded: buffer overflow, after
// Close, write errors and duplicate turn IDs.
func (s *SQLiteSink) Dropped() int64 { return s.dropped.Load() }

// Written returns how many records were stored.
func (s *SQLiteSink) Written() int64 { return s.written.Load() }

// Close stops accepting records and waits until queued ones are written or
// ctx is done.
func (s *SQLiteSink) Close(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining conversation log: %w", ctx.Err())
	}
}

func (s *SQLiteSink) loop() {
	defer close(s.done)
	for rec := range s.queue {
		stored, err := s.insert(context.Background(), rec)
		switch {
		case err != nil:
			s.dropped.Add(1)
			s.log.Error().Err(err).Str("session_id", rec.SessionID).Int64("seq", rec.Seq).Msg("writing conversation turn")
		case !stored:
			s.dropped.Add(1)
			s.log.Warn().Str("session_id", rec.SessionID).Int64("seq", rec.Seq).Str("turn_id", rec.ID).
				Msg("conversation turn already logged; skipping duplicate")
		default:
			s.written.Add(1)
		}
	}
}

// insert stores rec keyed by its turn ID. It reports false when a row with
// that ID already exists. Session ids can be reused after their tombstone
// is purged, so (session_id, seq) is not unique.
func (s *SQLiteSink) insert(ctx context.Context, rec Record) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	prov := rec.Provenance
	if prov == nil {
		prov = []chat.Provenance{}
	}
	provJSON, err := json.Marshal(prov)
	if err != nil {
		return false, fmt.Errorf("marshalling provenance: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns (
			id, session_id, seq, language, utterance, intent, intent_confidence,
			strategy, response, confidence, provenance, degraded, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		rec.ID, rec.SessionID, rec.Seq, string(rec.Language), rec.Utterance,
		string(rec.Intent), rec.IntentConfidence, string(rec.Strategy), rec.Response,
		rec.Confidence, string(provJSON), rec.Degraded, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting conversation turn: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting conversation turn: %w", err)
	}
	return n == 1, nil
}

// Recent returns up to limit turns of a session, oldest first. Turns are
// ordered by insertion, so a reused session id lists its earlier
// conversation before the current one.
func (s *SQLiteSink) Recent(ctx context.Context, sessionID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, language, utterance, intent, intent_confidence,
		       strategy, response, confidence, provenance, degraded, created_at
		FROM (
			SELECT rowid AS n, * FROM conversation_turns WHERE session_id = ? ORDER BY rowid DESC LIMIT ?
		) ORDER BY n ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversation turns: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// StrategyCounts returns how many turns each strategy produced since the
// given time.
func (s *SQLiteSink) StrategyCounts(ctx context.Context, since time.Time) (map[chat.Strategy]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy, COUNT(*) FROM conversation_turns
		WHERE created_at >= ? GROUP BY strategy`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("counting strategies: %w", err)
	}
	defer rows.Close()

	out := make(map[chat.Strategy]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scanning strategy count: %w", err)
		}
		out[chat.Strategy(st)] = n
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var language, in, strategy, provJSON string
	var created sql.NullTime
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.Seq, &language, &rec.Utterance, &in,
		&rec.IntentConfidence, &strategy, &rec.Response, &rec.Confidence, &provJSON,
		&rec.Degraded, &created); err != nil {
		return nil, fmt.Errorf("scanning conversation turn: %w", err)
	}
	rec.Language = lang.Code(language)
	rec.Intent = intent.Intent(in)
	rec.Strategy = chat.Strategy(strategy)
	if created.Valid {
		rec.CreatedAt = created.Time
	}
	if err := json.Unmarshal([]byte(provJSON), &rec.Provenance); err != nil {
		return nil, fmt.Errorf("decoding provenance: %w", err)
	}
	return &rec, nil
}
