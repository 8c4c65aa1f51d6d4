package faq

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/faqbot/internal/db"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

// Store persists FAQ entries in SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a new FAQ store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Language lang.Code
	Category intent.Intent
}

// Validate checks an entry before it is written.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Question) == "" {
		return fmt.Errorf("question is required")
	}
	if strings.TrimSpace(e.Answer) == "" {
		return fmt.Errorf("answer is required")
	}
	code, err := lang.ParseCode(string(e.Language))
	if err != nil {
		return fmt.Errorf("language: %w", err)
	}
	e.Language = code
	if e.Category == "" {
		e.Category = intent.General
	}
	cat, err := intent.Parse(string(e.Category))
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	e.Category = cat
	return nil
}

// Create inserts a new entry, assigning an ID if it has none.
func (s *Store) Create(ctx context.Context, e Entry) (*Entry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	kw, err := json.Marshal(nonNil(e.Keywords))
	if err != nil {
		return nil, fmt.Errorf("marshalling keywords: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO faqs (id, language, question, answer, category, keywords, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Language, e.Question, e.Answer, e.Category, string(kw), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting faq: %w", err)
	}
	return &e, nil
}

// Upsert inserts entries or replaces existing ones with the same ID. Replaced
// entries keep their original insertion position.
func (s *Store) Upsert(ctx context.Context, entries []Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range entries {
		e := entries[i]
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		kw, err := json.Marshal(nonNil(e.Keywords))
		if err != nil {
			return 0, fmt.Errorf("marshalling keywords: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO faqs (id, language, question, answer, category, keywords, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   language = excluded.language, question = excluded.question, answer = excluded.answer,
			   category = excluded.category, keywords = excluded.keywords, updated_at = excluded.updated_at`,
			e.ID, e.Language, e.Question, e.Answer, e.Category, string(kw), now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting faq %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing faqs: %w", err)
	}
	return len(entries), nil
}

// Get retrieves an entry by ID. It returns nil if none exists.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, language, question, answer, category, keywords, created_at, updated_at
		 FROM faqs WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting faq: %w", err)
	}
	return e, nil
}

// Update replaces the content of an existing entry. It returns nil if none exists.
func (s *Store) Update(ctx context.Context, e Entry) (*Entry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	kw, err := json.Marshal(nonNil(e.Keywords))
	if err != nil {
		return nil, fmt.Errorf("marshalling keywords: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE faqs SET language = ?, question = ?, answer = ?, category = ?, keywords = ?, updated_at = ?
		 WHERE id = ?`,
		e.Language, e.Question, e.Answer, e.Category, string(kw), time.Now().UTC(), e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating faq: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.Get(ctx, e.ID)
}

// Delete removes an entry. It reports whether the entry existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM faqs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting faq: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns entries matching the filter in insertion order.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, language, question, answer, category, keywords, created_at, updated_at
		FROM faqs WHERE 1 = 1`
	var args []interface{}
	if f.Language != "" {
		query += " AND language = ?"
		args = append(args, f.Language)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	query += " ORDER BY rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying faqs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning faq: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListEntries implements Source.
func (s *Store) ListEntries(ctx context.Context) ([]Entry, error) {
	return s.List(ctx, Filter{})
}

// Categories returns the distinct categories used in a language, sorted.
func (s *Store) Categories(ctx context.Context, code lang.Code) ([]string, error) {
	query := `SELECT DISTINCT category FROM faqs`
	var args []interface{}
	if code != "" {
		query += ` WHERE language = ?`
		args = append(args, code)
	}
	query += ` ORDER BY category`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var code, category, kw string
	if err := row.Scan(&e.ID, &code, &e.Question, &e.Answer, &category, &kw, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Language = lang.Code(code)
	e.Category = intent.Intent(category)
	if err := json.Unmarshal([]byte(kw), &e.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords of %s: %w", e.ID, err)
	}
	return &e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
