// Package faq holds the FAQ collection: its persistent store, the immutable
// snapshot served to readers, and the matcher that scores entries against
// utterances.
package faq

import (
	"time"

	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

// Entry is one question/answer pair in a single language.
type Entry struct {
	ID        string        `json:"id" yaml:"id"`
	Language  lang.Code     `json:"language" yaml:"language"`
	Question  string        `json:"question" yaml:"question"`
	Answer    string        `json:"answer" yaml:"answer"`
	Category  intent.Intent `json:"category" yaml:"category"`
	Keywords  []string      `json:"keywords" yaml:"keywords"`
	CreatedAt time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"-"`
}

// Match is a scored FAQ entry.
type Match struct {
	Entry           Entry   `json:"entry"`
	Score           float64 `json:"score"`
	MatchedKeywords int     `json:"matched_keywords"`
}
