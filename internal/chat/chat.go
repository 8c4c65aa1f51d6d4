// Package chat defines the values exchanged between the pipeline stages:
// strategies, provenance references, retrieved chunks and the final response.
package chat

import (
	"fmt"

	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

// Strategy is the path that produced a response.
type Strategy string

const (
	StrategyFAQ        Strategy = "faq"
	StrategyRAG        Strategy = "rag"
	StrategyGenerative Strategy = "generative"
	StrategyHandoff    Strategy = "handoff"
)

// Strategies lists every strategy from most to least grounded.
func Strategies() []Strategy {
	return []Strategy{StrategyFAQ, StrategyRAG, StrategyGenerative, StrategyHandoff}
}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// ProvenanceKind says what a provenance reference points at.
type ProvenanceKind string

const (
	ProvenanceFAQ   ProvenanceKind = "faq"
	ProvenanceChunk ProvenanceKind = "chunk"
)

// Provenance identifies an FAQ entry or document chunk that justifies a response.
type Provenance struct {
	Kind   ProvenanceKind `json:"kind"`
	ID     string         `json:"id"`
	Source string         `json:"source,omitempty"`
	Score  float64        `json:"score"`
}

// Chunk is one passage returned by the retrieval backend.
type Chunk struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content"`
	Language lang.Code `json:"language"`
	Score    float64   `json:"score"`
}

// Response is what the caller of HandleMessage receives.
type Response struct {
	SessionID      string        `json:"session_id"`
	TurnID         string        `json:"turn_id,omitempty"`
	Text           string        `json:"text"`
	Language       lang.Code     `json:"language"`
	Confidence     float64       `json:"confidence"`
	Strategy       Strategy      `json:"strategy"`
	Intent         intent.Intent `json:"intent"`
	Provenance     []Provenance  `json:"provenance"`
	Suggestions    []string      `json:"suggestions,omitempty"`
	Degraded       bool          `json:"degraded,omitempty"`
	DegradedReason string        `json:"degraded_reason,omitempty"`
}
