package intent

import (
	"math"

	"github.com/ziadkadry99/faqbot/internal/terms"
)

// Result is the outcome of a classification. Confidence is in [0,1].
type Result struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Matched    []string `json:"matched,omitempty"`
	FollowUp   bool     `json:"follow_up,omitempty"`
}

// DefaultThreshold is the minimum confidence for a label to be returned.
const DefaultThreshold = 0.3

// maxFollowUpTokens bounds utterances treated as follow-ups of the previous topic.
const maxFollowUpTokens = 5

type compiledRule struct {
	intent  Intent
	weight  float64
	phrases [][]string
	labels  []string
}

// Classifier is a deterministic keyword classifier. It is safe for concurrent use.
type Classifier struct {
	threshold          float64
	followUpConfidence float64
	rules              []compiledRule
}

// NewClassifier creates a classifier. followUpConfidence is assigned to short
// follow-ups that inherit the previous topic.
func NewClassifier(threshold, followUpConfidence float64) *Classifier {
	c := &Classifier{threshold: threshold, followUpConfidence: followUpConfidence}
	for _, r := range rules {
		cr := compiledRule{intent: r.intent, weight: r.weight}
		for _, p := range r.phrases {
			cr.phrases = append(cr.phrases, terms.Tokens(p))
			cr.labels = append(cr.labels, p)
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

// Threshold returns the configured confidence threshold.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

type scored struct {
	intent  Intent
	score   float64
	matched []string
}

// Classify labels text. history holds the intents of recent turns, oldest
// first; it is read only.
func (c *Classifier) Classify(text string, history []Intent) Result {
	tokens := terms.Tokens(text)
	last := lastDomain(history)

	var best, second *scored
	var tied []Intent
	for _, r := range c.rules {
		s := scored{intent: r.intent}
		for i, p := range r.phrases {
			if containsPhrase(tokens, p) {
				s.matched = append(s.matched, r.labels[i])
			}
		}
		if len(s.matched) == 0 {
			continue
		}
		s.score = float64(len(s.matched)) * r.weight
		switch {
		case best == nil || s.score > best.score:
			second = best
			cp := s
			best = &cp
			tied = []Intent{s.intent}
		case s.score == best.score:
			cp := s
			second = &cp
			tied = append(tied, s.intent)
		case second == nil || s.score > second.score:
			cp := s
			second = &cp
		}
	}

	if best == nil {
		if last != Unknown && isFollowUp(tokens) {
			return Result{Intent: last, Confidence: clamp(c.followUpConfidence), FollowUp: true}
		}
		return Result{Intent: Unknown}
	}

	coverage := 1 - math.Pow(0.5, float64(len(best.matched)))
	margin := 1.0
	if second != nil {
		margin = best.score / (best.score + second.score)
	}

	res := Result{Intent: best.intent, Matched: best.matched}
	if len(tied) > 1 && containsIntent(tied, last) {
		// The conversation topic settles the tie.
		res.Intent = last
		res.Matched = nil
		res.FollowUp = true
		margin = 1
	}
	res.Confidence = clamp(coverage * margin)

	if res.Confidence < c.threshold {
		return Result{Intent: Unknown, Confidence: res.Confidence}
	}
	return res
}

func lastDomain(history []Intent) Intent {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsDomain() && history[i] != General {
			return history[i]
		}
	}
	return Unknown
}

func isFollowUp(tokens []string) bool {
	if len(tokens) == 0 || len(tokens) > maxFollowUpTokens {
		return false
	}
	return followUpCues[tokens[0]]
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, p := range phrase {
			if tokens[i+j] != p {
				continue outer
			}
		}
		return true
	}
	return false
}

func containsIntent(list []Intent, in Intent) bool {
	for _, v := range list {
		if v == in {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
