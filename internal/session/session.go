// Package session is the Context Store: per-session turn history and slots,
// serialized per session id and expired after inactivity.
package session

import (
	"errors"
	"time"

	"github.com/ziadkadry99/faqbot/internal/chat"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
)

// ErrSessionExpired is returned for sessions that idled past the timeout or
// were explicitly expired. Callers must start a new session.
var ErrSessionExpired = errors.New("session expired")

// ErrTooManySessions is returned when a new session id arrives while the
// store already holds its maximum number of live sessions.
var ErrTooManySessions = errors.New("too many active sessions")

// ErrReleased is returned when a released Handle is used.
var ErrReleased = errors.New("session handle released")

// Turn is one exchange. It is immutable once appended.
type Turn struct {
	ID               string            `json:"id"`
	Seq              int64             `json:"seq"`
	Utterance        lang.Utterance    `json:"utterance"`
	Intent           intent.Intent     `json:"intent"`
	IntentConfidence float64           `json:"intent_confidence"`
	Strategy         chat.Strategy     `json:"strategy"`
	Response         string            `json:"response"`
	Language         lang.Code         `json:"language"`
	Confidence       float64           `json:"confidence"`
	Provenance       []chat.Provenance `json:"provenance"`
	Degraded         bool              `json:"degraded,omitempty"`
	Slots            map[string]string `json:"slots,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Session is a copy of a session's state at the time it was read.
type Session struct {
	ID           string            `json:"id"`
	Turns        []Turn            `json:"turns"`
	Slots        map[string]string `json:"slots"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// Intents returns the intents of the session's turns, oldest first.
func (s Session) Intents() []intent.Intent {
	out := make([]intent.Intent, len(s.Turns))
	for i, t := range s.Turns {
		out[i] = t.Intent
	}
	return out
}

func (t Turn) clone() Turn {
	t.Provenance = append([]chat.Provenance(nil), t.Provenance...)
	t.Slots = copyMap(t.Slots)
	return t
}

func (s Session) clone() Session {
	out := s
	out.Turns = make([]Turn, len(s.Turns))
	for i, t := range s.Turns {
		out.Turns[i] = t.clone()
	}
	out.Slots = copyMap(s.Slots)
	if out.Slots == nil {
		out.Slots = map[string]string{}
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
