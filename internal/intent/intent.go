// Package intent classifies utterances into a closed, versioned set of intents.
package intent

import (
	"fmt"
	"strings"
)

// TaxonomyVersion identifies the current intent enumeration. Bump it whenever
// an intent is added, removed or renamed.
const TaxonomyVersion = "2"

// Intent is a member of the closed intent enumeration.
type Intent string

const (
	Greeting    Intent = "greeting"
	Goodbye     Intent = "goodbye"
	Fees        Intent = "fees"
	Admission   Intent = "admission"
	Scholarship Intent = "scholarship"
	Timetable   Intent = "timetable"
	Exam        Intent = "exam"
	Documents   Intent = "documents"
	Contact     Intent = "contact"
	Hostel      Intent = "hostel"
	Library     Intent = "library"
	// HumanAgent is an explicit request to talk to a person.
	HumanAgent Intent = "human_agent"
	General    Intent = "general"
	Unknown    Intent = "unknown"
)

var all = []Intent{
	Greeting, Goodbye, Fees, Admission, Scholarship, Timetable, Exam,
	Documents, Contact, Hostel, Library, HumanAgent, General, Unknown,
}

var aliases = map[string]Intent{
	"fee":       Fees,
	"fee_query": Fees,
	"document":  Documents,
	"human":     HumanAgent,
	"other":     Unknown,
}

// All returns every intent in declaration order.
func All() []Intent {
	out := make([]Intent, len(all))
	copy(out, all)
	return out
}

// Parse maps a string to an Intent, accepting legacy aliases.
func Parse(s string) (Intent, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, in := range all {
		if string(in) == s {
			return in, nil
		}
	}
	if in, ok := aliases[s]; ok {
		return in, nil
	}
	return Unknown, fmt.Errorf("unknown intent %q", s)
}

// IsSmallTalk reports whether the intent is conversational rather than a question.
func (i Intent) IsSmallTalk() bool {
	return i == Greeting || i == Goodbye
}

// IsDomain reports whether the intent names a topic FAQs and documents can answer.
func (i Intent) IsDomain() bool {
	switch i {
	case Fees, Admission, Scholarship, Timetable, Exam, Documents, Contact, Hostel, Library, General:
		return true
	}
	return false
}

// Category returns the FAQ category suggestions are drawn from.
// Unknown and small talk map to General.
func (i Intent) Category() Intent {
	if i.IsDomain() {
		return i
	}
	return General
}
