// Package lang resolves the language of an incoming utterance and
// canonicalizes its text.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Code is a supported ISO 639-1 language code.
type Code string

const (
	English Code = "en"
	Hindi   Code = "hi"
	Tamil   Code = "ta"
	Telugu  Code = "te"
	Bengali Code = "bn"
	Marathi Code = "mr"
)

var (
	// ErrUnsupportedLanguage is returned when the resolved language is outside the supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrEmptyUtterance is returned when the text is empty after canonicalization.
	ErrEmptyUtterance = errors.New("empty utterance")
)

// Info describes a known language.
type Info struct {
	Code       Code   `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

var known = []Info{
	{English, "English", "English"},
	{Hindi, "Hindi", "हिन्दी"},
	{Tamil, "Tamil", "தமிழ்"},
	{Telugu, "Telugu", "తెలుగు"},
	{Bengali, "Bengali", "বাংলা"},
	{Marathi, "Marathi", "मराठी"},
}

// Known returns every language faqbot has data for, in a stable order.
func Known() []Info {
	out := make([]Info, len(known))
	copy(out, known)
	return out
}

// Lookup returns the Info for code.
func Lookup(code Code) (Info, bool) {
	for _, info := range known {
		if info.Code == code {
			return info, true
		}
	}
	return Info{}, false
}

// ParseCode parses a BCP-47 tag ("hi", "hi-IN", "en_US", "TA") and returns its
// base language if it is a known language.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", "-"))
	if s == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnsupportedLanguage)
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	base, _ := tag.Base()
	code := Code(base.String())
	if _, ok := Lookup(code); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return code, nil
}

// ParseCodes parses a list of codes, failing on the first invalid one.
func ParseCodes(list []string) ([]Code, error) {
	out := make([]Code, 0, len(list))
	for _, s := range list {
		c, err := ParseCode(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
