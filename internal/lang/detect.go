package lang

import (
	"context"
	"unicode"
)

// Detector identifies the language of a text.
type Detector interface {
	Detect(ctx context.Context, text string) (Code, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, text string) (Code, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, text string) (Code, error) {
	return f(ctx, text)
}

type script struct {
	code  Code
	table *unicode.RangeTable
}

// Devanagari is shared by Hindi and Marathi; it resolves to Hindi unless declared.
var scripts = []script{
	{Hindi, unicode.Devanagari},
	{Bengali, unicode.Bengali},
	{Tamil, unicode.Tamil},
	{Telugu, unicode.Telugu},
}

const (
	scriptShare = 0.3
	asciiShare  = 0.7
)

// ScriptDetector guesses the language from the Unicode scripts of the text.
// It never fails and does no I/O.
type ScriptDetector struct {
	// Default is returned when no script dominates.
	Default Code
}

// Detect implements Detector.
func (d ScriptDetector) Detect(_ context.Context, text string) (Code, error) {
	return d.detect(text), nil
}

func (d ScriptDetector) detect(text string) Code {
	def := d.Default
	if def == "" {
		def = English
	}

	counts := make([]int, len(scripts))
	ascii, total := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		matched := false
		for i, s := range scripts {
			if unicode.Is(s.table, r) {
				counts[i]++
				matched = true
				break
			}
		}
		if !matched && r <= unicode.MaxASCII {
			ascii++
		}
	}
	if total == 0 {
		return def
	}

	best := -1
	for i, n := range counts {
		if float64(n)/float64(total) > scriptShare && (best < 0 || n > counts[best]) {
			best = i
		}
	}
	if best >= 0 {
		return scripts[best].code
	}
	if float64(ascii)/float64(total) > asciiShare {
		return English
	}
	return def
}
