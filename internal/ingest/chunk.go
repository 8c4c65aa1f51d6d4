package ingest

import (
	"strings"
	"unicode/utf8"
)

// Default chunk geometry, in runes.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// piece is an unbreakable run of text and the separator that precedes it
// when it is not the first piece of a chunk.
type piece struct {
	text string
	sep  string
}

// Split cuts text into chunks of at most size runes. Paragraph boundaries
// are preferred, then word boundaries; a word longer than size is cut
// mid-word. Consecutive chunks share up to overlap runes of trailing pieces.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var (
		chunks []string
		cur    []piece
	)
	for _, p := range pieces(text, size) {
		if len(cur) > 0 && length(append(cur, p)) > size {
			chunks = append(chunks, join(cur))
			cur = tail(cur, overlap)
			for len(cur) > 0 && length(append(cur, p)) > size {
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		chunks = append(chunks, join(cur))
	}
	return chunks
}

func pieces(text string, size int) []piece {
	var out []piece
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			out = append(out, piece{text: para, sep: "\n\n"})
			continue
		}
		sep := "\n\n"
		for _, word := range strings.Fields(para) {
			for _, part := range cutRunes(word, size) {
				out = append(out, piece{text: part, sep: sep})
				sep = ""
			}
			sep = " "
		}
	}
	return out
}

func cutRunes(s string, size int) []string {
	if utf8.RuneCountInString(s) <= size {
		return []string{s}
	}
	var parts []string
	runes := []rune(s)
	for len(runes) > size {
		parts = append(parts, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func length(ps []piece) int {
	n := 0
	for i, p := range ps {
		if i > 0 {
			n += utf8.RuneCountInString(p.sep)
		}
		n += utf8.RuneCountInString(p.text)
	}
	return n
}

func join(ps []piece) string {
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteString(p.sep)
		}
		b.WriteString(p.text)
	}
	return b.String()
}

// tail returns the longest suffix of ps no longer than overlap runes.
func tail(ps []piece, overlap int) []piece {
	i := len(ps)
	for i > 0 && length(ps[i-1:]) <= overlap {
		i--
	}
	out := make([]piece, len(ps)-i)
	copy(out, ps[i:])
	return out
}
