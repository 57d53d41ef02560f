// Package textsplit breaks document text into overlapping chunks sized for
// embedding. Splitting is character-based; boundaries prefer paragraph and
// sentence breaks so chunks stay readable on their own.
package textsplit

import (
	"errors"
	"strings"
)

var ErrEmptyInput = errors.New("textsplit: input text is empty")

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Chunk is a single piece of split text. Index is the zero-based position of
// the chunk within the source document.
type Chunk struct {
	Content string
	Index   int
}

// Split divides text into chunks of at most chunkSize characters with the
// given overlap between consecutive chunks. Where possible the cut point is
// moved back to a paragraph break, newline, sentence end or word boundary
// rather than splitting mid-word. Splitting is deterministic: the same input
// always yields the same chunks.
func Split(text string, chunkSize int, overlap int) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}

	runes := []rune(text)
	totalLen := len(runes)

	if totalLen <= chunkSize {
		return []Chunk{{Content: strings.TrimSpace(text), Index: 0}}, nil
	}

	var chunks []Chunk
	start := 0
	index := 0

	for start < totalLen {
		end := start + chunkSize
		if end >= totalLen {
			end = totalLen
		} else {
			end = findBreak(runes, start, end)
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, Chunk{Content: content, Index: index})
			index++
		}

		if end == totalLen {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// findBreak searches backwards from end for a natural boundary, but never
// past the midpoint of the chunk so pathological inputs still make progress.
func findBreak(runes []rune, start, end int) int {
	window := string(runes[start:end])
	floor := len([]rune(window)) / 2

	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			pos := len([]rune(window[:idx]))
			if pos >= floor {
				return start + pos + len([]rune(sep))
			}
		}
	}
	return end
}
