package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	_, err := Split("", DefaultChunkSize, DefaultOverlap)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Split("   \n\t  ", DefaultChunkSize, DefaultOverlap)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks, err := Split("hello world", DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitLongTextProducesOverlappingChunks(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		sb.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	text := sb.String()

	chunks, err := Split(text, 1000, 200)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, len([]rune(c.Content)), 1000)
		assert.NotEmpty(t, c.Content)
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("This is sentence number one. Here comes another sentence. ")
	}

	chunks, err := Split(sb.String(), 500, 100)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Every chunk except possibly the last should end on a sentence boundary.
	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c.Content, "."), "chunk should end at a sentence break: %q", c.Content[len(c.Content)-20:])
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	text := strings.Repeat("Paragraph one has content.\n\nParagraph two has more.\n\n", 60)

	first, err := Split(text, 800, 150)
	require.NoError(t, err)
	second, err := Split(text, 800, 150)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplitHandlesMultiByteRunes(t *testing.T) {
	text := strings.Repeat("日本語のテキストです。これは埋め込みのテストです。 ", 200)

	chunks, err := Split(text, 400, 80)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// No chunk should contain broken UTF-8.
	for _, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c.Content, "�") == c.Content)
	}
}

func TestSplitNoContentLost(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("Unique marker ")
		sb.WriteRune(rune('A' + i%26))
		sb.WriteString(" ends here. ")
	}
	text := sb.String()

	chunks, err := Split(text, 200, 50)
	require.NoError(t, err)

	joined := ""
	for _, c := range chunks {
		joined += c.Content + " "
	}
	// Overlap duplicates text but must never drop it.
	for _, marker := range []string{"Unique marker A", "Unique marker Z"} {
		if strings.Contains(text, marker) {
			assert.Contains(t, joined, marker)
		}
	}
}
