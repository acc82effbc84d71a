package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ale-uy/profilerag/internal/chunker"
	"github.com/ale-uy/profilerag/internal/document"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    chunker.Config
		wantError bool
	}{
		{
			name:      "defaults are valid",
			config:    chunker.Config{WindowSize: 1000, Overlap: 200},
			wantError: false,
		},
		{
			name:      "zero overlap is valid",
			config:    chunker.Config{WindowSize: 100, Overlap: 0},
			wantError: false,
		},
		{
			name:      "negative window",
			config:    chunker.Config{WindowSize: -1, Overlap: 0},
			wantError: true,
		},
		{
			name:      "overlap equals window",
			config:    chunker.Config{WindowSize: 100, Overlap: 100},
			wantError: true,
		},
		{
			name:      "overlap exceeds window",
			config:    chunker.Config{WindowSize: 100, Overlap: 150},
			wantError: true,
		},
		{
			name:      "negative overlap",
			config:    chunker.Config{WindowSize: 100, Overlap: -5},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := chunker.New(chunker.Config{WindowSize: 100, Overlap: 100})
	assert.Error(t, err)
}

func TestConfigApplyDefaults(t *testing.T) {
	tests := []struct {
		name        string
		config      chunker.Config
		wantWindow  int
		wantOverlap int
	}{
		{
			name:        "both unset",
			config:      chunker.Config{},
			wantWindow:  chunker.DefaultWindowSize,
			wantOverlap: chunker.DefaultOverlap,
		},
		{
			name:        "explicit zero overlap with window kept",
			config:      chunker.Config{WindowSize: 10, Overlap: 0},
			wantWindow:  10,
			wantOverlap: 0,
		},
		{
			name:        "overlap set without window",
			config:      chunker.Config{Overlap: 50},
			wantWindow:  chunker.DefaultWindowSize,
			wantOverlap: 50,
		},
		{
			name:        "both set untouched",
			config:      chunker.Config{WindowSize: 500, Overlap: 120},
			wantWindow:  500,
			wantOverlap: 120,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.ApplyDefaults()
			assert.Equal(t, tt.wantWindow, tt.config.WindowSize)
			assert.Equal(t, tt.wantOverlap, tt.config.Overlap)
		})
	}
}

func TestSplitZeroOverlapDisjointWindows(t *testing.T) {
	// An explicit zero overlap must survive construction even for windows
	// smaller than the default overlap.
	c, err := chunker.New(chunker.Config{WindowSize: 10, Overlap: 0})
	require.NoError(t, err)

	chunks := c.Split([]document.Raw{{Text: "0123456789abcdefghij"}})
	require.Len(t, chunks, 2)
	assert.Equal(t, "0123456789", chunks[0].Text)
	assert.Equal(t, "abcdefghij", chunks[1].Text)

	// Large window, zero overlap: the second window starts exactly where
	// the first one ends, so 1500 chars yield chunks of 1000 and 500.
	c, err = chunker.New(chunker.Config{WindowSize: 1000, Overlap: 0})
	require.NoError(t, err)

	chunks = c.Split([]document.Raw{{Text: strings.Repeat("x", 1500)}})
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Text, 1000)
	assert.Len(t, chunks[1].Text, 500)
}

func TestSplitEmptyInput(t *testing.T) {
	c, err := chunker.New(chunker.Config{})
	require.NoError(t, err)

	assert.Empty(t, c.Split(nil))
	assert.Empty(t, c.Split([]document.Raw{}))
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 1000, Overlap: 200})
	require.NoError(t, err)

	docs := []document.Raw{{Text: "short document", Metadata: map[string]string{"source": "cv.txt"}}}
	chunks := c.Split(docs)

	require.Len(t, chunks, 1)
	assert.Equal(t, "short document", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Sequence)
	assert.Equal(t, "cv.txt", chunks[0].Metadata["source"])
}

func TestSplitWindowAndOverlap(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 1000, Overlap: 200})
	require.NoError(t, err)

	// 2500 characters: windows start at 0, 800, 1600 and the last one is
	// truncated at the document end.
	text := strings.Repeat("a", 1200) + strings.Repeat("b", 1300)
	chunks := c.Split([]document.Raw{{Text: text}})

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 1000)
	assert.Len(t, chunks[1].Text, 1000)
	assert.Len(t, chunks[2].Text, 900)

	// Consecutive chunks share exactly the overlap.
	assert.Equal(t, chunks[0].Text[800:], chunks[1].Text[:200])
	assert.Equal(t, chunks[1].Text[800:], chunks[2].Text[:200])

	// Dropping each chunk's leading overlap reconstructs the document.
	rebuilt := chunks[0].Text + chunks[1].Text[200:] + chunks[2].Text[200:]
	assert.Equal(t, text, rebuilt)
}

func TestSplitExactWindowNoTrailingChunk(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 100, Overlap: 20})
	require.NoError(t, err)

	// Text ends exactly on a window boundary; no empty trailing chunk.
	text := strings.Repeat("x", 100)
	chunks := c.Split([]document.Raw{{Text: text}})

	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSplitDropsWhitespaceOnlyChunks(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 10, Overlap: 0})
	require.NoError(t, err)

	// Second window is all spaces and must be dropped; sequence numbers
	// stay contiguous over the kept chunks.
	text := "0123456789" + strings.Repeat(" ", 10) + "abcdefghij"
	chunks := c.Split([]document.Raw{{Text: text}})

	require.Len(t, chunks, 2)
	assert.Equal(t, "0123456789", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Sequence)
	assert.Equal(t, "abcdefghij", chunks[1].Text)
	assert.Equal(t, 1, chunks[1].Sequence)
}

func TestSplitWhitespaceOnlyDocumentYieldsNothing(t *testing.T) {
	c, err := chunker.New(chunker.Config{})
	require.NoError(t, err)

	chunks := c.Split([]document.Raw{{Text: "   \n\t  "}})
	assert.Empty(t, chunks)
}

func TestSplitSequenceRestartsPerDocument(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 10, Overlap: 0})
	require.NoError(t, err)

	docs := []document.Raw{
		{Text: strings.Repeat("a", 25), Metadata: map[string]string{"source": "one"}},
		{Text: strings.Repeat("b", 15), Metadata: map[string]string{"source": "two"}},
	}
	chunks := c.Split(docs)

	require.Len(t, chunks, 5)
	assert.Equal(t, []int{0, 1, 2, 0, 1}, []int{
		chunks[0].Sequence, chunks[1].Sequence, chunks[2].Sequence,
		chunks[3].Sequence, chunks[4].Sequence,
	})
	assert.Equal(t, "one", chunks[2].Metadata["source"])
	assert.Equal(t, "two", chunks[3].Metadata["source"])
}

func TestSplitCopiesMetadata(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 10, Overlap: 0})
	require.NoError(t, err)

	meta := map[string]string{"source": "cv.txt"}
	chunks := c.Split([]document.Raw{{Text: strings.Repeat("a", 25), Metadata: meta}})
	require.Len(t, chunks, 3)

	// Mutating one chunk's metadata must not leak into siblings or the
	// original document.
	chunks[0].Metadata["source"] = "mutated"
	assert.Equal(t, "cv.txt", chunks[1].Metadata["source"])
	assert.Equal(t, "cv.txt", meta["source"])
}

func TestSplitUnicodeBoundaries(t *testing.T) {
	c, err := chunker.New(chunker.Config{WindowSize: 4, Overlap: 0})
	require.NoError(t, err)

	// Window boundaries count runes, never bytes, so multi-byte characters
	// are never cut in half.
	chunks := c.Split([]document.Raw{{Text: "日本語のテキスト"}})
	require.Len(t, chunks, 2)
	assert.Equal(t, "日本語の", chunks[0].Text)
	assert.Equal(t, "テキスト", chunks[1].Text)
}
