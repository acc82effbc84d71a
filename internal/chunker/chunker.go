// Package chunker splits raw documents into overlapping fixed-size windows
// suitable for embedding.
package chunker

import (
	"fmt"
	"strings"

	"github.com/ale-uy/profilerag/internal/document"
)

// Default window parameters, matching the splitter the ingestion flow was
// tuned against (1000-character windows with 200 characters of overlap).
const (
	DefaultWindowSize = 1000
	DefaultOverlap    = 200
)

// Config controls the sliding window.
type Config struct {
	// WindowSize is the maximum chunk length in characters (runes).
	WindowSize int
	// Overlap is how many characters consecutive chunks from the same
	// document share. Must be smaller than WindowSize.
	Overlap int
}

// ApplyDefaults sets default values for unset fields. A zero WindowSize is
// always unset (zero is never valid), but a zero Overlap is a legitimate
// setting: it is only defaulted together with an unset window, so an explicit
// zero-overlap configuration is honored.
func (c *Config) ApplyDefaults() {
	if c.WindowSize == 0 {
		if c.Overlap == 0 {
			c.Overlap = DefaultOverlap
		}
		c.WindowSize = DefaultWindowSize
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got %d", c.WindowSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.WindowSize {
		return fmt.Errorf("overlap must be in [0, window size), got %d", c.Overlap)
	}
	return nil
}

// Chunker cuts documents into overlapping windows.
type Chunker struct {
	window  int
	overlap int
}

// New creates a Chunker from the given configuration.
func New(cfg Config) (*Chunker, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &Chunker{window: cfg.WindowSize, overlap: cfg.Overlap}, nil
}

// Split produces the chunk sequence for a batch of raw documents.
//
// For each document a window of WindowSize characters slides over the text,
// advancing by WindowSize-Overlap each step. The final partial window is
// kept when non-empty. Chunks whose trimmed text is empty are dropped.
// Sequence indices restart at 0 for every document; metadata is inherited
// by copy. An empty input yields an empty output, never an error.
func (c *Chunker) Split(docs []document.Raw) []document.Chunk {
	var chunks []document.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.splitOne(doc)...)
	}
	return chunks
}

func (c *Chunker) splitOne(doc document.Raw) []document.Chunk {
	text := []rune(doc.Text)
	stride := c.window - c.overlap

	var chunks []document.Chunk
	seq := 0
	for start := 0; start < len(text); start += stride {
		end := start + c.window
		if end > len(text) {
			end = len(text)
		}

		window := string(text[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, document.Chunk{
				Text:     window,
				Metadata: document.CopyMetadata(doc.Metadata),
				Sequence: seq,
			})
			seq++
		}

		if end == len(text) {
			break
		}
	}
	return chunks
}
