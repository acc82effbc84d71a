package loader

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/ale-uy/profilerag/internal/document"
)

// PlainText passes file content through unchanged. It serves text files and
// source code alike; anything that is valid UTF-8 is fair game.
type PlainText struct{}

// Extract reads the whole file as one raw document.
func (PlainText) Extract(path string) ([]document.Raw, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	// Binary files cannot be chunked or stored as payload strings.
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("file %s is not valid UTF-8", path)
	}

	return []document.Raw{{
		Text:     string(content),
		Metadata: map[string]string{"source": path},
		Source:   path,
	}}, nil
}
