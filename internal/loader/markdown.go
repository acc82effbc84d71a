package loader

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ale-uy/profilerag/internal/document"
)

// Markdown extracts flat prose from Markdown files by stripping the common
// markup constructs. The goal is clean text for embedding, not a faithful
// renderer.
type Markdown struct{}

var (
	mdCodeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode = regexp.MustCompile("`[^`]+`")
	mdImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis   = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	mdBlockquote = regexp.MustCompile(`(?m)^>\s?`)
	mdHRule      = regexp.MustCompile(`(?m)^(\s*[-*_]){3,}\s*$`)
)

// Extract reads the file and strips Markdown formatting into one raw document.
func (Markdown) Extract(path string) ([]document.Raw, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("file %s is not valid UTF-8", path)
	}

	return []document.Raw{{
		Text: stripMarkdown(string(content)),
		Metadata: map[string]string{
			"source": path,
			"format": "markdown",
		},
		Source: path,
	}}, nil
}

// stripMarkdown removes common markdown formatting. Simplified on purpose:
// it handles the constructs that actually occur in CV and project notes.
func stripMarkdown(content string) string {
	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdHRule.ReplaceAllString(content, "")

	// Collapse the blank-line runs left behind by removed blocks.
	lines := strings.Split(content, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
