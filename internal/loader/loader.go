// Package loader walks document source directories and extracts raw text
// from the files it understands.
package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ale-uy/profilerag/internal/document"
)

// Extractor extracts the text content of one file. A single file may yield
// several raw documents (for example one per PDF page). Implementations
// must not mutate the returned values after extraction.
type Extractor interface {
	Extract(path string) ([]document.Raw, error)
}

// defaultSkipDirs are directories that are never descended into. They hold
// generated code, dependencies, or version control data.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"dist":         true,
	"build":        true,
}

// Loader dispatches files to format extractors keyed by extension.
type Loader struct {
	extractors map[string]Extractor
	logger     *zap.Logger
}

// New creates a Loader with the default extension registry: PDF, Markdown
// and DOCX get format-aware extraction, common text and code extensions get
// a plain passthrough.
func New(logger *zap.Logger) *Loader {
	l := &Loader{
		extractors: make(map[string]Extractor),
		logger:     logger.Named("loader"),
	}

	l.Register(".pdf", PDF{})
	l.Register(".md", Markdown{})
	l.Register(".docx", DOCX{})

	plain := PlainText{}
	for _, ext := range []string{".txt", ".py", ".js", ".ts", ".html", ".css", ".ipynb"} {
		l.Register(ext, plain)
	}

	return l
}

// Register maps a file extension (with leading dot, lowercase) to an
// extractor, replacing any previous registration.
func (l *Loader) Register(ext string, e Extractor) {
	l.extractors[strings.ToLower(ext)] = e
}

// LoadDirectory recursively walks root and extracts every registered file.
//
// Files with unregistered extensions are skipped silently. A file that
// fails extraction is logged and skipped; it never aborts the directory.
// A missing root logs a warning and yields an empty result, since source
// directories are optional. The only returned error is context
// cancellation.
func (l *Loader) LoadDirectory(ctx context.Context, root string) ([]document.Raw, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		l.logger.Warn("source directory missing, skipping",
			zap.String("dir", root))
		return nil, nil
	}

	var docs []document.Raw
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Error("walk error, skipping entry",
				zap.String("path", path),
				zap.Error(err))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if defaultSkipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		extractor, ok := l.extractors[ext]
		if !ok {
			return nil
		}

		extracted, err := extractor.Extract(path)
		if err != nil {
			l.logger.Error("failed to extract file, skipping",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}
		docs = append(docs, extracted...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("directory loaded",
		zap.String("dir", root),
		zap.Int("documents", len(docs)))
	return docs, nil
}
