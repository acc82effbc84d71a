package loader

import (
	"fmt"
	"strconv"

	"github.com/ledongthuc/pdf"

	"github.com/ale-uy/profilerag/internal/document"
)

// PDF splits a PDF into one raw document per page, so page numbers survive
// into the stored payload metadata.
type PDF struct{}

// Extract opens the file and extracts the plain text of every page. Pages
// that fail text extraction are skipped; the error is only returned when
// the file itself cannot be opened or no page yields text.
func (PDF) Extract(path string) ([]document.Raw, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var docs []document.Raw
	var lastErr error
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			lastErr = err
			continue
		}
		if text == "" {
			continue
		}

		docs = append(docs, document.Raw{
			Text: text,
			Metadata: map[string]string{
				"source": path,
				"format": "pdf",
				"page":   strconv.Itoa(i),
			},
			Source: path,
		})
	}

	if len(docs) == 0 && lastErr != nil {
		return nil, fmt.Errorf("extracting pdf text: %w", lastErr)
	}
	return docs, nil
}
