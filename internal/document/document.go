// Package document defines the data types that flow through the ingestion
// pipeline: raw extracted text units and the overlapping chunks cut from them.
package document

// Raw is one unit of text extracted from a source file, together with its
// source metadata. A single file may yield several Raw values (for example
// one per PDF page). Raw values are never mutated after creation.
type Raw struct {
	// Text is the extracted plain text.
	Text string

	// Metadata describes the origin of the text (source path, page number,
	// format). Values are strings so they round-trip cleanly through the
	// vector store payload.
	Metadata map[string]string

	// Source is the path of the file the text was extracted from.
	Source string
}

// Chunk is a bounded, overlapping window over a parent Raw's text, prepared
// for embedding.
type Chunk struct {
	// Text is the window content. Always non-empty after trimming.
	Text string

	// Metadata is inherited unmodified from the parent Raw.
	Metadata map[string]string

	// Sequence is the zero-based position of the chunk within its parent.
	Sequence int
}

// CopyMetadata returns a shallow copy of a metadata map. Chunks inherit
// their parent's metadata by copy so later stages cannot alias each other.
func CopyMetadata(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
