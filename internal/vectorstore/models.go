// Package vectorstore manages the Qdrant collection that holds embedded
// document chunks.
package vectorstore

import (
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to Qdrant")

	// ErrEmptyPoints indicates an upsert with no points.
	ErrEmptyPoints = errors.New("empty or nil points")
)

// Point is the terminal artifact of one chunk: its run-positional ID, its
// embedding, and the payload returned to query-time consumers.
type Point struct {
	// ID is assigned positionally within a run (0..n-1). Re-running
	// ingestion over the same sources reuses the same range, so points
	// overwrite in place instead of accumulating.
	ID uint64

	// Vector is the chunk's embedding.
	Vector []float32

	// Payload is stored alongside the vector and returned by search.
	Payload Payload
}

// Payload is the non-vector data attached to a stored point. The field
// names match what the downstream query consumers expect.
type Payload struct {
	PageContent string
	Metadata    map[string]string
}

// SearchResult is one nearest-neighbor hit.
type SearchResult struct {
	Score       float32
	PageContent string
	Metadata    map[string]string
}

// CollectionInfo describes a live collection.
type CollectionInfo struct {
	Name       string
	VectorSize uint64
	PointCount uint64
}

// ParseDistance maps a config string to the Qdrant distance metric.
func ParseDistance(name string) (qdrant.Distance, error) {
	switch name {
	case "cosine", "":
		return qdrant.Distance_Cosine, nil
	case "euclid":
		return qdrant.Distance_Euclid, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("%w: unknown distance metric %q", ErrInvalidConfig, name)
	}
}

// qdrantPayload converts a Payload to the Qdrant wire representation:
// {"page_content": <text>, "metadata": {<string fields>}}.
func qdrantPayload(p Payload) map[string]*qdrant.Value {
	meta := make(map[string]*qdrant.Value, len(p.Metadata))
	for k, v := range p.Metadata {
		meta[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	}
	return map[string]*qdrant.Value{
		"page_content": {Kind: &qdrant.Value_StringValue{StringValue: p.PageContent}},
		"metadata":     {Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: meta}}},
	}
}

// parsePayload converts a Qdrant payload back into a Payload. Unknown kinds
// are dropped; search consumers only ever stored strings.
func parsePayload(fields map[string]*qdrant.Value) Payload {
	var p Payload
	if fields == nil {
		return p
	}
	if v, ok := fields["page_content"]; ok {
		p.PageContent = v.GetStringValue()
	}
	if v, ok := fields["metadata"]; ok {
		if s := v.GetStructValue(); s != nil {
			p.Metadata = make(map[string]string, len(s.Fields))
			for k, mv := range s.Fields {
				if str := mv.GetStringValue(); str != "" {
					p.Metadata[k] = str
				}
			}
		}
	}
	return p
}
