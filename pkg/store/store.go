package store

import (
	"context"
	"strings"
)

// Node is a graph node as returned by traversal queries.
type Node struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// Relationship is a typed edge between two named nodes.
type Relationship struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// EntityHit is a single match from a property-text search over the graph.
type EntityHit struct {
	Name       string         `json:"name"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Stats summarizes the graph contents.
type Stats struct {
	Nodes         int64    `json:"total_nodes"`
	Relationships int64    `json:"total_relationships"`
	Labels        []string `json:"labels"`
}

// VectorRecord is a scored result from a similarity search.
type VectorRecord struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Text     string         `json:"entity"`
	Metadata map[string]any `json:"metadata"`
}

// IndexInfo describes the state of a vector collection.
type IndexInfo struct {
	Name    string `json:"name"`
	Vectors int64  `json:"vectors_count"`
	Points  int64  `json:"points_count"`
	Status  string `json:"status"`
}

// GraphStore persists entities and relationships and answers traversal
// queries over them.
type GraphStore interface {
	// UpsertEntity creates or updates a node of the given type keyed by
	// name and returns its storage id.
	UpsertEntity(ctx context.Context, entityType string, name string, properties map[string]any) (string, error)

	// UpsertRelationship creates or updates an edge between two existing
	// nodes, matched by name. It reports false when either endpoint does
	// not exist.
	UpsertRelationship(ctx context.Context, from string, to string, relType string, properties map[string]any) (bool, error)

	// EntityGraph returns the neighborhood of the named entity up to the
	// given depth, including the entity itself.
	EntityGraph(ctx context.Context, name string, depth int) ([]Node, []Relationship, error)

	// SearchEntities finds nodes whose name or property text contains the
	// query string.
	SearchEntities(ctx context.Context, query string, limit int) ([]EntityHit, error)

	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// VectorIndex stores embeddings alongside their source text and answers
// nearest-neighbor queries.
type VectorIndex interface {
	// Store inserts a record and returns its generated id.
	Store(ctx context.Context, text string, embedding []float32, metadata map[string]any) (string, error)

	// Search returns up to topK records with similarity at or above
	// threshold, best first. Filters restrict matches to records whose
	// metadata contains all given key-value pairs.
	Search(ctx context.Context, vector []float32, topK int, threshold float64, filters map[string]any) ([]VectorRecord, error)

	Delete(ctx context.Context, id string) error
	Info(ctx context.Context) (IndexInfo, error)
	Ping(ctx context.Context) error
}

// SanitizeLabel restricts an entity type to characters safe for use as a
// node label. Anything else collapses to the generic Entity label.
func SanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		return "Entity"
	}
	return out
}

// SanitizeRelationshipType normalizes a free-text predicate into a
// relationship type: uppercased, spaces become underscores, and any
// character outside [A-Z0-9_] is removed.
func SanitizeRelationshipType(predicate string) string {
	upper := strings.ToUpper(strings.TrimSpace(predicate))
	upper = strings.ReplaceAll(upper, " ", "_")

	var b strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "RELATED_TO"
	}
	return out
}
