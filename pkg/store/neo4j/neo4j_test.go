package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func node(elementID, label, name string) neo4j.Node {
	return neo4j.Node{
		ElementId: elementID,
		Labels:    []string{label},
		Props:     map[string]any{"name": name},
	}
}

func rel(elementID, start, end, relType string) neo4j.Relationship {
	return neo4j.Relationship{
		ElementId:      elementID,
		StartElementId: start,
		EndElementId:   end,
		Type:           relType,
		Props:          map[string]any{},
	}
}

// A two-hop row can carry an edge whose interior node only appears in a
// later, shorter-path row. Endpoint names must still resolve.
func TestEntityGraphBuilderResolvesLateNodes(t *testing.T) {
	b := newEntityGraphBuilder()

	// Row 1: path Alice -> Acme -> Paris, but only the terminal nodes.
	b.addNode(node("n1", "PERSON", "Alice"))
	b.addNode(node("n3", "GPE", "Paris"))
	b.addRelationship(rel("r1", "n1", "n2", "WORKS_FOR"))
	b.addRelationship(rel("r2", "n2", "n3", "LOCATED_IN"))

	// Row 2: the one-hop path registers the interior node.
	b.addNode(node("n1", "PERSON", "Alice"))
	b.addNode(node("n2", "ORG", "Acme"))
	b.addRelationship(rel("r1", "n1", "n2", "WORKS_FOR"))

	nodes, relationships := b.build()

	if len(nodes) != 3 {
		t.Fatalf("expected 3 deduplicated nodes, got %d", len(nodes))
	}
	if len(relationships) != 2 {
		t.Fatalf("expected 2 deduplicated relationships, got %d", len(relationships))
	}
	for _, r := range relationships {
		if r.Source == "" || r.Target == "" {
			t.Fatalf("unresolved relationship endpoint: %+v", r)
		}
	}
	if relationships[0].Source != "Alice" || relationships[0].Target != "Acme" {
		t.Fatalf("unexpected first relationship: %+v", relationships[0])
	}
	if relationships[1].Source != "Acme" || relationships[1].Target != "Paris" {
		t.Fatalf("unexpected second relationship: %+v", relationships[1])
	}
}

func TestEntityGraphBuilderDeduplicatesByName(t *testing.T) {
	b := newEntityGraphBuilder()

	b.addNode(node("n1", "PERSON", "Alice"))
	b.addNode(node("n2", "PERSON", "Alice"))

	nodes, _ := b.build()
	if len(nodes) != 1 {
		t.Fatalf("nodes sharing a name must collapse to one, got %d", len(nodes))
	}
}
