package neo4j

import (
	"context"
	"fmt"

	"github.com/definitelynotaspy/intel-service/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphStore implements store.GraphStore on top of a Neo4j database.
// Entities are nodes keyed by their name property, with the entity type
// as the node label.
type GraphStore struct {
	driver neo4j.DriverWithContext
}

// NewGraphStoreParams contains the connection settings for a Neo4j server.
type NewGraphStoreParams struct {
	URI      string
	User     string
	Password string
}

// NewGraphStore opens a driver against the configured server and verifies
// connectivity before returning.
func NewGraphStore(ctx context.Context, params NewGraphStoreParams) (*GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.User, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j: %w", err)
	}

	return &GraphStore{driver: driver}, nil
}

// UpsertEntity merges a node of the given type by name and overlays the
// provided properties. The label is sanitized before interpolation since
// Cypher cannot parameterize labels.
func (s *GraphStore) UpsertEntity(
	ctx context.Context,
	entityType string,
	name string,
	properties map[string]any,
) (string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if properties == nil {
		properties = map[string]any{}
	}
	properties["name"] = name

	query := fmt.Sprintf(`
		MERGE (e:%s {name: $name})
		SET e += $properties
		RETURN elementId(e) as id
	`, store.SanitizeLabel(entityType))

	result, err := session.Run(ctx, query, map[string]any{
		"name":       name,
		"properties": properties,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert entity: %w", err)
	}

	if result.Next(ctx) {
		id, _ := result.Record().Get("id")
		if s, ok := id.(string); ok {
			return s, nil
		}
	}
	if err := result.Err(); err != nil {
		return "", fmt.Errorf("failed to upsert entity: %w", err)
	}

	return "", fmt.Errorf("no node returned for entity %q", name)
}

// UpsertRelationship merges a typed edge between two existing nodes matched
// by name. It reports false without error when either endpoint is missing.
func (s *GraphStore) UpsertRelationship(
	ctx context.Context,
	from string,
	to string,
	relType string,
	properties map[string]any,
) (bool, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (a {name: $from_name})
		MATCH (b {name: $to_name})
		MERGE (a)-[r:%s]->(b)
		SET r += $properties
		RETURN r
	`, store.SanitizeRelationshipType(relType))

	if properties == nil {
		properties = map[string]any{}
	}

	result, err := session.Run(ctx, query, map[string]any{
		"from_name":  from,
		"to_name":    to,
		"properties": properties,
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert relationship: %w", err)
	}

	if result.Next(ctx) {
		return true, nil
	}
	if err := result.Err(); err != nil {
		return false, fmt.Errorf("failed to upsert relationship: %w", err)
	}

	return false, nil
}

// EntityGraph returns the named entity and its neighborhood up to depth
// hops in either direction. Nodes are deduplicated by name.
func (s *GraphStore) EntityGraph(
	ctx context.Context,
	name string,
	depth int,
) ([]store.Node, []store.Relationship, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	if depth < 0 {
		depth = 0
	}
	if depth > 5 {
		depth = 5
	}

	// The depth bound cannot be a query parameter, but it is an integer
	// literal by this point.
	query := fmt.Sprintf(`
		MATCH path = (e {name: $name})-[*0..%d]-(related)
		RETURN e, related, relationships(path) as rels
	`, depth)

	result, err := session.Run(ctx, query, map[string]any{"name": name})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entity graph: %w", err)
	}

	builder := newEntityGraphBuilder()

	for result.Next(ctx) {
		record := result.Record()

		for _, key := range []string{"e", "related"} {
			raw, ok := record.Get(key)
			if !ok {
				continue
			}
			node, ok := raw.(neo4j.Node)
			if !ok {
				continue
			}
			builder.addNode(node)
		}

		if raw, ok := record.Get("rels"); ok {
			rels, _ := raw.([]any)
			for _, rr := range rels {
				rel, ok := rr.(neo4j.Relationship)
				if !ok {
					continue
				}
				builder.addRelationship(rel)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read entity graph: %w", err)
	}

	nodes, relationships := builder.build()
	return nodes, relationships, nil
}

// entityGraphBuilder accumulates nodes and relationships across result
// rows. Relationship endpoints are resolved in build, after every row has
// been consumed; a longer path can mention an edge before the row that
// carries its interior node.
type entityGraphBuilder struct {
	seen    map[string]bool
	names   map[string]string
	nodes   []store.Node
	relSeen map[string]bool
	rels    []neo4j.Relationship
}

func newEntityGraphBuilder() *entityGraphBuilder {
	return &entityGraphBuilder{
		seen:    map[string]bool{},
		names:   map[string]string{},
		nodes:   []store.Node{},
		relSeen: map[string]bool{},
		rels:    []neo4j.Relationship{},
	}
}

func (b *entityGraphBuilder) addNode(node neo4j.Node) {
	name, _ := node.Props["name"].(string)
	b.names[node.ElementId] = name
	if b.seen[name] {
		return
	}
	b.seen[name] = true

	label := "Entity"
	if len(node.Labels) > 0 {
		label = node.Labels[0]
	}

	b.nodes = append(b.nodes, store.Node{
		ID:         name,
		Label:      label,
		Properties: node.Props,
	})
}

func (b *entityGraphBuilder) addRelationship(rel neo4j.Relationship) {
	if b.relSeen[rel.ElementId] {
		return
	}
	b.relSeen[rel.ElementId] = true
	b.rels = append(b.rels, rel)
}

func (b *entityGraphBuilder) build() ([]store.Node, []store.Relationship) {
	relationships := make([]store.Relationship, 0, len(b.rels))
	for _, rel := range b.rels {
		relationships = append(relationships, store.Relationship{
			Source:     b.names[rel.StartElementId],
			Target:     b.names[rel.EndElementId],
			Type:       rel.Type,
			Properties: rel.Props,
		})
	}
	return b.nodes, relationships
}

// SearchEntities finds nodes whose name or any stringified property
// contains the query text.
func (s *GraphStore) SearchEntities(
	ctx context.Context,
	query string,
	limit int,
) ([]store.EntityHit, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	if limit <= 0 {
		limit = 10
	}

	cypher := `
		MATCH (e)
		WHERE e.name CONTAINS $query OR any(prop in keys(e) WHERE toString(e[prop]) CONTAINS $query)
		RETURN e, labels(e) as labels
		LIMIT $limit
	`

	result, err := session.Run(ctx, cypher, map[string]any{
		"query": query,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search entities: %w", err)
	}

	hits := []store.EntityHit{}
	for result.Next(ctx) {
		record := result.Record()

		raw, ok := record.Get("e")
		if !ok {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}

		labels := []string{}
		if raw, ok := record.Get("labels"); ok {
			if list, ok := raw.([]any); ok {
				for _, l := range list {
					if s, ok := l.(string); ok {
						labels = append(labels, s)
					}
				}
			}
		}

		name, _ := node.Props["name"].(string)
		hits = append(hits, store.EntityHit{
			Name:       name,
			Labels:     labels,
			Properties: node.Props,
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	return hits, nil
}

// Stats counts nodes and relationships and lists the labels in use.
func (s *GraphStore) Stats(ctx context.Context) (store.Stats, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	stats := store.Stats{Labels: []string{}}

	result, err := session.Run(ctx, "MATCH (n) RETURN count(n) as count", nil)
	if err != nil {
		return stats, fmt.Errorf("failed to count nodes: %w", err)
	}
	if result.Next(ctx) {
		if raw, ok := result.Record().Get("count"); ok {
			if n, ok := raw.(int64); ok {
				stats.Nodes = n
			}
		}
	}

	result, err = session.Run(ctx, "MATCH ()-[r]->() RETURN count(r) as count", nil)
	if err != nil {
		return stats, fmt.Errorf("failed to count relationships: %w", err)
	}
	if result.Next(ctx) {
		if raw, ok := result.Record().Get("count"); ok {
			if n, ok := raw.(int64); ok {
				stats.Relationships = n
			}
		}
	}

	result, err = session.Run(ctx, "CALL db.labels()", nil)
	if err != nil {
		return stats, fmt.Errorf("failed to list labels: %w", err)
	}
	for result.Next(ctx) {
		if raw, ok := result.Record().Get("label"); ok {
			if l, ok := raw.(string); ok {
				stats.Labels = append(stats.Labels, l)
			}
		}
	}
	if err := result.Err(); err != nil {
		return stats, fmt.Errorf("failed to read labels: %w", err)
	}

	return stats, nil
}

// Ping runs a trivial query to confirm the server is reachable.
func (s *GraphStore) Ping(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "RETURN 1", nil)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// Close shuts down the underlying driver.
func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
