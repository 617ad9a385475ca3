package query

import (
	"context"

	"github.com/definitelynotaspy/intel-service/pkg/nlp"
	"github.com/definitelynotaspy/intel-service/pkg/store"
)

// Client answers read-side queries over the graph store and the vector
// index.
type Client struct {
	oracle  nlp.Oracle
	graph   store.GraphStore
	vectors store.VectorIndex
}

// NewClient wires a query client to its backends.
func NewClient(oracle nlp.Oracle, graph store.GraphStore, vectors store.VectorIndex) *Client {
	return &Client{
		oracle:  oracle,
		graph:   graph,
		vectors: vectors,
	}
}

// EntityGraph returns the neighborhood of the named entity up to depth
// hops.
func (c *Client) EntityGraph(ctx context.Context, name string, depth int) ([]store.Node, []store.Relationship, error) {
	return c.graph.EntityGraph(ctx, name, depth)
}

// SearchGraph finds entities by substring over their names and properties.
func (c *Client) SearchGraph(ctx context.Context, query string, limit int) ([]store.EntityHit, error) {
	return c.graph.SearchEntities(ctx, query, limit)
}

// GraphStats reports graph-wide counts and labels.
func (c *Client) GraphStats(ctx context.Context) (store.Stats, error) {
	return c.graph.Stats(ctx)
}

// SemanticSearch embeds the query text and returns the nearest stored
// records at or above threshold.
func (c *Client) SemanticSearch(
	ctx context.Context,
	query string,
	topK int,
	threshold float64,
	filters map[string]any,
) ([]store.VectorRecord, error) {
	embedding, err := c.oracle.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.vectors.Search(ctx, embedding, topK, threshold, filters)
}

// SimilarEntities finds stored records semantically close to the named
// entity, excluding the entity itself. One extra record is fetched so a
// self-hit does not shrink the result below topK.
func (c *Client) SimilarEntities(
	ctx context.Context,
	entity string,
	topK int,
	threshold float64,
) ([]store.VectorRecord, error) {
	embedding, err := c.oracle.GenerateEmbedding(ctx, entity)
	if err != nil {
		return nil, err
	}

	records, err := c.vectors.Search(ctx, embedding, topK+1, threshold, nil)
	if err != nil {
		return nil, err
	}

	out := make([]store.VectorRecord, 0, topK)
	for _, record := range records {
		if record.Text == entity {
			continue
		}
		out = append(out, record)
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

// IndexInfo reports the state of the vector collection.
func (c *Client) IndexInfo(ctx context.Context) (store.IndexInfo, error) {
	return c.vectors.Info(ctx)
}
