package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/definitelynotaspy/intel-service/internal/util"
	"github.com/definitelynotaspy/intel-service/pkg/store"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// VectorIndex implements store.VectorIndex on PostgreSQL with pgvector.
// Records live in the entity_embeddings table, partitioned logically by
// collection name.
type VectorIndex struct {
	pool       *pgxpool.Pool
	collection string
}

// NewVectorIndexParams configures the database connection and the logical
// collection this index reads and writes.
type NewVectorIndexParams struct {
	DatabaseURL string
	Collection  string
}

// NewVectorIndex connects a pool to the database, registers the pgvector
// types on every connection, and verifies reachability.
func NewVectorIndex(ctx context.Context, params NewVectorIndexParams) (*VectorIndex, error) {
	cfg, err := pgxpool.ParseConfig(params.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	collection := params.Collection
	if collection == "" {
		collection = "entities"
	}

	return &VectorIndex{pool: pool, collection: collection}, nil
}

// RunMigrations applies all pending schema migrations from the given
// directory. ErrNoChange is not treated as a failure.
func RunMigrations(databaseURL string, migrationsDir string) error {
	m, err := migrate.New("file://"+migrationsDir, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Store inserts a record with a generated id and returns the id.
func (v *VectorIndex) Store(
	ctx context.Context,
	text string,
	embedding []float32,
	metadata map[string]any,
) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = v.pool.Exec(ctx, `
		INSERT INTO entity_embeddings (id, collection, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, id, v.collection, util.SanitizePostgresText(text), pgvector.NewVector(embedding), metaJSON)
	if err != nil {
		return "", fmt.Errorf("failed to store embedding: %w", err)
	}

	return id, nil
}

// Search returns up to topK records whose cosine similarity to the query
// vector is at or above threshold, most similar first. Filters match
// records whose metadata contains every given key-value pair.
func (v *VectorIndex) Search(
	ctx context.Context,
	vector []float32,
	topK int,
	threshold float64,
	filters map[string]any,
) ([]store.VectorRecord, error) {
	if topK <= 0 {
		topK = 5
	}

	query := `
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS score
		FROM entity_embeddings
		WHERE collection = $2
		  AND 1 - (embedding <=> $1) >= $3
	`
	args := []any{pgvector.NewVector(vector), v.collection, threshold}

	if len(filters) > 0 {
		filterJSON, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		query += fmt.Sprintf(" AND metadata @> $%d", len(args)+1)
		args = append(args, filterJSON)
	}

	query += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args)+1)
	args = append(args, topK)

	rows, err := v.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}
	defer rows.Close()

	records := []store.VectorRecord{}
	for rows.Next() {
		var (
			rec      store.VectorRecord
			metaJSON []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Text, &metaJSON, &rec.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	return records, nil
}

// Delete removes a record by id. Deleting a missing id is not an error.
func (v *VectorIndex) Delete(ctx context.Context, id string) error {
	_, err := v.pool.Exec(ctx, `
		DELETE FROM entity_embeddings WHERE id = $1 AND collection = $2
	`, id, v.collection)
	if err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

// Info reports the size and status of the collection.
func (v *VectorIndex) Info(ctx context.Context) (store.IndexInfo, error) {
	info := store.IndexInfo{Name: v.collection, Status: "green"}

	err := v.pool.QueryRow(ctx, `
		SELECT count(*) FROM entity_embeddings WHERE collection = $1
	`, v.collection).Scan(&info.Points)
	if err != nil {
		info.Status = "red"
		return info, fmt.Errorf("failed to count embeddings: %w", err)
	}
	info.Vectors = info.Points

	return info, nil
}

// Ping checks database reachability.
func (v *VectorIndex) Ping(ctx context.Context) error {
	return v.pool.Ping(ctx)
}

// Close releases the underlying pool.
func (v *VectorIndex) Close() {
	v.pool.Close()
}
