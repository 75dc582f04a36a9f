package db

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotFound is returned when no embedding matches a lookup.
var ErrNotFound = errors.New("embedding not found")

// EmbeddingRecord is a row of the embeddings table. A record is unique per
// (ContentSHA256, ModelPath); saving the same pair again replaces it.
type EmbeddingRecord struct {
	ID            int64     // Auto-incremented primary key
	RunID         string    // Run that produced the vector
	Source        string    // Input file name
	ContentSHA256 string    // Hex SHA-256 of the embedded text
	ModelPath     string    // Model file the vector came from
	ModelType     string    // Model description reported by the native library
	TokenCount    int       // Tokens evaluated
	Vector        []float32 // Final embedding
	DurationMS    int64     // Duration of the last evaluation
	CreatedAt     time.Time
}

// Dimensions returns the vector length.
func (r EmbeddingRecord) Dimensions() int {
	return len(r.Vector)
}

// Repository reads and writes embedding records.
type Repository struct {
	db *Database
}

// NewRepository creates a Repository over db.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// SaveEmbedding inserts rec, replacing any record with the same content
// hash and model path, and returns the row ID. A zero CreatedAt is set to
// the current time.
func (r *Repository) SaveEmbedding(ctx context.Context, rec EmbeddingRecord) (int64, error) {
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}
	if rec.ContentSHA256 == "" || rec.ModelPath == "" {
		return 0, fmt.Errorf("content hash and model path are required")
	}
	if len(rec.Vector) == 0 {
		return 0, fmt.Errorf("refusing to store an empty vector for %s", rec.Source)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO embeddings (
			run_id, source, content_sha256, model_path, model_type,
			token_count, dimensions, vector, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_sha256, model_path) DO UPDATE SET
			run_id = excluded.run_id,
			source = excluded.source,
			model_type = excluded.model_type,
			token_count = excluded.token_count,
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			duration_ms = excluded.duration_ms,
			created_at = excluded.created_at
		RETURNING id`

	var id int64
	err = conn.QueryRowContext(ctx, query,
		rec.RunID,
		rec.Source,
		rec.ContentSHA256,
		rec.ModelPath,
		rec.ModelType,
		rec.TokenCount,
		len(rec.Vector),
		EncodeVector(rec.Vector),
		rec.DurationMS,
		rec.CreatedAt.UnixMilli(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save embedding for %s: %w", rec.Source, err)
	}
	return id, nil
}

// FindByHash returns the stored embedding of the content with the given
// hash under modelPath, or ErrNotFound.
func (r *Repository) FindByHash(ctx context.Context, contentSHA256, modelPath string) (*EmbeddingRecord, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	row := conn.QueryRowContext(ctx, selectEmbedding+`
		WHERE content_sha256 = ? AND model_path = ?`, contentSHA256, modelPath)
	rec, err := scanEmbedding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up embedding %s: %w", contentSHA256, err)
	}
	return rec, nil
}

// ListByRun returns the records written by a run, oldest first.
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]EmbeddingRecord, error) {
	conn, err := r.db.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, selectEmbedding+`
		WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []EmbeddingRecord
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored embeddings.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	conn, err := r.db.conn()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

const selectEmbedding = `
	SELECT id, run_id, source, content_sha256, model_path, model_type,
		token_count, dimensions, vector, duration_ms, created_at
	FROM embeddings`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmbedding(row rowScanner) (*EmbeddingRecord, error) {
	var (
		rec        EmbeddingRecord
		dimensions int
		blob       []byte
		createdMS  int64
	)
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.Source, &rec.ContentSHA256, &rec.ModelPath, &rec.ModelType,
		&rec.TokenCount, &dimensions, &blob, &rec.DurationMS, &createdMS,
	)
	if err != nil {
		return nil, err
	}

	rec.Vector, err = DecodeVector(blob)
	if err != nil {
		return nil, err
	}
	if len(rec.Vector) != dimensions {
		return nil, fmt.Errorf("vector has %d components, row says %d", len(rec.Vector), dimensions)
	}
	rec.CreatedAt = time.UnixMilli(createdMS)
	return &rec, nil
}

// EncodeVector packs v as little-endian IEEE 754 float32 values.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
