package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Postgres implements Store on a single JSONB documents table. Document ids
// and creation timestamps are assigned by the database.
type Postgres struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects to Postgres, adjusting the DSN for local vs pooled
// environments, and returns a ready Store.
func Open(environment, dsn string, logger zerolog.Logger) (*Postgres, *sql.DB, error) {
	dsn = normalizeDSN(environment, dsn)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open DB connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.Info().Msg("Database connection successful")
	return New(db, logger), db, nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, logger zerolog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger.With().Str("component", "docstore").Logger()}
}

// normalizeDSN disables SSL for local development and forces the simple query
// protocol behind transaction poolers like pgbouncer.
func normalizeDSN(environment, dsn string) string {
	sep := func() string {
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				return "&"
			}
			return "?"
		}
		return " "
	}
	if environment == "development" {
		if !strings.Contains(dsn, "sslmode") {
			dsn += sep() + "sslmode=disable"
		}
	} else if !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn += sep() + "prefer_simple_protocol=true"
	}
	return dsn
}

// EnsureSchema creates the documents table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection text NOT NULL,
			id uuid NOT NULL DEFAULT gen_random_uuid(),
			data jsonb NOT NULL DEFAULT '{}'::jsonb,
			created_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure documents schema: %w", err)
	}
	return nil
}

// splitSentinels separates ServerTimestamp fields from concrete values so the
// sentinels can be resolved by the database clock.
func splitSentinels(fields map[string]any) (map[string]any, []string) {
	concrete := make(map[string]any, len(fields))
	var sentinels []string
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			sentinels = append(sentinels, k)
			continue
		}
		concrete[k] = v
	}
	return concrete, sentinels
}

// CreateDocument inserts a document and returns its server-assigned ref.
func (p *Postgres) CreateDocument(ctx context.Context, collection string, fields map[string]any) (Ref, error) {
	concrete, sentinels := splitSentinels(fields)
	data, err := json.Marshal(concrete)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to encode document fields: %w", err)
	}

	query := `
		INSERT INTO documents (collection, data)
		VALUES ($1, $2::jsonb || COALESCE(
			(SELECT jsonb_object_agg(key, to_jsonb(now())) FROM unnest($3::text[]) AS key),
			'{}'::jsonb))
		RETURNING id::text
	`
	var id string
	if err := p.db.QueryRowContext(ctx, query, collection, data, sentinels).Scan(&id); err != nil {
		return Ref{}, fmt.Errorf("failed to create document in %s: %w", collection, err)
	}
	return Ref{Collection: collection, ID: id}, nil
}

// GetDocument reads a single document. Missing documents yield Exists=false.
func (p *Postgres) GetDocument(ctx context.Context, ref Ref) (Snapshot, error) {
	query := `SELECT data FROM documents WHERE collection = $1 AND id = $2::uuid`
	var raw []byte
	err := p.db.QueryRowContext(ctx, query, ref.Collection, ref.ID).Scan(&raw)
	if err == sql.ErrNoRows {
		return Snapshot{ID: ref.ID, Exists: false}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read document %s: %w", ref.ID, err)
	}
	return decodeSnapshot(ref.ID, raw)
}

// QueryCollection reads every document in a collection.
func (p *Postgres) QueryCollection(ctx context.Context, collection string) ([]Snapshot, error) {
	query := `SELECT id::text, data FROM documents WHERE collection = $1`
	rows, err := p.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(id, raw)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// UpdateDocument merges the given fields into an existing document. Fields not
// present in the patch are left untouched. Updating a missing document fails
// with ErrNotFound.
func (p *Postgres) UpdateDocument(ctx context.Context, ref Ref, fields map[string]any) error {
	concrete, sentinels := splitSentinels(fields)
	data, err := json.Marshal(concrete)
	if err != nil {
		return fmt.Errorf("failed to encode document patch: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb || COALESCE(
			(SELECT jsonb_object_agg(key, to_jsonb(now())) FROM unnest($4::text[]) AS key),
			'{}'::jsonb)
		WHERE collection = $1 AND id = $2::uuid
	`
	res, err := p.db.ExecContext(ctx, query, ref.Collection, ref.ID, data, sentinels)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", ref.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("update document %s: %w", ref.ID, ErrNotFound)
	}
	return nil
}

// DeleteDocument removes a document. Deleting a missing document is a no-op.
func (p *Postgres) DeleteDocument(ctx context.Context, ref Ref) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2::uuid`
	if _, err := p.db.ExecContext(ctx, query, ref.Collection, ref.ID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", ref.ID, err)
	}
	return nil
}

func decodeSnapshot(id string, raw []byte) (Snapshot, error) {
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return Snapshot{ID: id, Exists: true, Data: data}, nil
}
