package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"geoforecast/internal/types"
)

// DocumentStore persists schemaless JSON records in logical collections,
// all backed by a single documents table. Records are addressed by a
// store-assigned UUID; collection membership is a column, never derived
// from a Go type name.
type DocumentStore struct {
	db DBTX
}

// NewDocumentStore creates a DocumentStore backed by the given database
// connection (pool or transaction).
func NewDocumentStore(db DBTX) *DocumentStore {
	return &DocumentStore{db: db}
}

// Document is a stored record together with its assigned identifier.
// Doc holds the record exactly as persisted; the identifier lives in its
// own column and is merged into outward payloads at the API boundary.
type Document struct {
	ID  string
	Doc json.RawMessage
}

// schemaStatements create the documents table and its indexes. The seq
// column orders results by insertion; the GIN index serves exact-match
// filters via JSONB containment.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id         UUID PRIMARY KEY,
		seq        BIGSERIAL,
		collection TEXT NOT NULL,
		doc        JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_collection_seq_idx
		ON documents (collection, seq)`,
	`CREATE INDEX IF NOT EXISTS documents_doc_gin_idx
		ON documents USING GIN (doc jsonb_path_ops)`,
}

// EnsureSchema creates the documents table and indexes when missing.
// Called once at startup; safe to call repeatedly.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return types.NewAppError(types.ErrCodeStorageUnavailable, "failed to initialize document store schema", err)
		}
	}
	return nil
}

// Insert serializes the record into the named collection and returns the
// newly assigned identifier as a string.
func (s *DocumentStore) Insert(ctx context.Context, collection types.Collection, record any) (string, error) {
	doc, err := json.Marshal(record)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize record", err)
	}

	id := uuid.New().String()
	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (id, collection, doc) VALUES ($1, $2, $3)`,
		id, string(collection), doc,
	)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeStorageWrite, "failed to insert document", err)
	}
	return id, nil
}

// Query returns documents in the collection matching the exact-match filter,
// in insertion order, bounded by limit. A nil or empty filter matches the
// whole collection. No matches is an empty slice, not an error.
//
// The filter is applied with JSONB containment, so each filter entry must
// equal the stored field value exactly.
func (s *DocumentStore) Query(ctx context.Context, collection types.Collection, filter map[string]any, limit int) ([]Document, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("collection = $%d", argIdx))
	args = append(args, string(collection))
	argIdx++

	if len(filter) > 0 {
		fb, err := json.Marshal(filter)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize filter", err)
		}
		conditions = append(conditions, fmt.Sprintf("doc @> $%d::jsonb", argIdx))
		args = append(args, fb)
		argIdx++
	}

	query := fmt.Sprintf(
		`SELECT id, doc FROM documents WHERE %s ORDER BY seq LIMIT $%d`,
		strings.Join(conditions, " AND "), argIdx,
	)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to query documents", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Doc); err != nil {
			return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to read documents", err)
	}
	return docs, nil
}

// GetByID retrieves a single document by identifier. A malformed identifier
// fails with a validation error, distinct from the not-found case for a
// well-formed identifier with no matching row.
func (s *DocumentStore) GetByID(ctx context.Context, collection types.Collection, id string) (*Document, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationMalformedID, "identifier is not a valid UUID", err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT id, doc FROM documents WHERE id = $1 AND collection = $2`,
		parsed.String(), string(collection),
	)

	var d Document
	if err := row.Scan(&d.ID, &d.Doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError(collection)
		}
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to retrieve document", err)
	}
	return &d, nil
}

// Ping verifies store connectivity with a trivial round trip.
func (s *DocumentStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return types.NewAppError(types.ErrCodeStorageUnavailable, "document store unreachable", err)
	}
	return nil
}

// Collections lists the distinct collection names currently present.
// Collections appear lazily on first insert, so a fresh store returns an
// empty list.
func (s *DocumentStore) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to list collections", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to scan collection name", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeStorageQuery, "failed to read collections", err)
	}
	return names, nil
}

// notFoundError maps a collection to its outward not-found error. The 404
// messages are part of the API contract.
func notFoundError(collection types.Collection) *types.AppError {
	switch collection {
	case types.CollectionForecasts:
		return types.NewAppError(types.ErrCodeNotFoundForecast, "Forecast not found", nil)
	case types.CollectionAlerts:
		return types.NewAppError(types.ErrCodeNotFoundAlert, "Alert not found", nil)
	default:
		return types.NewAppError(types.ErrCodeNotFoundDocument, "document not found", nil)
	}
}
