package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"naskahlokal/internal/document/model"
	"naskahlokal/pkg/logger"
)

// ErrStorageUnavailable wraps every failure of the storage engine,
// whether it could not be opened or a request failed.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Opener hands out the shared connection pool, opening it on first use.
type Opener interface {
	Open(ctx context.Context) (*sql.DB, error)
}

// DocumentRepository is the durable mapping from document id to record.
type DocumentRepository struct {
	DB Opener
}

func NewDocumentRepository(db Opener) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// ListAll returns every stored record in no particular order.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]model.Document, error) {
	db, err := r.DB.Open(ctx)
	if err != nil {
		logger.Sugar.Errorf("Failed to open storage: %v", err)
		return nil, unavailable("open", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT id, title, content, created_at, updated_at FROM documents`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list documents: %v", err)
		return nil, unavailable("list documents", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, unavailable("scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list documents", err)
	}
	return docs, nil
}

// Get returns the record stored at id, or nil when there is none.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*model.Document, error) {
	db, err := r.DB.Open(ctx)
	if err != nil {
		logger.Sugar.Errorf("Failed to open storage: %v", err)
		return nil, unavailable("open", err)
	}

	var d model.Document
	err = db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at, updated_at FROM documents WHERE id = $1`, id,
	).Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get document %s: %v", id, err)
		return nil, unavailable("get document", err)
	}
	return &d, nil
}

// Put inserts doc or fully replaces the record with the same id.
func (r *DocumentRepository) Put(ctx context.Context, doc model.Document) error {
	db, err := r.DB.Open(ctx)
	if err != nil {
		logger.Sugar.Errorf("Failed to open storage: %v", err)
		return unavailable("open", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Title, doc.Content, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to put document %s: %v", doc.ID, err)
		return unavailable("put document", err)
	}
	return nil
}

// Delete removes the record at id. Deleting an absent id succeeds.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	db, err := r.DB.Open(ctx)
	if err != nil {
		logger.Sugar.Errorf("Failed to open storage: %v", err)
		return unavailable("open", err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		logger.Sugar.Errorf("Failed to delete doc %s: %v", id, err)
		return unavailable("delete document", err)
	}
	return nil
}
