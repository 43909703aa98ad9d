package collections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/samber/oops"
)

const (
	lockCollectionQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

	insertDocumentQuery = `INSERT INTO documents (collection, id, body)
		 SELECT $1, COALESCE(MAX(id), 0) + 1, $2::jsonb FROM documents WHERE collection = $1
		 RETURNING id, updated_at`

	selectDocumentQuery = `SELECT id, body, updated_at FROM documents WHERE collection = $1 AND id = $2`

	listDocumentsQuery = `SELECT id, body, updated_at FROM documents WHERE collection = $1`

	replaceDocumentQuery = `UPDATE documents SET body = $3::jsonb, updated_at = NOW()
		 WHERE collection = $1 AND id = $2
		 RETURNING body, updated_at`

	patchDocumentQuery = `UPDATE documents SET body = body || $3::jsonb, updated_at = NOW()
		 WHERE collection = $1 AND id = $2
		 RETURNING body, updated_at`

	deleteDocumentQuery = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create takes a per-collection advisory lock for the id allocation, so
// writers to different collections do not wait on each other.
func (r *PostgresRepository) Create(ctx context.Context, collection string, body map[string]any) (*models.Document, error) {
	raw, err := encodeBody(body)
	if err != nil {
		return nil, oops.Code("COLLECTIONS_ENCODE_FAILED").With("collection", collection).Wrap(common.ErrValidation)
	}

	doc := &models.Document{Collection: collection, Body: withoutID(body)}
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, lockCollectionQuery, collection); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, insertDocumentQuery, collection, string(raw)).Scan(&doc.ID, &doc.UpdatedAt)
	})
	if err != nil {
		return nil, oops.Code("COLLECTIONS_CREATE_FAILED").
			With("collection", collection).
			Wrapf(err, "db error")
	}
	return doc, nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection string, id int64) (*models.Document, error) {
	doc := &models.Document{Collection: collection}
	var raw []byte
	err := r.db.QueryRowContext(ctx, selectDocumentQuery, collection, id).Scan(&doc.ID, &raw, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("COLLECTIONS_GET_FAILED").
			With("collection", collection).With("id", id).
			Wrapf(err, "db error")
	}
	if doc.Body, err = decodeBody(raw); err != nil {
		return nil, oops.Code("COLLECTIONS_DECODE_FAILED").Wrapf(err, "db error")
	}
	return doc, nil
}

func (r *PostgresRepository) List(ctx context.Context, collection string, filter map[string]string) ([]*models.Document, error) {
	query, args := buildListQuery(collection, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("COLLECTIONS_LIST_FAILED").With("collection", collection).Wrapf(err, "db error")
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		doc := &models.Document{Collection: collection}
		var raw []byte
		if err := rows.Scan(&doc.ID, &raw, &doc.UpdatedAt); err != nil {
			return nil, oops.Code("COLLECTIONS_LIST_FAILED").Wrapf(err, "db error")
		}
		if doc.Body, err = decodeBody(raw); err != nil {
			return nil, oops.Code("COLLECTIONS_DECODE_FAILED").Wrapf(err, "db error")
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COLLECTIONS_LIST_FAILED").Wrapf(err, "db error")
	}
	return result, nil
}

// buildListQuery turns the filter into body->>key = value predicates. Keys
// are bound as parameters and sorted so the statement text is stable.
func buildListQuery(collection string, filter map[string]string) (string, []any) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(listDocumentsQuery)
	args := []any{collection}
	for _, k := range keys {
		if k == "id" {
			args = append(args, filter[k])
			fmt.Fprintf(&sb, " AND id::text = $%d", len(args))
			continue
		}
		args = append(args, k, filter[k])
		fmt.Fprintf(&sb, " AND body->>$%d::text = $%d", len(args)-1, len(args))
	}
	sb.WriteString(" ORDER BY id")
	return sb.String(), args
}

func (r *PostgresRepository) Replace(ctx context.Context, collection string, id int64, body map[string]any) (*models.Document, error) {
	return r.update(ctx, replaceDocumentQuery, "COLLECTIONS_REPLACE_FAILED", collection, id, body)
}

func (r *PostgresRepository) Patch(ctx context.Context, collection string, id int64, body map[string]any) (*models.Document, error) {
	return r.update(ctx, patchDocumentQuery, "COLLECTIONS_PATCH_FAILED", collection, id, body)
}

func (r *PostgresRepository) update(ctx context.Context, query, code, collection string, id int64, body map[string]any) (*models.Document, error) {
	raw, err := encodeBody(body)
	if err != nil {
		return nil, oops.Code("COLLECTIONS_ENCODE_FAILED").With("collection", collection).Wrap(common.ErrValidation)
	}

	doc := &models.Document{Collection: collection, ID: id}
	var stored []byte
	var updatedAt time.Time
	err = r.db.QueryRowContext(ctx, query, collection, id, string(raw)).Scan(&stored, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code(code).With("collection", collection).With("id", id).Wrapf(err, "db error")
	}
	doc.UpdatedAt = updatedAt
	if doc.Body, err = decodeBody(stored); err != nil {
		return nil, oops.Code("COLLECTIONS_DECODE_FAILED").Wrapf(err, "db error")
	}
	return doc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection string, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteDocumentQuery, collection, id)
	if err != nil {
		return oops.Code("COLLECTIONS_DELETE_FAILED").With("collection", collection).With("id", id).Wrapf(err, "db error")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code("COLLECTIONS_DELETE_FAILED").Wrapf(err, "db error")
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
