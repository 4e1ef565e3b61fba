package postgresql

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/docvaulthq/docvault/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const TableDocuments = "documents"

var documentColumns = []string{
	"id",
	"tenant_id",
	"filename",
	"mime_type",
	"size_bytes",
	"scheme_id",
	"status",
	"confidence",
	"blob_key",
	"fields",
	"extraction_errors",
	"version",
	"created_at",
	"updated_at",
}

type DocumentsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewDocumentsRepository(pool *pgxpool.Pool) *DocumentsRepository {
	return &DocumentsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *DocumentsRepository) DocumentByID(ctx context.Context, tenantID domain.TenantID, id string) (*domain.Document, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(documentColumns...).
		From(TableDocuments).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	doc, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Document])
	if err != nil {
		return nil, scanRowError(err)
	}

	return doc, nil
}

// DocumentsByIDs returns only the rows that exist for the tenant. Ids that
// are missing or belong to another tenant are simply absent from the result.
func (r *DocumentsRepository) DocumentsByIDs(ctx context.Context, tenantID domain.TenantID, ids []string) ([]*domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(documentColumns...).
		From(TableDocuments).
		Where(sq.Eq{"tenant_id": tenantID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Document])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return docs, nil
}

func (r *DocumentsRepository) Documents(ctx context.Context, tenantID domain.TenantID, limit, offset uint64) ([]*domain.Document, int, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableDocuments).
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	sql, args, err = r.qb.
		Select(documentColumns...).
		From(TableDocuments).
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Document])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return docs, total, nil
}

func (r *DocumentsRepository) SaveDocuments(ctx context.Context, docs ...*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	db := extractDB(ctx, r.pool)

	copied, err := db.CopyFrom(ctx, pgx.Identifier{TableDocuments}, documentColumns,
		pgx.CopyFromSlice(len(docs), func(i int) ([]any, error) {
			d := docs[i]
			return []any{
				d.ID,
				d.TenantID,
				d.Filename,
				d.MimeType,
				d.SizeBytes,
				d.SchemeID,
				d.Status,
				d.Confidence,
				d.BlobKey,
				d.Fields,
				d.ExtractionErrors,
				d.Version,
				d.CreatedAt,
				d.UpdatedAt,
			}, nil
		}))
	if err != nil {
		return fmt.Errorf("failed to save documents: %w", err)
	}

	if copied != int64(len(docs)) {
		return fmt.Errorf("failed to save documents: copied %d rows, expected %d", copied, len(docs))
	}

	return nil
}

// UpdateExtraction persists the extraction outcome. The update is guarded by
// the optimistic version token: a concurrent writer surfaces as ErrConflict,
// a deleted document as ErrNotFound.
func (r *DocumentsRepository) UpdateExtraction(
	ctx context.Context,
	tenantID domain.TenantID,
	id string,
	version int64,
	result *domain.ExtractionResult,
) error {
	status := domain.DocumentCompleted
	if len(result.Errors) > 0 {
		status = domain.DocumentFailed
	}

	return r.versionedUpdate(ctx, tenantID, id, version, map[string]any{
		"status":            status,
		"confidence":        result.Confidence,
		"fields":            result.Fields,
		"extraction_errors": result.Errors,
	})
}

// UpdateStatus moves a document to the given status, version-checked.
func (r *DocumentsRepository) UpdateStatus(
	ctx context.Context,
	tenantID domain.TenantID,
	id string,
	version int64,
	status domain.DocumentStatus,
) error {
	return r.versionedUpdate(ctx, tenantID, id, version, map[string]any{
		"status": status,
	})
}

func (r *DocumentsRepository) versionedUpdate(
	ctx context.Context,
	tenantID domain.TenantID,
	id string,
	version int64,
	set map[string]any,
) error {
	db := extractDB(ctx, r.pool)

	builder := r.qb.Update(TableDocuments)
	for column, value := range set {
		builder = builder.Set(column, value)
	}

	sql, args, err := builder.
		Set("version", version+1).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"tenant_id": tenantID, "id": id, "version": version}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.DocumentByID(ctx, tenantID, id); err != nil {
			return err
		}
		return domain.ErrConflict
	}

	return nil
}

func (r *DocumentsRepository) DeleteDocument(ctx context.Context, tenantID domain.TenantID, id string) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Delete(TableDocuments).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
