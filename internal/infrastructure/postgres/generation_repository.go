package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/internal/domain/repository"
)

var _ repository.GenerationRepository = (*GenerationRepo)(nil)

const defaultListLimit = 20

// GenerationRepo implementa GenerationRepository sobre PostgreSQL.
type GenerationRepo struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository construye el repositorio.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepo {
	return &GenerationRepo{pool: pool}
}

func (r *GenerationRepo) EnsureSchema(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS resolution_generations (
			id          UUID PRIMARY KEY,
			code        TEXT NOT NULL,
			title       TEXT NOT NULL,
			period      CHAR(7) NOT NULL,
			subtotal    NUMERIC(18,2) NOT NULL DEFAULT 0,
			final_total NUMERIC(18,2) NOT NULL DEFAULT 0,
			status      TEXT NOT NULL,
			error_kind  TEXT NOT NULL DEFAULT '',
			pdf_path    TEXT NOT NULL DEFAULT '',
			tex_path    TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS resolution_generations_created_idx
			ON resolution_generations (created_at DESC)`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("crear tabla resolution_generations: %w", err)
	}
	return nil
}

func (r *GenerationRepo) Create(ctx context.Context, rec *entity.GenerationRecord) error {
	const q = `
		INSERT INTO resolution_generations
			(id, code, title, period, subtotal, final_total, status, error_kind, pdf_path, tex_path, duration_ms, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, q,
		rec.ID, rec.Code, rec.Title, rec.Period, rec.Subtotal, rec.FinalTotal,
		rec.Status, rec.ErrorKind, rec.PDFPath, rec.TexPath, rec.Duration.Milliseconds(), createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: generación %s ya registrada", domain.ErrInvalidInput, rec.ID)
		}
		return fmt.Errorf("insert resolution_generation: %w", err)
	}
	return nil
}

func (r *GenerationRepo) ListRecent(ctx context.Context, limit, offset int) ([]*entity.GenerationRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	const q = `
		SELECT id, code, title, period, subtotal, final_total, status, error_kind,
		       pdf_path, tex_path, duration_ms, created_at
		FROM resolution_generations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list resolution_generations: %w", err)
	}
	defer rows.Close()

	var out []*entity.GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution_generation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanGeneration(row pgx.Row) (*entity.GenerationRecord, error) {
	var (
		rec        entity.GenerationRecord
		durationMS int64
	)
	err := row.Scan(
		&rec.ID, &rec.Code, &rec.Title, &rec.Period, &rec.Subtotal, &rec.FinalTotal,
		&rec.Status, &rec.ErrorKind, &rec.PDFPath, &rec.TexPath, &durationMS, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return &rec, nil
}
