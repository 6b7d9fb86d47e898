package repository

import (
	"context"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

// GenerationRepository puerto de persistencia del historial de generaciones.
// Es opcional: sin base de datos el pipeline funciona igual.
type GenerationRepository interface {
	// EnsureSchema crea la tabla si no existe.
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, rec *entity.GenerationRecord) error
	// ListRecent devuelve las últimas generaciones, la más reciente primero,
	// saltando las primeras offset.
	ListRecent(ctx context.Context, limit, offset int) ([]*entity.GenerationRecord, error)
}
