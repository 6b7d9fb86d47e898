package resolution

import (
	"context"
	"time"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

// Renderer genera el fuente LaTeX. Es puro: no accede al disco.
type Renderer interface {
	Render(cfg *entity.ResolutionConfig, now time.Time) string
}

// Compiler compila el fuente a PDF (proceso externo con timeout).
type Compiler interface {
	Compile(ctx context.Context, source, outputDir, baseName string) (*entity.CompiledDocument, error)
	CheckAvailability(ctx context.Context) (entity.SystemStatus, error)
}

// ConfigStore configuración persistida del mes.
type ConfigStore interface {
	Load(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, cfg *entity.ResolutionConfig) error
}
