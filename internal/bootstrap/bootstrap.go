// Package bootstrap arma el caso de uso de generación a partir de la
// configuración. Lo comparten el servidor HTTP y la herramienta de línea de comandos.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/peco-resoluciones/internal/application/resolution"
	"github.com/jhoicas/peco-resoluciones/internal/domain/repository"
	"github.com/jhoicas/peco-resoluciones/internal/infrastructure/filestore"
	"github.com/jhoicas/peco-resoluciones/internal/infrastructure/latex"
	"github.com/jhoicas/peco-resoluciones/internal/infrastructure/postgres"
	"github.com/jhoicas/peco-resoluciones/pkg/config"
	"github.com/jhoicas/peco-resoluciones/pkg/logger"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

// Wiring dependencias construidas. Close libera el pool de PostgreSQL si existe.
type Wiring struct {
	UseCase  *resolution.GenerateUseCase
	Compiler *latex.Compiler
	Close    func()
}

// Build construye renderer, compilador, store, historial opcional y caso de uso.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Wiring, error) {
	amounts := money.Format{Decimals: cfg.Money.Decimals}
	renderer := latex.NewRenderer(latex.RendererConfig{
		Money:  amounts,
		Logger: log.With().Str("component", "render").Logger(),
	})
	compiler := latex.NewCompiler(latex.CompilerConfig{
		Binary:      cfg.LaTeX.Binary,
		Timeout:     cfg.LaTeX.Timeout,
		Retries:     cfg.LaTeX.Retries,
		ResourceDir: cfg.Paths.ResourceDir,
		Resources:   cfg.Paths.Resources,
		Logger:      log.With().Str("component", "latex").Logger(),
	})
	store := filestore.NewConfigStore(cfg.Paths.ConfigJSON)

	w := &Wiring{Compiler: compiler, Close: func() {}}

	// Historial en PostgreSQL solo si hay base de datos configurada.
	var history repository.GenerationRepository
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		repo := postgres.NewGenerationRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("esquema del historial: %w", err)
		}
		history = repo
		w.Close = pool.Close
		log.Info().Msg("historial de generaciones habilitado")
	}

	w.UseCase = resolution.NewGenerateUseCase(
		renderer, compiler, store, history,
		resolution.Options{OutputDir: cfg.Paths.OutputDir, Money: amounts},
		log.Zerolog(),
	)
	return w, nil
}
