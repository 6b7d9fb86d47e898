// Package resolution orquesta el pipeline completo: validación, render,
// compilación, reemplazo de la resolución del día e historial.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/peco-resoluciones/internal/application/dto"
	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/internal/domain/repository"
	domainres "github.com/jhoicas/peco-resoluciones/internal/domain/resolution"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

const historyTimeout = 5 * time.Second

// Options parámetros del caso de uso.
type Options struct {
	OutputDir string
	// Now reloj de generación (código y fecha del documento). Nil: time.Now.
	Now func() time.Time
	// Money formato de los totales informados; el mismo que usa el documento.
	Money money.Format
}

// Result resultado de una generación exitosa.
type Result struct {
	RunID           string
	Code            string
	Title           string
	PDFPath         string
	TexPath         string
	Replaced        []string // archivos de una resolución anterior del mismo día
	Warnings        []string
	CleanupWarnings []domain.CleanupWarning
	Subtotal        decimal.Decimal
	Total           decimal.Decimal
	SubtotalText    string // Subtotal con Options.Money
	TotalText       string
	Duration        time.Duration
}

// GenerateUseCase genera la resolución mensual en PDF.
type GenerateUseCase struct {
	renderer Renderer
	compiler Compiler
	store    ConfigStore
	history  repository.GenerationRepository // nil: sin historial
	opts     Options
	logger   zerolog.Logger
	locks    *keyLock
}

// NewGenerateUseCase construye el caso de uso inyectando todas sus dependencias.
// history puede ser nil.
func NewGenerateUseCase(
	renderer Renderer,
	compiler Compiler,
	store ConfigStore,
	history repository.GenerationRepository,
	opts Options,
	logger zerolog.Logger,
) *GenerateUseCase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GenerateUseCase{
		renderer: renderer,
		compiler: compiler,
		store:    store,
		history:  history,
		opts:     opts,
		logger:   logger,
		locks:    newKeyLock(),
	}
}

// Generate valida raw y produce el PDF.
//
// Retorna:
//   - (*Result, nil)                  si el PDF se generó.
//   - domainres.ValidationErrors      si la configuración es inválida (no se compila).
//   - *domain.GenerationError         si faltan recursos, falla o expira la compilación.
func (uc *GenerateUseCase) Generate(ctx context.Context, raw map[string]any) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := uc.logger.With().Str("run_id", runID).Logger()

	// ── 1. Validar ───────────────────────────────────────────────────────────
	cfg, warnings, err := domainres.Validate(raw)
	for _, w := range warnings {
		log.Warn().Str("stage", "validating").Msg(w)
	}
	if err != nil {
		log.Info().Str("stage", "validating").Err(err).Msg("configuración inválida")
		return nil, err
	}

	now := uc.opts.Now()
	code := domainres.ResolutionCode(now)
	title := domainres.DocumentTitle(code, cfg.BaseTitle)
	baseName := domainres.SafeFilename(title)
	if baseName == "" {
		baseName = code
	}
	log = log.With().Str("codigo", code).Logger()

	// ── 2. Serializar por directorio y código del día ────────────────────────
	unlock := uc.locks.Lock(filepath.Clean(uc.opts.OutputDir) + "|" + code)
	defer unlock()

	// ── 3. Render ────────────────────────────────────────────────────────────
	source := uc.renderer.Render(cfg, now)
	log.Debug().Str("stage", "rendering").Int("bytes", len(source)).Msg("fuente LaTeX generado")

	subtotal, total := totals(cfg)
	rec := &entity.GenerationRecord{
		ID:         runID,
		Code:       code,
		Title:      title,
		Period:     cfg.Period.String(),
		Subtotal:   subtotal,
		FinalTotal: total,
		CreatedAt:  now,
	}

	// ── 4. Compilar ──────────────────────────────────────────────────────────
	doc, err := uc.compiler.Compile(ctx, source, uc.opts.OutputDir, baseName)
	if err != nil {
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			rec.ErrorKind = string(ge.Kind)
			log.Error().Str("stage", "compiling").Str("kind", string(ge.Kind)).
				Strs("diagnostics", ge.Diagnostics).Msg(ge.Message)
			for _, w := range ge.CleanupWarnings {
				log.Warn().Str("stage", "cleanup").Str("file", w.File).Err(w.Err).Msg("limpieza incompleta")
			}
		} else {
			log.Error().Str("stage", "compiling").Err(err).Msg("error de compilación")
		}
		rec.Status = entity.GenerationStatusFailed
		rec.Duration = time.Since(start)
		uc.record(ctx, log, rec)
		return nil, err
	}

	// ── 5. Reemplazar la resolución del mismo día ────────────────────────────
	replaced, cleanupWarnings := replaceSameDay(uc.opts.OutputDir, code, doc.PDFPath, doc.TexPath)
	cleanupWarnings = append(doc.CleanupWarnings, cleanupWarnings...)
	if len(replaced) > 0 {
		log.Info().Strs("replaced", replaced).Msg("se reemplazó la resolución del día")
	}
	for _, w := range cleanupWarnings {
		log.Warn().Str("stage", "cleanup").Str("file", w.File).Err(w.Err).Msg("limpieza incompleta")
	}

	elapsed := time.Since(start)
	rec.Status = entity.GenerationStatusSuccess
	rec.PDFPath = doc.PDFPath
	rec.TexPath = doc.TexPath
	rec.Duration = elapsed
	uc.record(ctx, log, rec)

	log.Info().Str("stage", "done").Str("pdf", doc.PDFPath).Dur("duration", elapsed).Msg("resolución generada")
	return &Result{
		RunID:           runID,
		Code:            code,
		Title:           title,
		PDFPath:         doc.PDFPath,
		TexPath:         doc.TexPath,
		Replaced:        replaced,
		Warnings:        warnings,
		CleanupWarnings: cleanupWarnings,
		Subtotal:        subtotal,
		Total:           total,
		SubtotalText:    uc.opts.Money.String(subtotal),
		TotalText:       uc.opts.Money.String(total),
		Duration:        elapsed,
	}, nil
}

// GenerateFromStore genera a partir de la configuración persistida.
func (uc *GenerateUseCase) GenerateFromStore(ctx context.Context) (*Result, error) {
	raw, err := uc.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	return uc.Generate(ctx, raw)
}

// SaveConfig valida raw y lo persiste en forma canónica. Devuelve las advertencias.
func (uc *GenerateUseCase) SaveConfig(ctx context.Context, raw map[string]any) ([]string, error) {
	cfg, warnings, err := domainres.Validate(raw)
	if err != nil {
		return warnings, err
	}
	if err := uc.store.Save(ctx, cfg); err != nil {
		return warnings, fmt.Errorf("guardar configuración: %w", err)
	}
	uc.logger.Info().Str("periodo", cfg.Period.String()).Msg("configuración guardada")
	return warnings, nil
}

// LoadConfig devuelve la configuración persistida tal cual.
func (uc *GenerateUseCase) LoadConfig(ctx context.Context) (map[string]any, error) {
	return uc.store.Load(ctx)
}

// SystemStatus disponibilidad del compilador.
func (uc *GenerateUseCase) SystemStatus(ctx context.Context) (entity.SystemStatus, error) {
	return uc.compiler.CheckAvailability(ctx)
}

// History últimas generaciones. Sin historial configurado devuelve lista vacía.
func (uc *GenerateUseCase) History(ctx context.Context, page dto.PageRequest) ([]*entity.GenerationRecord, error) {
	if uc.history == nil {
		return nil, nil
	}
	page.DefaultPage()
	return uc.history.ListRecent(ctx, page.Limit, page.Offset)
}

// record guarda la fila del historial. Un fallo no afecta a la generación.
func (uc *GenerateUseCase) record(ctx context.Context, log zerolog.Logger, rec *entity.GenerationRecord) {
	if uc.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := uc.history.Create(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("no se pudo registrar la generación en el historial")
	}
}

// totals subtotal y total del documento: los del anexo si se renderiza; si no,
// la suma de los gastos citados en los considerandos.
func totals(cfg *entity.ResolutionConfig) (subtotal, total decimal.Decimal) {
	if cfg.Annex.Renderable() {
		return cfg.Annex.Subtotal(), cfg.Annex.FinalTotal()
	}
	t := cfg.PriorExpensesTotal()
	return t, t
}

// replaceSameDay borra los .pdf y .tex de otra resolución con el mismo código
// (mismo día) que no sean los recién generados.
func replaceSameDay(dir, code string, keep ...string) ([]string, []domain.CleanupWarning) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []domain.CleanupWarning{{File: dir, Err: err}}
	}
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[filepath.Clean(k)] = true
	}
	prefix := domainres.SameDayPrefix(code)

	var (
		replaced []string
		warnings []domain.CleanupWarning
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if ext := filepath.Ext(name); ext != ".pdf" && ext != ".tex" {
			continue
		}
		p := filepath.Join(dir, name)
		if kept[filepath.Clean(p)] {
			continue
		}
		if err := os.Remove(p); err != nil {
			warnings = append(warnings, domain.CleanupWarning{File: p, Err: err})
			continue
		}
		replaced = append(replaced, p)
	}
	return replaced, warnings
}
