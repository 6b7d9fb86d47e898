package resolution_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/peco-resoluciones/internal/application/dto"
	appres "github.com/jhoicas/peco-resoluciones/internal/application/resolution"
	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeRenderer struct{ calls atomic.Int32 }

func (r *fakeRenderer) Render(cfg *entity.ResolutionConfig, now time.Time) string {
	r.calls.Add(1)
	return "% " + cfg.BaseTitle
}

// fakeCompiler escribe base.pdf y base.tex en outputDir, o devuelve err.
type fakeCompiler struct {
	err      error
	delay    time.Duration
	inFlight atomic.Int32
	overlap  atomic.Bool
	calls    atomic.Int32
	status   entity.SystemStatus
}

func (c *fakeCompiler) Compile(ctx context.Context, source, outputDir, baseName string) (*entity.CompiledDocument, error) {
	c.calls.Add(1)
	if c.inFlight.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.inFlight.Add(-1)
	time.Sleep(c.delay)
	if c.err != nil {
		return nil, c.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	pdf := filepath.Join(outputDir, baseName+".pdf")
	tex := filepath.Join(outputDir, baseName+".tex")
	if err := os.WriteFile(pdf, []byte("%PDF"), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(tex, []byte(source), 0o644); err != nil {
		return nil, err
	}
	return &entity.CompiledDocument{PDFPath: pdf, TexPath: tex, Attempts: 1}, nil
}

func (c *fakeCompiler) CheckAvailability(context.Context) (entity.SystemStatus, error) {
	return c.status, nil
}

type fakeStore struct {
	raw   map[string]any
	saved *entity.ResolutionConfig
}

func (s *fakeStore) Load(context.Context) (map[string]any, error) {
	if s.raw == nil {
		return nil, domain.ErrNotFound
	}
	return s.raw, nil
}

func (s *fakeStore) Save(_ context.Context, cfg *entity.ResolutionConfig) error {
	s.saved = cfg
	return nil
}

type fakeHistory struct {
	mu         sync.Mutex
	records    []*entity.GenerationRecord
	err        error
	lastLimit  int
	lastOffset int
}

func (h *fakeHistory) EnsureSchema(context.Context) error { return nil }

func (h *fakeHistory) Create(_ context.Context, rec *entity.GenerationRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return h.err
}

func (h *fakeHistory) ListRecent(_ context.Context, limit, offset int) ([]*entity.GenerationRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastLimit, h.lastOffset = limit, offset
	return h.records, nil
}

var genTime = time.Date(2026, time.October, 14, 11, 0, 0, 0, time.UTC)

func rawConfig(title string) map[string]any {
	return map[string]any{
		"mes_iso":     "2026-10",
		"titulo_base": title,
		"visto":       "Visto",
		"considerandos": []any{
			map[string]any{"tipo": "gasto_anterior", "descripcion": "Alquiler", "monto": "1500"},
		},
		"articulos": []any{"Aprobar $MONTO_TOTAL"},
		"anexo": map[string]any{
			"items": []any{
				map[string]any{"categoria": "Comida", "monto": "1000"},
				map[string]any{"categoria": "Transporte", "monto": "500"},
			},
			"penalizaciones": []any{map[string]any{"categoria": "Recargo", "monto": "200"}},
		},
	}
}

type harness struct {
	uc       *appres.GenerateUseCase
	renderer *fakeRenderer
	compiler *fakeCompiler
	store    *fakeStore
	history  *fakeHistory
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		renderer: &fakeRenderer{},
		compiler: &fakeCompiler{},
		store:    &fakeStore{},
		history:  &fakeHistory{},
		dir:      t.TempDir(),
	}
	h.uc = appres.NewGenerateUseCase(h.renderer, h.compiler, h.store, h.history,
		appres.Options{OutputDir: h.dir, Now: func() time.Time { return genTime }},
		zerolog.Nop())
	return h
}

// ──────────────────────────────────────────────────────────────────────────────
// Generate
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerate_Exito(t *testing.T) {
	h := newHarness(t)
	res, err := h.uc.Generate(context.Background(), rawConfig("Presupuesto"))
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "r14eXs26", res.Code)
	assert.Equal(t, "r14eXs26 - Presupuesto", res.Title)
	assert.Equal(t, filepath.Join(h.dir, "r14eXs26 - Presupuesto.pdf"), res.PDFPath)
	assert.True(t, decimal.NewFromInt(1500).Equal(res.Subtotal))
	assert.True(t, decimal.NewFromInt(1300).Equal(res.Total))
	assert.Equal(t, "1.500", res.SubtotalText)
	assert.Equal(t, "1.300", res.TotalText)

	require.Len(t, h.history.records, 1)
	rec := h.history.records[0]
	assert.Equal(t, entity.GenerationStatusSuccess, rec.Status)
	assert.Equal(t, res.RunID, rec.ID)
	assert.Equal(t, "2026-10", rec.Period)
}

func TestGenerate_ConfigInvalidaNoCompila(t *testing.T) {
	h := newHarness(t)
	raw := rawConfig("Presupuesto")
	delete(raw, "considerandos")

	_, err := h.uc.Generate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Zero(t, h.renderer.calls.Load(), "la validación falla antes de renderizar")
	assert.Zero(t, h.compiler.calls.Load())
	assert.Empty(t, h.history.records)
}

func TestGenerate_FalloDeCompilacionQuedaEnHistorial(t *testing.T) {
	h := newHarness(t)
	ge := domain.NewGenerationError(domain.KindCompilationFailed, "pdflatex terminó con errores", nil)
	h.compiler.err = ge

	_, err := h.uc.Generate(context.Background(), rawConfig("Presupuesto"))
	assert.ErrorIs(t, err, domain.ErrCompilation)

	require.Len(t, h.history.records, 1)
	assert.Equal(t, entity.GenerationStatusFailed, h.history.records[0].Status)
	assert.Equal(t, string(domain.KindCompilationFailed), h.history.records[0].ErrorKind)
}

func TestGenerate_HistorialCaidoNoAfecta(t *testing.T) {
	h := newHarness(t)
	h.history.err = errors.New("sin conexión")
	_, err := h.uc.Generate(context.Background(), rawConfig("Presupuesto"))
	assert.NoError(t, err)
}

func TestGenerate_ReemplazaLaResolucionDelDia(t *testing.T) {
	h := newHarness(t)
	old := []string{
		filepath.Join(h.dir, "r14eXs26 - Titulo viejo.pdf"),
		filepath.Join(h.dir, "r14eXs26 - Titulo viejo.tex"),
	}
	otherDay := filepath.Join(h.dir, "r13eXs26 - Ayer.pdf")
	notes := filepath.Join(h.dir, "r14eXs26 - notas.txt")
	for _, p := range append(old, otherDay, notes) {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	res, err := h.uc.Generate(context.Background(), rawConfig("Nuevo"))
	require.NoError(t, err)

	assert.ElementsMatch(t, old, res.Replaced)
	for _, p := range old {
		assert.NoFileExists(t, p)
	}
	assert.FileExists(t, otherDay, "otro día no se toca")
	assert.FileExists(t, notes, "solo .pdf y .tex")
	assert.FileExists(t, res.PDFPath)
}

func TestGenerate_MismoCodigoSeSerializa(t *testing.T) {
	h := newHarness(t)
	h.compiler.delay = 30 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.uc.Generate(context.Background(), rawConfig("Presupuesto"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), h.compiler.calls.Load())
	assert.False(t, h.compiler.overlap.Load(), "dos compilaciones del mismo código no deben solaparse")
}

// ──────────────────────────────────────────────────────────────────────────────
// Configuración persistida
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerateFromStore(t *testing.T) {
	h := newHarness(t)
	_, err := h.uc.GenerateFromStore(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	h.store.raw = rawConfig("Desde archivo")
	res, err := h.uc.GenerateFromStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r14eXs26 - Desde archivo", res.Title)
}

func TestSaveConfig(t *testing.T) {
	h := newHarness(t)
	_, err := h.uc.SaveConfig(context.Background(), map[string]any{"mes_iso": "2026-10"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, h.store.saved)

	_, err = h.uc.SaveConfig(context.Background(), rawConfig("Guardada"))
	require.NoError(t, err)
	require.NotNil(t, h.store.saved)
	assert.Equal(t, "Guardada", h.store.saved.BaseTitle)
}

func TestHistory_SinRepositorio(t *testing.T) {
	uc := appres.NewGenerateUseCase(&fakeRenderer{}, &fakeCompiler{}, &fakeStore{}, nil,
		appres.Options{OutputDir: t.TempDir()}, zerolog.Nop())
	records, err := uc.History(context.Background(), dto.PageRequest{Limit: 10})
	assert.NoError(t, err)
	assert.Empty(t, records)

	_, err = uc.Generate(context.Background(), rawConfig("Sin historial"))
	assert.NoError(t, err)
}

func TestHistory_PaginacionPorDefecto(t *testing.T) {
	h := newHarness(t)
	_, err := h.uc.History(context.Background(), dto.PageRequest{Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 20, h.history.lastLimit)
	assert.Equal(t, 0, h.history.lastOffset)
}

func TestGenerate_TotalesConElFormatoConfigurado(t *testing.T) {
	uc := appres.NewGenerateUseCase(&fakeRenderer{}, &fakeCompiler{}, &fakeStore{}, nil,
		appres.Options{OutputDir: t.TempDir(), Now: func() time.Time { return genTime }, Money: money.Format{Decimals: 2}},
		zerolog.Nop())
	res, err := uc.Generate(context.Background(), rawConfig("Con centavos"))
	require.NoError(t, err)
	assert.Equal(t, "1.500,00", res.SubtotalText)
	assert.Equal(t, "1.300,00", res.TotalText)
}
