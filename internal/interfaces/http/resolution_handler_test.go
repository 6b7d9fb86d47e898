package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/peco-resoluciones/internal/application/dto"
	appres "github.com/jhoicas/peco-resoluciones/internal/application/resolution"
	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/internal/infrastructure/filestore"
	"github.com/jhoicas/peco-resoluciones/internal/infrastructure/latex"
	apphttp "github.com/jhoicas/peco-resoluciones/internal/interfaces/http"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const configValida = `{
  "mes_iso": "2026-10",
  "titulo_base": "Presupuesto mensual",
  "visto": "La necesidad de aprobar el presupuesto",
  "considerandos": [{"tipo": "gasto_anterior", "descripcion": "Alquiler", "monto": 1500}],
  "articulos": ["Aprobar el presupuesto por $MONTO_TOTAL."],
  "anexo": {"items": [{"categoria": "Comida", "monto": "1000"}]}
}`

// stubCompiler escribe un PDF falso o devuelve err.
type stubCompiler struct {
	err    error
	status entity.SystemStatus
}

func (s *stubCompiler) Compile(_ context.Context, source, dir, base string) (*entity.CompiledDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	pdf := filepath.Join(dir, base+".pdf")
	tex := filepath.Join(dir, base+".tex")
	if err := os.WriteFile(tex, []byte(source), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(pdf, []byte("%PDF-1.5"), 0o644); err != nil {
		return nil, err
	}
	return &entity.CompiledDocument{PDFPath: pdf, TexPath: tex, Attempts: 1}, nil
}

func (s *stubCompiler) CheckAvailability(context.Context) (entity.SystemStatus, error) {
	if s.err != nil {
		return s.status, s.err
	}
	return s.status, nil
}

type testEnv struct {
	app       *fiber.App
	outputDir string
	config    string
}

func buildTestApp(t *testing.T, compiler *stubCompiler) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{outputDir: filepath.Join(dir, "out"), config: filepath.Join(dir, "config_mes.json")}
	require.NoError(t, os.MkdirAll(env.outputDir, 0o755))

	uc := appres.NewGenerateUseCase(
		latex.NewRenderer(latex.RendererConfig{Money: money.Default}),
		compiler,
		filestore.NewConfigStore(env.config),
		nil,
		appres.Options{
			OutputDir: env.outputDir,
			Now:       func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.Local) },
			Money:     money.Default,
		},
		zerolog.Nop(),
	)
	env.app = fiber.New()
	apphttp.Router(env.app, apphttp.RouterDeps{ResolutionUC: uc})
	return env
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// ──────────────────────────────────────────────────────────────────────────────
// Generación
// ──────────────────────────────────────────────────────────────────────────────

func TestGenerate_Exitoso(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})

	status, body := do(t, env.app, http.MethodPost, "/api/resoluciones/generar", configValida)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var resp dto.GenerationResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "r14eXs26", resp.Codigo)
	assert.Equal(t, "r14eXs26 - Presupuesto mensual", resp.Titulo)
	assert.Equal(t, "1.000", resp.Total, "mismo formato que el documento")
	assert.FileExists(t, resp.PDFPath)
	assert.NotEmpty(t, resp.RunID)
}

func TestGenerate_ConfigInvalida(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})

	status, body := do(t, env.app, http.MethodPost, "/api/resoluciones/generar", `{"mes_iso": "2026-13"}`)
	require.Equal(t, fiber.StatusUnprocessableEntity, status, string(body))

	var resp dto.GenerationErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "VALIDATION", resp.Code)
	assert.NotEmpty(t, resp.Errors, "cada campo inválido se informa")
	assert.NotEmpty(t, resp.Suggestions)

	entries, err := os.ReadDir(env.outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "una configuración inválida no produce archivos")
}

func TestGenerate_CuerpoMalFormado(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})
	status, _ := do(t, env.app, http.MethodPost, "/api/resoluciones/generar", `{"mes_iso":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestGenerate_SinCuerpoUsaConfigGuardada(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})

	status, _ := do(t, env.app, http.MethodPost, "/api/resoluciones/generar", "")
	assert.Equal(t, fiber.StatusNotFound, status, "sin configuración guardada")

	require.NoError(t, os.WriteFile(env.config, []byte(configValida), 0o644))
	status, body := do(t, env.app, http.MethodPost, "/api/resoluciones/generar", "")
	assert.Equal(t, fiber.StatusCreated, status, string(body))
}

func TestGenerate_ErroresDeCompilacion(t *testing.T) {
	failed := domain.NewGenerationError(domain.KindCompilationFailed, "pdflatex falló", nil)
	failed.Diagnostics = []string{"resolucion.tex:12: Undefined control sequence."}
	failed.Log = strings.Repeat("x", 10000)
	failed.CleanupWarnings = []domain.CleanupWarning{{File: "resolucion-borrador.aux", Err: os.ErrPermission}}

	missing := domain.NewGenerationError(domain.KindResourceMissing, "faltan recursos", nil)
	missing.Resources = []string{"firma.png"}

	cases := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, resp dto.GenerationErrorResponse)
	}{
		{"compilación fallida", failed, fiber.StatusInternalServerError, func(t *testing.T, resp dto.GenerationErrorResponse) {
			assert.Equal(t, "COMPILATION_FAILED", resp.Code)
			assert.Equal(t, failed.Diagnostics, resp.Diagnostics)
			assert.NotEmpty(t, resp.Log)
			assert.Less(t, len(resp.Log), 10000, "el log se recorta")
			require.Len(t, resp.CleanupWarnings, 1)
			assert.Contains(t, resp.CleanupWarnings[0], "resolucion-borrador.aux")
		}},
		{"recurso faltante", missing, fiber.StatusFailedDependency, func(t *testing.T, resp dto.GenerationErrorResponse) {
			assert.Equal(t, "RESOURCE_MISSING", resp.Code)
			assert.Equal(t, []string{"firma.png"}, resp.Resources)
		}},
		{"tiempo agotado", domain.NewGenerationError(domain.KindCompilationTimeout, "expiró", nil), fiber.StatusGatewayTimeout,
			func(t *testing.T, resp dto.GenerationErrorResponse) {
				assert.Equal(t, "COMPILATION_TIMEOUT", resp.Code)
			}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := buildTestApp(t, &stubCompiler{err: tc.err})
			status, body := do(t, env.app, http.MethodPost, "/api/resoluciones/generar", configValida)
			require.Equal(t, tc.status, status, string(body))
			var resp dto.GenerationErrorResponse
			require.NoError(t, json.Unmarshal(body, &resp))
			assert.NotEmpty(t, resp.Suggestions)
			tc.check(t, resp)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Configuración
// ──────────────────────────────────────────────────────────────────────────────

func TestConfig_GuardarYLeer(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})

	status, body := do(t, env.app, http.MethodPut, "/api/resoluciones/config", configValida)
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body = do(t, env.app, http.MethodGet, "/api/resoluciones/config", "")
	require.Equal(t, fiber.StatusOK, status)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "2026-10", raw["mes_iso"])
	assert.Equal(t, "Presupuesto mensual", raw["titulo_base"])
}

func TestConfig_GuardarInvalidaNoEscribe(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})

	status, _ := do(t, env.app, http.MethodPut, "/api/resoluciones/config", `{"mes_iso": "x"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.NoFileExists(t, env.config)
}

// ──────────────────────────────────────────────────────────────────────────────
// Sistema e historial
// ──────────────────────────────────────────────────────────────────────────────

func TestSystemStatus(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{status: entity.SystemStatus{Available: true, Binary: "pdflatex", Version: "pdfTeX 3.14"}})
	status, body := do(t, env.app, http.MethodGet, "/api/sistema/validar", "")
	require.Equal(t, fiber.StatusOK, status)
	var resp dto.SystemStatusResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Disponible)
	assert.Equal(t, "pdfTeX 3.14", resp.Version)

	missing := domain.NewGenerationError(domain.KindResourceMissing, "pdflatex no está instalado", nil)
	env = buildTestApp(t, &stubCompiler{err: missing, status: entity.SystemStatus{Binary: "pdflatex", Instructions: []string{"sudo apt install texlive"}}})
	status, body = do(t, env.app, http.MethodGet, "/api/sistema/validar", "")
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.Disponible)
	assert.NotEmpty(t, resp.Instrucciones)
}

func TestHistory_SinRepositorio(t *testing.T) {
	env := buildTestApp(t, &stubCompiler{})

	status, body := do(t, env.app, http.MethodGet, "/api/resoluciones/historial", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, _ = do(t, env.app, http.MethodGet, "/api/resoluciones/historial?limit=500", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
