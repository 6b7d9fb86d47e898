package latex_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/internal/infrastructure/latex"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var fechaFija = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// configAlquiler: un gasto anterior, un artículo y un anexo de dos ítems.
func configAlquiler() *entity.ResolutionConfig {
	return &entity.ResolutionConfig{
		Period:       entity.Period{Year: 2026, Month: time.October},
		BaseTitle:    "Presupuesto mensual",
		PreambleText: "La necesidad de aprobar el presupuesto",
		Clauses: []entity.Clause{
			entity.PriorExpense{Description: "Alquiler", Amount: dec(1500)},
		},
		Articles: []string{"Aprobar el presupuesto"},
		Annex: &entity.Annex{
			Title: "Presupuesto detallado",
			Items: []entity.LineItem{
				{Category: "Comida", Amount: dec(1000)},
				{Category: "Transporte", Amount: dec(500)},
			},
		},
	}
}

func render(cfg *entity.ResolutionConfig) string {
	return latex.NewRenderer(latex.RendererConfig{Money: money.Default}).Render(cfg, fechaFija)
}

// ──────────────────────────────────────────────────────────────────────────────
// Anexo y totales
// ──────────────────────────────────────────────────────────────────────────────

func TestRender_AnexoSinPenalizaciones(t *testing.T) {
	out := render(configAlquiler())

	assert.Contains(t, out, `\textbf{ANEXO}`)
	assert.Contains(t, out, `Comida & \$1.000 \\`)
	assert.Contains(t, out, `Transporte & \$500 \\`)
	assert.Contains(t, out, `\textbf{Subtotal} & \textbf{\$1.500} \\`)
	assert.Contains(t, out, `\textbf{Total} & \textbf{\$1.500} \\`, "sin penalizaciones el total es el subtotal")
}

func TestRender_AnexoConPenalizacion(t *testing.T) {
	cfg := configAlquiler()
	cfg.Annex.Penalties = []entity.LineItem{{Category: "Recargo por mora", Amount: dec(200)}}
	out := render(cfg)

	assert.Contains(t, out, `Recargo por mora & -\$200 \\`)
	assert.Contains(t, out, `\textbf{Total} & \textbf{\$1.300} \\`)
	assert.Less(t, strings.Index(out, "Transporte"), strings.Index(out, "Recargo por mora"),
		"las penalizaciones van después de los ítems")
}

func TestRender_AnexoVacioNoSeEmite(t *testing.T) {
	cfg := configAlquiler()
	cfg.Annex = &entity.Annex{Title: "Sin nada", ClosingNote: "nota"}
	out := render(cfg)
	assert.NotContains(t, out, "ANEXO")
	assert.NotContains(t, out, "Sin nada")

	cfg.Annex = nil
	assert.NotContains(t, render(cfg), "ANEXO")
}

func TestRender_AnexoSinTituloOmiteSoloElTitulo(t *testing.T) {
	cfg := configAlquiler()
	cfg.Annex.Title = ""
	cfg.Annex.ClosingNote = "Sujeto a revisión"
	out := render(cfg)

	assert.Contains(t, out, `\textbf{ANEXO}`)
	assert.NotContains(t, out, `\\[0.3em]`)
	assert.Contains(t, out, "Sujeto a revisión")
}

func TestRender_TotalesPropiedadAleatoria(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := latex.NewRenderer(latex.RendererConfig{Money: money.Default})

	for iter := 0; iter < 100; iter++ {
		cfg := configAlquiler()
		cfg.Annex.Items = nil
		subtotal := int64(0)
		for i, n := 0, 1+rng.Intn(6); i < n; i++ {
			v := int64(rng.Intn(100000))
			subtotal += v
			cfg.Annex.Items = append(cfg.Annex.Items, entity.LineItem{Category: fmt.Sprintf("c%d", i), Amount: dec(v)})
		}
		penalties := int64(0)
		for i, n := 0, rng.Intn(3); i < n; i++ {
			v := int64(rng.Intn(1000))
			penalties += v
			cfg.Annex.Penalties = append(cfg.Annex.Penalties, entity.LineItem{Category: fmt.Sprintf("p%d", i), Amount: dec(v)})
		}
		out := r.Render(cfg, fechaFija)

		wantSub := `\textbf{Subtotal} & \textbf{\$` + money.Default.String(dec(subtotal)) + `}`
		wantTotal := `\textbf{Total} & \textbf{\$` + money.Default.String(dec(subtotal-penalties)) + `}`
		require.Contains(t, out, wantSub, "iteración %d", iter)
		require.Contains(t, out, wantTotal, "iteración %d", iter)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Artículos y considerandos
// ──────────────────────────────────────────────────────────────────────────────

func TestRender_NumeracionDeArticulos(t *testing.T) {
	for _, n := range []int{1, 2, 7, 15} {
		cfg := configAlquiler()
		cfg.Articles = nil
		for i := 0; i < n; i++ {
			cfg.Articles = append(cfg.Articles, fmt.Sprintf("Artículo %d", i))
		}
		out := render(cfg)

		assert.Equal(t, n, strings.Count(out, `\textbf{ARTÍCULO `), "cantidad de marcadores para n=%d", n)
		last := -1
		for i := 1; i <= n; i++ {
			marker := fmt.Sprintf(`\textbf{ARTÍCULO %d°.-}`, i)
			assert.Equal(t, 1, strings.Count(out, marker), "marcador %d único", i)
			pos := strings.Index(out, marker)
			assert.Greater(t, pos, last, "marcadores en orden")
			last = pos
		}
	}
}

func TestRender_MontoTotalEnArticulos(t *testing.T) {
	cfg := configAlquiler()
	cfg.Articles = []string{"Aprobar la suma de $MONTO_TOTAL para el mes."}
	cfg.Annex.Penalties = []entity.LineItem{{Category: "Recargo", Amount: dec(200)}}
	out := render(cfg)
	assert.Contains(t, out, `Aprobar la suma de \$1.300 para el mes.`)

	cfg.Annex = nil
	assert.Contains(t, render(cfg), `Aprobar la suma de \$1.500 para el mes.`,
		"sin anexo se usa la suma de los gastos anteriores")
}

func TestRender_ConsiderandosEnOrdenYEscapados(t *testing.T) {
	cfg := configAlquiler()
	cfg.Clauses = []entity.Clause{
		entity.FreeText{Content: "Que el costo fue de $1,500 & taxes"},
		entity.PriorExpense{Description: "Luz_y_agua", Amount: dec(320)},
	}
	out := render(cfg)

	free := strings.Index(out, `Que el costo fue de \$1,500 \& taxes`)
	prior := strings.Index(out, `en concepto de Luz\_y\_agua por un monto de \$320.`)
	require.NotEqual(t, -1, free)
	require.NotEqual(t, -1, prior)
	assert.Less(t, free, prior)
	assert.Contains(t, out, "Que durante el mes de septiembre", "el gasto refiere al mes anterior")
}

func TestRender_TextoYaEscapadoSeInformaEnDebug(t *testing.T) {
	var buf bytes.Buffer
	r := latex.NewRenderer(latex.RendererConfig{
		Money:  money.Default,
		Logger: zerolog.New(&buf).Level(zerolog.DebugLevel),
	})

	cfg := configAlquiler()
	cfg.Clauses = []entity.Clause{entity.FreeText{Content: "Que el costo fue de $1,500 & taxes"}}
	r.Render(cfg, fechaFija)
	assert.Empty(t, buf.String(), "texto sin escapar: nada que avisar")

	cfg.Clauses = []entity.Clause{entity.FreeText{Content: `Aumento del 10\% pactado`}}
	out := r.Render(cfg, fechaFija)
	assert.Contains(t, out, `Aumento del 10\textbackslash{}\% pactado`, "se escapa igual")
	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), "ya parece escapado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Encabezado
// ──────────────────────────────────────────────────────────────────────────────

func TestRender_EncabezadoDerivadoDeLaFecha(t *testing.T) {
	out := render(configAlquiler())
	assert.Contains(t, out, `\textbf{RESOLUCIÓN r14eXs26}`)
	assert.Contains(t, out, "14 de octubre de 2026")
	assert.Contains(t, out, `{\Large\textbf{r14eXs26 - Presupuesto mensual}}`)
	assert.Contains(t, out, "Octubre 2026")
	assert.Contains(t, out, `\includegraphics[width=2.8cm]{logo.png}`)
}

func TestRender_FormatoConDecimales(t *testing.T) {
	cfg := configAlquiler()
	cfg.Annex.Items = []entity.LineItem{{Category: "Comida", Amount: decimal.RequireFromString("1234.5")}}
	out := latex.NewRenderer(latex.RendererConfig{Money: money.Format{Decimals: 2}}).Render(cfg, fechaFija)
	assert.Contains(t, out, `\textbf{Total} & \textbf{\$1.234,50}`)
}

func TestRender_ConfigNilEntraEnPanico(t *testing.T) {
	assert.Panics(t, func() { render(nil) })

	cfg := configAlquiler()
	cfg.Clauses = []entity.Clause{nil}
	assert.Panics(t, func() { render(cfg) })
}
