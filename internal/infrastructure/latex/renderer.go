// Package latex genera el fuente LaTeX de la resolución y lo compila a PDF
// con una distribución TeX externa (pdflatex).
package latex

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/internal/domain/resolution"
	pkglatex "github.com/jhoicas/peco-resoluciones/pkg/latex"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

// TotalPlaceholder marcador de los artículos que se sustituye por el total.
const TotalPlaceholder = "$MONTO_TOTAL"

//go:embed templates/resolucion.tex.tmpl
var templatesFS embed.FS

// parseTemplate usa "<<" ">>" como delimitadores porque las llaves son sintaxis LaTeX.
func parseTemplate(esc func(string) string, m money.Format) *template.Template {
	return template.Must(
		template.New("resolucion.tex.tmpl").
			Delims("<<", ">>").
			Funcs(template.FuncMap{
				"esc":   esc,
				"monto": m.String,
			}).
			ParseFS(templatesFS, "templates/resolucion.tex.tmpl"),
	)
}

// RendererConfig parámetros de presentación.
type RendererConfig struct {
	Money money.Format
	// Logger recibe avisos de nivel debug sobre el texto del usuario. El valor
	// cero descarta todo.
	Logger zerolog.Logger
}

// Renderer transforma una ResolutionConfig validada en fuente LaTeX. No toca
// el disco ni el reloj (la fecha se recibe como argumento).
type Renderer struct {
	tmpl   *template.Template
	money  money.Format
	logger zerolog.Logger
}

// NewRenderer crea un Renderer con el formato de montos indicado.
func NewRenderer(cfg RendererConfig) *Renderer {
	r := &Renderer{
		money:  cfg.Money,
		logger: cfg.Logger,
	}
	r.tmpl = parseTemplate(r.escape, cfg.Money)
	return r
}

// escape escapa el texto del usuario. Si el texto ya trae escapes de LaTeX
// (p. ej. "100\%" copiado de un .tex) saldrá con la barra visible en el PDF;
// se deja constancia en debug para poder explicarlo.
func (r *Renderer) escape(s string) string {
	if strings.ContainsAny(s, "$%&#_") && pkglatex.LooksEscaped(s) {
		r.logger.Debug().Str("texto", s).Msg("el texto ya parece escapado para LaTeX; se escapa de nuevo")
	}
	return pkglatex.Escape(s)
}

// ── vista del template ────────────────────────────────────────────────────────

type clauseView struct {
	Gasto       bool
	Descripcion string
	Monto       decimal.Decimal
	Texto       string
}

type articleView struct {
	Numero int
	Texto  string
}

type annexView struct {
	Titulo         string
	Items          []entity.LineItem
	Penalizaciones []entity.LineItem
	Subtotal       decimal.Decimal
	Total          decimal.Decimal
	Nota           string
}

type documentView struct {
	Codigo        string
	Titulo        string
	FechaLarga    string
	MesNombre     string
	MesAnterior   string
	Anio          int
	Visto         string
	Considerandos []clauseView
	Articulos     []articleView
	Anexo         *annexView
}

// Render genera el documento para la fecha now.
//
// Asume una configuración ya validada: con cfg nil o un considerando de tipo
// desconocido entra en pánico (error del llamador, no del usuario).
func (r *Renderer) Render(cfg *entity.ResolutionConfig, now time.Time) string {
	if cfg == nil {
		panic("latex: Render con configuración nil")
	}
	view := r.buildView(cfg, now)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		panic(fmt.Sprintf("latex: template de resolución: %v", err))
	}
	return buf.String()
}

func (r *Renderer) buildView(cfg *entity.ResolutionConfig, now time.Time) documentView {
	code := resolution.ResolutionCode(now)
	view := documentView{
		Codigo:      code,
		Titulo:      resolution.DocumentTitle(code, cfg.BaseTitle),
		FechaLarga:  resolution.LongDate(now),
		MesNombre:   cases.Title(language.Spanish).String(cfg.Period.MonthName()), // Caser no es seguro entre goroutines
		MesAnterior: cfg.Period.Previous().MonthName(),
		Anio:        cfg.Period.Year,
		Visto:       cfg.PreambleText,
	}

	view.Considerandos = make([]clauseView, 0, len(cfg.Clauses))
	for i, cl := range cfg.Clauses {
		switch c := cl.(type) {
		case entity.PriorExpense:
			view.Considerandos = append(view.Considerandos, clauseView{Gasto: true, Descripcion: c.Description, Monto: c.Amount})
		case entity.FreeText:
			view.Considerandos = append(view.Considerandos, clauseView{Texto: c.Content})
		default:
			panic(fmt.Sprintf("latex: considerando %d de tipo %T no soportado", i, cl))
		}
	}

	total := cfg.PriorExpensesTotal()
	if cfg.Annex.Renderable() {
		a := cfg.Annex
		total = a.FinalTotal()
		view.Anexo = &annexView{
			Titulo:         a.Title,
			Items:          a.Items,
			Penalizaciones: a.Penalties,
			Subtotal:       a.Subtotal(),
			Total:          total,
			Nota:           a.ClosingNote,
		}
	}

	// el marcador se sustituye antes de escapar; el "$" se escapa con el resto
	totalText := "$" + r.money.String(total)
	view.Articulos = make([]articleView, len(cfg.Articles))
	for i, text := range cfg.Articles {
		view.Articulos[i] = articleView{Numero: i + 1, Texto: strings.ReplaceAll(text, TotalPlaceholder, totalText)}
	}
	return view
}
