package entity

import "github.com/shopspring/decimal"

// ResolutionConfig configuración validada de una resolución mensual.
// Se construye una vez por generación y el renderer la consume sin modificarla.
type ResolutionConfig struct {
	Period       Period
	BaseTitle    string
	PreambleText string   // cláusula VISTO
	Clauses      []Clause // CONSIDERANDO, en orden de renderizado
	Articles     []string // RESUELVO; la numeración se deriva de la posición
	Annex        *Annex   // opcional
}

// Clause entrada del CONSIDERANDO. Solo PriorExpense y FreeText la implementan.
type Clause interface {
	isClause()
}

// PriorExpense referencia a un gasto del mes anterior. Amount > 0.
type PriorExpense struct {
	Description string
	Amount      decimal.Decimal
}

// FreeText considerando de texto libre.
type FreeText struct {
	Content string
}

func (PriorExpense) isClause() {}
func (FreeText) isClause()     {}

// Tipos de considerando en el esquema persistido.
const (
	ClauseTypePriorExpense = "gasto_anterior"
	ClauseTypeFreeText     = "texto"
)

// LineItem par categoría/monto del anexo. En penalizaciones Amount es la
// magnitud (siempre >= 0); la resta la aplica el cálculo del total.
type LineItem struct {
	Category string
	Amount   decimal.Decimal
}

// Annex anexo financiero opcional.
type Annex struct {
	Title       string // vacío: se omite solo el título
	Items       []LineItem
	Penalties   []LineItem
	ClosingNote string
}

// Renderable indica si el anexo tiene contenido. Un anexo sin ítems ni
// penalizaciones equivale a "sin anexo" al renderizar.
func (a *Annex) Renderable() bool {
	return a != nil && (len(a.Items) > 0 || len(a.Penalties) > 0)
}

// Subtotal suma de los ítems.
func (a *Annex) Subtotal() decimal.Decimal {
	return sumItems(a.Items)
}

// PenaltiesTotal suma de las magnitudes de las penalizaciones.
func (a *Annex) PenaltiesTotal() decimal.Decimal {
	return sumItems(a.Penalties)
}

// FinalTotal subtotal menos penalizaciones (igual al subtotal si no hay).
func (a *Annex) FinalTotal() decimal.Decimal {
	if len(a.Penalties) == 0 {
		return a.Subtotal()
	}
	return a.Subtotal().Sub(a.PenaltiesTotal())
}

func sumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// PriorExpensesTotal suma de los gastos del mes anterior citados en los considerandos.
func (c *ResolutionConfig) PriorExpensesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, cl := range c.Clauses {
		if pe, ok := cl.(PriorExpense); ok {
			total = total.Add(pe.Amount)
		}
	}
	return total
}
