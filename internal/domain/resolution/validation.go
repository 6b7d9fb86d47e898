// Package resolution contiene las reglas de dominio de las resoluciones mensuales:
// validación del esquema de configuración, adaptación del esquema antiguo y las
// convenciones de código y fecha del documento.
package resolution

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
	"github.com/jhoicas/peco-resoluciones/pkg/money"
)

// Límites a partir de los cuales se advierte (no es error).
const (
	maxTitleLen    = 200
	maxPreambleLen = 1000
	maxArticleLen  = 500
	minYear        = 2020
)

// nowFunc reloj usado para la advertencia de año inusual.
var nowFunc = time.Now

// Validate normaliza el esquema antiguo y valida la configuración cruda
// (JSON ya decodificado en map[string]any). Reúne todos los errores en lugar
// de cortar en el primero.
//
// Retorna:
//   - (config, warnings, nil)            si la configuración es válida.
//   - (nil, warnings, ValidationErrors)  si hay al menos un error.
//
// Nunca entra en pánico por problemas de forma de la entrada.
func Validate(raw map[string]any) (*entity.ResolutionConfig, []string, error) {
	c := &collector{}
	if raw == nil {
		c.malformed("", "la configuración debe ser un objeto JSON")
		return nil, nil, c.errs
	}
	normalized, legacyWarnings := NormalizeLegacySchema(raw)
	c.warnings = append(c.warnings, legacyWarnings...)

	cfg := &entity.ResolutionConfig{}

	// ── 1. mes_iso ────────────────────────────────────────────────────────────
	if s, ok := requiredString(c, normalized, "mes_iso"); ok {
		p, err := entity.ParsePeriod(strings.TrimSpace(s))
		if err != nil {
			c.invalid("mes_iso", "%v", err)
		} else {
			cfg.Period = p
			if maxYear := nowFunc().Year() + 5; p.Year < minYear || p.Year > maxYear {
				c.warn("mes_iso: el año %d parece inusual (se espera %d-%d)", p.Year, minYear, maxYear)
			}
		}
	}

	// ── 2. titulo_base y visto ───────────────────────────────────────────────
	if s, ok := requiredText(c, normalized, "titulo_base"); ok {
		cfg.BaseTitle = s
		if utf8.RuneCountInString(s) > maxTitleLen {
			c.warn("titulo_base es muy largo (>%d caracteres)", maxTitleLen)
		}
	}
	if s, ok := requiredText(c, normalized, "visto"); ok {
		cfg.PreambleText = s
		if utf8.RuneCountInString(s) > maxPreambleLen {
			c.warn("visto es muy largo (>%d caracteres)", maxPreambleLen)
		}
	}

	// ── 3. considerandos ─────────────────────────────────────────────────────
	cfg.Clauses = validateClauses(c, normalized["considerandos"], has(normalized, "considerandos"))

	// ── 4. articulos ─────────────────────────────────────────────────────────
	cfg.Articles = validateArticles(c, normalized["articulos"], has(normalized, "articulos"))

	// ── 5. anexo (opcional) ──────────────────────────────────────────────────
	cfg.Annex = validateAnnex(c, normalized["anexo"])

	if len(c.errs) > 0 {
		return nil, c.warnings, c.errs
	}
	return cfg, c.warnings, nil
}

func validateClauses(c *collector, v any, present bool) []entity.Clause {
	const path = "considerandos"
	if !present || v == nil {
		c.invalid(path, "campo requerido: debe contener al menos un considerando")
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		c.malformed(path, "debe ser una lista")
		return nil
	}
	if len(list) == 0 {
		c.invalid(path, "debe contener al menos un considerando")
		return nil
	}
	clauses := make([]entity.Clause, 0, len(list))
	for i, item := range list {
		p := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			c.malformed(p, "debe ser un objeto")
			continue
		}
		tipo, ok := requiredString(c, obj, "tipo", p)
		if !ok {
			continue
		}
		switch tipo {
		case entity.ClauseTypePriorExpense:
			if hasValue(obj, "contenido") {
				c.invalid(p+".contenido", "no corresponde a un considerando de tipo %q", tipo)
			}
			desc, okDesc := requiredText(c, obj, "descripcion", p)
			amount, okAmount := requiredAmount(c, obj, "monto", p)
			if okAmount && amount.Sign() <= 0 {
				c.invalid(p+".monto", "debe ser mayor que cero")
				okAmount = false
			}
			if okDesc && okAmount {
				clauses = append(clauses, entity.PriorExpense{Description: desc, Amount: amount})
			}
		case entity.ClauseTypeFreeText:
			if hasValue(obj, "descripcion") || hasValue(obj, "monto") {
				c.invalid(p, "un considerando de tipo %q no admite 'descripcion' ni 'monto'", tipo)
			}
			if content, ok := requiredText(c, obj, "contenido", p); ok {
				clauses = append(clauses, entity.FreeText{Content: content})
			}
		default:
			c.invalid(p+".tipo", "debe ser %q o %q", entity.ClauseTypePriorExpense, entity.ClauseTypeFreeText)
		}
	}
	return clauses
}

func validateArticles(c *collector, v any, present bool) []string {
	const path = "articulos"
	if !present || v == nil {
		c.invalid(path, "campo requerido: debe contener al menos un artículo")
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		c.malformed(path, "debe ser una lista")
		return nil
	}
	if len(list) == 0 {
		c.invalid(path, "debe contener al menos un artículo")
		return nil
	}
	articles := make([]string, 0, len(list))
	for i, item := range list {
		p := fmt.Sprintf("%s[%d]", path, i)
		s, ok := item.(string)
		if !ok {
			c.malformed(p, "debe ser texto")
			continue
		}
		s = cleanText(s)
		if s == "" {
			c.invalid(p, "no puede estar vacío")
			continue
		}
		if utf8.RuneCountInString(s) > maxArticleLen {
			c.warn("%s es muy largo (>%d caracteres)", p, maxArticleLen)
		}
		articles = append(articles, s)
	}
	return articles
}

func validateAnnex(c *collector, v any) *entity.Annex {
	const path = "anexo"
	if v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		c.malformed(path, "debe ser un objeto")
		return nil
	}
	if _, stillLegacy := obj[keyAnnexLegacy]; stillLegacy {
		c.malformed(path+"."+keyAnnexLegacy, "formato antiguo no reconocido: debe ser una lista de {categoria, monto} o un objeto {categoria: monto}")
	}
	for _, k := range unknownAnnexKeys(obj) {
		c.warn("%s.%s: campo desconocido, se ignora", path, k)
	}
	annex := &entity.Annex{
		Title:       optionalText(c, obj, keyAnnexTitle, path),
		ClosingNote: optionalText(c, obj, keyAnnexNote, path),
	}
	annex.Items = validateLineItems(c, obj[keyAnnexItems], path+"."+keyAnnexItems, false)
	annex.Penalties = validateLineItems(c, obj[keyAnnexPenalties], path+"."+keyAnnexPenalties, true)
	return annex
}

// unknownAnnexKeys claves del anexo que el esquema no reconoce, ordenadas.
func unknownAnnexKeys(obj map[string]any) []string {
	var out []string
	for k := range obj {
		switch k {
		case keyAnnexTitle, keyAnnexItems, keyAnnexPenalties, keyAnnexNote, keyAnnexLegacy:
		default:
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// validateLineItems valida ítems o penalizaciones. En penalizaciones se acepta
// cualquier signo y se guarda la magnitud.
func validateLineItems(c *collector, v any, path string, penalties bool) []entity.LineItem {
	if v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		c.malformed(path, "debe ser una lista")
		return nil
	}
	items := make([]entity.LineItem, 0, len(list))
	for i, item := range list {
		p := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			c.malformed(p, "debe ser un objeto")
			continue
		}
		category, okCat := requiredText(c, obj, "categoria", p)
		amount, okAmount := requiredAmount(c, obj, "monto", p)
		if okAmount {
			if penalties {
				amount = amount.Abs()
			} else if amount.Sign() <= 0 {
				c.invalid(p+".monto", "debe ser mayor que cero")
				okAmount = false
			}
		}
		if okCat && okAmount {
			items = append(items, entity.LineItem{Category: category, Amount: amount})
		}
	}
	return items
}

// ── helpers ───────────────────────────────────────────────────────────────────

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func has(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}

// hasValue campo presente con un valor no vacío (null y "" cuentan como ausentes).
func hasValue(obj map[string]any, key string) bool {
	v, ok := obj[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// cleanText normaliza a NFC (pdflatex no compone acentos descompuestos) y recorta.
func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func requiredString(c *collector, obj map[string]any, key string, parent ...string) (string, bool) {
	p := joinPath(strings.Join(parent, ""), key)
	v, ok := obj[key]
	if !ok || v == nil {
		c.invalid(p, "campo requerido")
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		c.malformed(p, "debe ser texto, se recibió %s", jsonType(v))
		return "", false
	}
	return s, true
}

func requiredText(c *collector, obj map[string]any, key string, parent ...string) (string, bool) {
	s, ok := requiredString(c, obj, key, parent...)
	if !ok {
		return "", false
	}
	s = cleanText(s)
	if s == "" {
		c.invalid(joinPath(strings.Join(parent, ""), key), "no puede estar vacío")
		return "", false
	}
	return s, true
}

func optionalText(c *collector, obj map[string]any, key, parent string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		c.malformed(joinPath(parent, key), "debe ser texto, se recibió %s", jsonType(v))
		return ""
	}
	return cleanText(s)
}

func requiredAmount(c *collector, obj map[string]any, key string, parent ...string) (decimal.Decimal, bool) {
	p := joinPath(strings.Join(parent, ""), key)
	v, ok := obj[key]
	if !ok || v == nil {
		c.invalid(p, "campo requerido")
		return decimal.Zero, false
	}
	d, malformed, err := parseAmount(v)
	if malformed {
		c.malformed(p, "debe ser un número o texto numérico, se recibió %s", jsonType(v))
		return decimal.Zero, false
	}
	if err != nil {
		c.invalid(p, "debe ser un monto numérico válido (%q)", fmt.Sprint(v))
		return decimal.Zero, false
	}
	return d, true
}

// parseAmount acepta texto ("$1,500"), json.Number y números nativos.
// malformed=true si el tipo no puede representar un monto.
func parseAmount(v any) (d decimal.Decimal, malformed bool, err error) {
	switch t := v.(type) {
	case string:
		d, err = money.Parse(t)
		return d, false, err
	case json.Number:
		d, err = money.Parse(t.String())
		return d, false, err
	case float64:
		return decimal.NewFromFloat(t), false, nil
	case float32:
		return decimal.NewFromFloat32(t), false, nil
	case int:
		return decimal.NewFromInt(int64(t)), false, nil
	case int64:
		return decimal.NewFromInt(t), false, nil
	case decimal.Decimal:
		return t, false, nil
	default:
		return decimal.Zero, true, nil
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "texto"
	case bool:
		return "booleano"
	case float64, float32, int, int64, json.Number:
		return "número"
	case []any:
		return "lista"
	case map[string]any:
		return "objeto"
	default:
		return fmt.Sprintf("%T", v)
	}
}
