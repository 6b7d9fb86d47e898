package dto

import (
	"time"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

// ResolutionDocument forma canónica persistida de la configuración (config_mes.json).
// Los montos se guardan como texto decimal sin separadores ("1500", "1234.5").
type ResolutionDocument struct {
	MesISO        string      `json:"mes_iso"`
	TituloBase    string      `json:"titulo_base"`
	Visto         string      `json:"visto"`
	Considerandos []ClauseDTO `json:"considerandos"`
	Articulos     []string    `json:"articulos"`
	Anexo         *AnnexDTO   `json:"anexo,omitempty"`
}

// ClauseDTO considerando; según Tipo se usan Descripcion+Monto o Contenido.
type ClauseDTO struct {
	Tipo        string `json:"tipo"`
	Descripcion string `json:"descripcion,omitempty"`
	Monto       string `json:"monto,omitempty"`
	Contenido   string `json:"contenido,omitempty"`
}

// LineItemDTO fila del anexo.
type LineItemDTO struct {
	Categoria string `json:"categoria"`
	Monto     string `json:"monto"`
}

// AnnexDTO anexo financiero.
type AnnexDTO struct {
	Titulo         string        `json:"titulo"`
	Items          []LineItemDTO `json:"items"`
	Penalizaciones []LineItemDTO `json:"penalizaciones,omitempty"`
	NotaFinal      string        `json:"nota_final,omitempty"`
}

// FromResolutionConfig convierte una configuración validada a su forma canónica.
func FromResolutionConfig(cfg *entity.ResolutionConfig) ResolutionDocument {
	doc := ResolutionDocument{
		MesISO:        cfg.Period.String(),
		TituloBase:    cfg.BaseTitle,
		Visto:         cfg.PreambleText,
		Considerandos: make([]ClauseDTO, 0, len(cfg.Clauses)),
		Articulos:     append([]string(nil), cfg.Articles...),
	}
	for _, cl := range cfg.Clauses {
		switch c := cl.(type) {
		case entity.PriorExpense:
			doc.Considerandos = append(doc.Considerandos, ClauseDTO{
				Tipo:        entity.ClauseTypePriorExpense,
				Descripcion: c.Description,
				Monto:       c.Amount.String(),
			})
		case entity.FreeText:
			doc.Considerandos = append(doc.Considerandos, ClauseDTO{
				Tipo:      entity.ClauseTypeFreeText,
				Contenido: c.Content,
			})
		}
	}
	if a := cfg.Annex; a != nil {
		doc.Anexo = &AnnexDTO{
			Titulo:         a.Title,
			Items:          lineItems(a.Items),
			Penalizaciones: lineItems(a.Penalties),
			NotaFinal:      a.ClosingNote,
		}
	}
	return doc
}

func lineItems(items []entity.LineItem) []LineItemDTO {
	out := make([]LineItemDTO, len(items))
	for i, it := range items {
		out[i] = LineItemDTO{Categoria: it.Category, Monto: it.Amount.String()}
	}
	return out
}

// ── Respuestas ────────────────────────────────────────────────────────────────

// GenerationResponse resultado de una generación exitosa.
type GenerationResponse struct {
	RunID           string   `json:"run_id"`
	Codigo          string   `json:"codigo"`
	Titulo          string   `json:"titulo"`
	PDFPath         string   `json:"pdf"`
	TexPath         string   `json:"tex"`
	Subtotal        string   `json:"subtotal,omitempty"`
	Total           string   `json:"total"`
	Reemplazados    []string `json:"reemplazados,omitempty"`
	Warnings        []string `json:"advertencias,omitempty"`
	CleanupWarnings []string `json:"advertencias_limpieza,omitempty"`
	DurationMS      int64    `json:"duracion_ms"`
}

// FieldErrorDTO error de validación de un campo.
type FieldErrorDTO struct {
	Path    string `json:"campo"`
	Message string `json:"mensaje"`
}

// GenerationErrorResponse cuerpo de error con el detalle necesario para mostrar
// un resumen corto y, bajo demanda, el log.
type GenerationErrorResponse struct {
	ErrorResponse
	Errors          []FieldErrorDTO `json:"errores,omitempty"`
	Warnings        []string        `json:"advertencias,omitempty"`
	Suggestions     []string        `json:"sugerencias,omitempty"`
	Diagnostics     []string        `json:"diagnosticos,omitempty"`
	Resources       []string        `json:"recursos,omitempty"`
	CleanupWarnings []string        `json:"advertencias_limpieza,omitempty"`
	Log             string          `json:"log,omitempty"`
}

// SystemStatusResponse disponibilidad del compilador.
type SystemStatusResponse struct {
	Disponible    bool     `json:"disponible"`
	Binario       string   `json:"binario"`
	Ruta          string   `json:"ruta,omitempty"`
	Version       string   `json:"version,omitempty"`
	Sistema       string   `json:"sistema"`
	Instrucciones []string `json:"instrucciones,omitempty"`
}

// FromSystemStatus adapta el estado del compilador a la respuesta HTTP.
func FromSystemStatus(s entity.SystemStatus) SystemStatusResponse {
	return SystemStatusResponse{
		Disponible:    s.Available,
		Binario:       s.Binary,
		Ruta:          s.Path,
		Version:       s.Version,
		Sistema:       s.OS,
		Instrucciones: s.Instructions,
	}
}

// GenerationRecordDTO fila del historial.
type GenerationRecordDTO struct {
	ID         string    `json:"id"`
	Codigo     string    `json:"codigo"`
	Titulo     string    `json:"titulo"`
	Periodo    string    `json:"periodo"`
	Total      string    `json:"total"`
	Estado     string    `json:"estado"`
	TipoError  string    `json:"tipo_error,omitempty"`
	PDFPath    string    `json:"pdf,omitempty"`
	DurationMS int64     `json:"duracion_ms"`
	CreatedAt  time.Time `json:"creado"`
}

// FromGenerationRecord adapta una fila del historial.
func FromGenerationRecord(r *entity.GenerationRecord) GenerationRecordDTO {
	return GenerationRecordDTO{
		ID:         r.ID,
		Codigo:     r.Code,
		Titulo:     r.Title,
		Periodo:    r.Period,
		Total:      r.FinalTotal.String(),
		Estado:     r.Status,
		TipoError:  r.ErrorKind,
		PDFPath:    r.PDFPath,
		DurationMS: r.Duration.Milliseconds(),
		CreatedAt:  r.CreatedAt,
	}
}
