package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una generación registrada en el historial.
const (
	GenerationStatusSuccess = "EXITOSO"
	GenerationStatusFailed  = "FALLIDO"
)

// GenerationRecord fila del historial de resoluciones generadas.
type GenerationRecord struct {
	ID         string // run id (UUID)
	Code       string // código de resolución, ej: r14eXs26
	Title      string
	Period     string // YYYY-MM
	Subtotal   decimal.Decimal
	FinalTotal decimal.Decimal
	Status     string
	ErrorKind  string // vacío si Status = EXITOSO
	PDFPath    string
	TexPath    string
	Duration   time.Duration
	CreatedAt  time.Time
}
