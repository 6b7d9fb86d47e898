package entity

import (
	"time"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
)

// CompiledDocument resultado de una compilación exitosa: el PDF y el .tex
// que lo produjo (se conserva para auditoría).
type CompiledDocument struct {
	PDFPath         string
	TexPath         string
	Log             string // log completo del compilador
	Attempts        int
	Duration        time.Duration
	CleanupWarnings []domain.CleanupWarning
}

// SystemStatus disponibilidad del compilador LaTeX en el equipo.
type SystemStatus struct {
	Available    bool
	Binary       string
	Path         string
	Version      string
	OS           string
	Instructions []string
}
