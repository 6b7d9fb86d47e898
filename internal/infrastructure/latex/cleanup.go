package latex

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
)

// cleanupArtifacts borra los auxiliares baseName+ext. Los que no existen se
// ignoran; cualquier otro error queda como advertencia.
func cleanupArtifacts(dir, baseName string, extensions []string) []domain.CleanupWarning {
	var warnings []domain.CleanupWarning
	for _, ext := range extensions {
		p := filepath.Join(dir, baseName+ext)
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			warnings = append(warnings, domain.CleanupWarning{File: p, Err: err})
		}
	}
	return warnings
}
