// Package filestore persiste la configuración de la resolución en un archivo JSON.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/peco-resoluciones/internal/application/dto"
	"github.com/jhoicas/peco-resoluciones/internal/domain"
	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

// ConfigStore lee y escribe config_mes.json.
type ConfigStore struct {
	Path string
}

// NewConfigStore crea el store para path.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{Path: path}
}

// Load devuelve el JSON crudo (números como json.Number) para que la
// validación detecte tipos incorrectos. domain.ErrNotFound si no existe;
// domain.ErrMalformedInput si no es un objeto JSON.
func (s *ConfigStore) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: leer %s: %w", s.Path, err)
	}
	return dto.DecodeRawConfig(data)
}

// Save escribe la forma canónica (UTF-8, indentado, sin escapar HTML) de
// forma atómica: archivo temporal en el mismo directorio y rename.
func (s *ConfigStore) Save(ctx context.Context, cfg *entity.ResolutionConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.FromResolutionConfig(cfg)); err != nil {
		return fmt.Errorf("filestore: serializar configuración: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: crear %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("filestore: archivo temporal: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("filestore: escribir configuración: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: escribir configuración: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("filestore: reemplazar %s: %w", s.Path, err)
	}
	return nil
}
