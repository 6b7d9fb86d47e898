package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
)

// DecodeRawConfig decodifica un objeto JSON de configuración sin tipar
// (números como json.Number) para que la validación detecte tipos incorrectos.
// Se tolera un BOM inicial y se rechaza contenido extra tras el objeto.
func DecodeRawConfig(data []byte) (map[string]any, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: JSON inválido: %v", domain.ErrMalformedInput, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: se esperaba un objeto JSON", domain.ErrMalformedInput)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: contenido extra después del objeto JSON", domain.ErrMalformedInput)
	}
	return raw, nil
}
