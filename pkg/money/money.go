// Package money centraliza el formato y el parseo de montos de las resoluciones.
// El formato es determinista y no depende del locale del sistema.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount el texto no representa un número.
var ErrInvalidAmount = errors.New("monto inválido")

// Parse convierte un monto escrito por el usuario en decimal.
// Acepta "$1,500", " 1500.50 ", "-200". Quita "$", espacios y comas de miles.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", " ", "", ",", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: vacío", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Format formato canónico de montos: punto de miles y, si Decimals > 0,
// coma decimal con exactamente Decimals dígitos.
type Format struct {
	Decimals int32
}

// Default formato por defecto: enteros con punto de miles (ej: 1.500).
var Default = Format{Decimals: 0}

// String formatea d según el formato. Ej (Decimals=0): 1500 → "1.500";
// (Decimals=2): 1234.5 → "1.234,50"; -200 → "-200".
func (f Format) String(d decimal.Decimal) string {
	decimals := f.Decimals
	if decimals < 0 {
		decimals = 0
	}
	s := d.Abs().StringFixed(decimals)
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	out := groupThousands(intPart)
	if fracPart != "" {
		out += "," + fracPart
	}
	if d.Round(decimals).Sign() < 0 {
		out = "-" + out
	}
	return out
}

// groupThousands inserta puntos de miles en un string numérico sin signo.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
