package resolution

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jhoicas/peco-resoluciones/internal/domain/entity"
)

var romanMonths = [13]string{"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// RomanMonth mes en números romanos ("X" para octubre).
func RomanMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return romanMonths[m]
}

// ResolutionCode código de la resolución para la fecha de generación:
// r{día}e{mes romano}s{año de dos dígitos}. Ej: 14/10/2026 -> "r14eXs26".
// El día no lleva ceros a la izquierda.
func ResolutionCode(t time.Time) string {
	return fmt.Sprintf("r%de%ss%02d", t.Day(), RomanMonth(t.Month()), t.Year()%100)
}

// LongDate fecha en texto: "05 de octubre de 2026".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), entity.MonthName(t.Month()), t.Year())
}

// DocumentTitle "código - título base". Sin título base se usa "Resolución".
func DocumentTitle(code, baseTitle string) string {
	baseTitle = strings.TrimSpace(baseTitle)
	if baseTitle == "" {
		baseTitle = "Resolución"
	}
	return code + " - " + baseTitle
}

// SafeFilename deja solo letras, dígitos, espacio, '-' y '_'; recorta espacios
// en los extremos. Los acentos se conservan (son letras).
func SafeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SameDayPrefix prefijo de los archivos generados con el mismo código
// (misma fecha). Se usa para reemplazar la resolución del día.
func SameDayPrefix(code string) string {
	return code + " "
}
