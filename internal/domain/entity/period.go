package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var periodPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// monthNames nombres de mes en español (índice 1-12).
var monthNames = [13]string{
	"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Period mes calendario de la resolución. Forma canónica: YYYY-MM.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod interpreta "YYYY-MM". El mes debe estar en [1,12].
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("período %q: se espera el formato YYYY-MM", s)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("período %q: mes %d inválido (debe ser 1-12)", s, month)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// String devuelve la forma canónica YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Previous mes anterior al período.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// MonthName nombre del mes en español, en minúsculas.
func (p Period) MonthName() string {
	return MonthName(p.Month)
}

// MonthName nombre en español de m, en minúsculas. Vacío si m está fuera de rango.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m]
}
