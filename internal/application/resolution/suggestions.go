package resolution

import (
	"errors"
	"strings"

	"github.com/jhoicas/peco-resoluciones/internal/domain"
	domainres "github.com/jhoicas/peco-resoluciones/internal/domain/resolution"
)

// Suggestions acciones sugeridas al usuario según el error.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	var verrs domainres.ValidationErrors
	if errors.As(err, &verrs) {
		out := []string{"Corrija los campos indicados y vuelva a generar la resolución"}
		if verrs.HasMalformed() {
			out = append(out, "Revise que cada campo tenga el tipo correcto (texto, número o lista)")
		}
		for _, e := range verrs {
			if strings.HasSuffix(e.Path, ".monto") {
				out = append(out, "Verifique que los montos sean numéricos y mayores que cero, por ejemplo 1500 o \"$1,500\"")
				break
			}
		}
		if len(verrs.ForPath("considerandos")) > 0 {
			out = append(out, "Agregue al menos un considerando de tipo \"gasto_anterior\" o \"texto\"")
		}
		return out
	}

	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		out := append([]string(nil), ge.Suggestions...)
		switch ge.Kind {
		case domain.KindResourceMissing:
			if len(out) == 0 {
				out = append(out, "Verifique que logo.png y firma.png estén en el directorio de recursos (RUTA_RECURSOS)")
			}
		case domain.KindCompilationFailed:
			out = append(out,
				"Revise los diagnósticos: indican la línea del .tex conservado en el directorio de salida",
				"Verifique que los montos del anexo sean numéricos",
				"Compruebe que la distribución LaTeX tenga los paquetes babel (spanish), booktabs y tabularx",
			)
		case domain.KindCompilationTimeout:
			out = append(out,
				"Simplifique el contenido del documento",
				"Aumente el límite con la variable LATEX_TIMEOUT",
			)
		case domain.KindDirectoryError, domain.KindFileWriteError:
			out = append(out, "Verifique que el directorio de salida (RUTA_RESOLUCIONES) exista y tenga permisos de escritura")
		}
		return out
	}

	if errors.Is(err, domain.ErrNotFound) {
		return []string{"Guarde primero una configuración o revise la variable RUTA_CONFIG_JSON"}
	}
	if errors.Is(err, domain.ErrMalformedInput) {
		return []string{"El archivo de configuración debe ser un objeto JSON válido en UTF-8"}
	}
	return nil
}
