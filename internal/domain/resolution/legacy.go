package resolution

import (
	"fmt"
	"sort"
)

// Claves del anexo en el esquema persistido.
const (
	keyAnnexTitle     = "titulo"
	keyAnnexItems     = "items"
	keyAnnexPenalties = "penalizaciones"
	keyAnnexNote      = "nota_final"
	keyAnnexItemsAlt  = "anexo_items" // nombre usado por los config_mes.json de la herramienta anterior
	keyAnnexLegacy    = "presupuesto"
)

// NormalizeLegacySchema adapta los esquemas anteriores al actual. No modifica raw.
//
// "anexo.anexo_items" es un alias de "anexo.items"; si ambos existen gana
// "items" y se advierte.
//
// El esquema antiguo tenía una única lista "anexo.presupuesto" (lista de
// {categoria, monto} u objeto {categoria: monto}) en lugar de items/penalizaciones.
// Los montos negativos pasan a penalizaciones y el resto a items; los montos en
// cero se descartan. Si ya hay items (o su alias), ganan y el antiguo se ignora
// con una advertencia. Un "presupuesto" con forma desconocida se deja en su lugar
// para que Validate lo reporte.
func NormalizeLegacySchema(raw map[string]any) (map[string]any, []string) {
	if raw == nil {
		return nil, nil
	}
	annex, ok := raw["anexo"].(map[string]any)
	if !ok {
		return raw, nil
	}
	alias, hasAlias := annex[keyAnnexItemsAlt]
	legacy, hasLegacy := annex[keyAnnexLegacy]
	if !hasAlias && !hasLegacy {
		return raw, nil
	}

	var warnings []string
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	newAnnex := make(map[string]any, len(annex))
	for k, v := range annex {
		newAnnex[k] = v
	}
	out["anexo"] = newAnnex

	itemsKey := keyAnnexItems
	_, hasItems := annex[keyAnnexItems]
	if hasAlias {
		delete(newAnnex, keyAnnexItemsAlt)
		if hasItems {
			warnings = append(warnings, "anexo tiene 'items' y 'anexo_items' a la vez: se usa 'items' y se ignora 'anexo_items'")
		} else {
			newAnnex[keyAnnexItems] = alias
			itemsKey = keyAnnexItemsAlt
			hasItems = true
		}
	}
	if !hasLegacy {
		return out, warnings
	}

	if hasItems {
		delete(newAnnex, keyAnnexLegacy)
		warnings = append(warnings, fmt.Sprintf("anexo tiene '%s' y 'presupuesto' a la vez: se usa '%s' y se ignora 'presupuesto'", itemsKey, itemsKey))
		return out, warnings
	}

	entries, ok := legacyEntries(legacy)
	if !ok {
		return out, warnings
	}
	delete(newAnnex, keyAnnexLegacy)

	_, hasPenalties := annex[keyAnnexPenalties]
	items := make([]any, 0, len(entries))
	var penalties []any
	for _, e := range entries {
		sign, parsed := legacySign(e)
		switch {
		case parsed && sign == 0:
			warnings = append(warnings, "anexo.presupuesto: se descarta la categoría con monto cero")
		case parsed && sign < 0 && hasPenalties:
			warnings = append(warnings, "anexo.presupuesto: se ignora un monto negativo porque ya existe 'penalizaciones'")
		case parsed && sign < 0:
			penalties = append(penalties, e)
		default:
			items = append(items, e)
		}
	}
	newAnnex[keyAnnexItems] = items
	if !hasPenalties && penalties != nil {
		newAnnex[keyAnnexPenalties] = penalties
	}
	warnings = append(warnings, "anexo.presupuesto (formato antiguo) convertido a 'items'/'penalizaciones'")
	return out, warnings
}

// legacyEntries devuelve las entradas del presupuesto antiguo como objetos
// {categoria, monto}. Un objeto {categoria: monto} se ordena por clave.
func legacyEntries(v any) ([]map[string]any, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]map[string]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, map[string]any{"categoria": k, "monto": t[k]})
		}
		return out, true
	default:
		return nil, false
	}
}

// legacySign signo del monto de una entrada; parsed=false si no se puede leer
// (la entrada se deja en items y la validación reporta el error).
func legacySign(e map[string]any) (sign int, parsed bool) {
	d, malformed, err := parseAmount(e["monto"])
	if malformed || err != nil {
		return 0, false
	}
	return d.Sign(), true
}
