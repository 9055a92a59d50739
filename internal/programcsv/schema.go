package programcsv

import (
	"fmt"
	"strings"
)

// ProgramType is the kind of program a CSV describes.
type ProgramType string

const (
	Fitness   ProgramType = "fitness"
	Nutrition ProgramType = "nutrition"
)

// ParseProgramType accepts "fitness" or "nutrition" in any case; the empty
// string yields "" and no error so callers can treat it as "detect".
func ParseProgramType(s string) (ProgramType, error) {
	switch ProgramType(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case Fitness:
		return Fitness, nil
	case Nutrition:
		return Nutrition, nil
	default:
		return "", fmt.Errorf("unknown program type %q", s)
	}
}

var (
	fitnessKeywords = []string{
		"semana", "dia", "nombre_actividad", "descripcion", "duracion", "tipo_ejercicio",
		"repeticiones", "series", "descanso", "peso", "nivel_intensidad", "equipo_necesario",
		"rm", "video", "calorias_consumidas",
	}
	nutritionKeywords = []string{
		"semana", "dia", "comida", "nombre", "calorias", "proteinas", "carbohidratos",
		"peso", "receta", "video",
	}

	fitnessHints   = []string{"ejercicio", "actividad", "intensidad", "equipo", "repeticiones"}
	nutritionHints = []string{"comida", "receta", "proteina", "carbohidrato", "calorias"}
)

// DetectSchema decides whether a header describes a fitness or a nutrition
// program. It is a heuristic; callers must allow a manual override.
func DetectSchema(columns []string) ProgramType {
	keys := make([]string, 0, len(columns))
	for _, c := range columns {
		if k := compareKey(c); k != "" {
			keys = append(keys, k)
		}
	}

	fitness := countKeywordMatches(keys, fitnessKeywords)
	nutrition := countKeywordMatches(keys, nutritionKeywords)

	switch {
	case fitness > nutrition:
		return Fitness
	case nutrition > fitness:
		return Nutrition
	}

	fitnessHits := countHints(keys, fitnessHints)
	nutritionHits := countHints(keys, nutritionHints)
	if nutritionHits > fitnessHits {
		return Nutrition
	}
	return Fitness
}

// countKeywordMatches counts keywords matched by at least one column, where a
// match is containment in either direction.
func countKeywordMatches(keys []string, keywords []string) int {
	matches := 0
	for _, kw := range keywords {
		kwKey := keyStripper.Replace(kw)
		for _, k := range keys {
			if strings.Contains(k, kwKey) || strings.Contains(kwKey, k) {
				matches++
				break
			}
		}
	}
	return matches
}

func countHints(keys []string, hints []string) int {
	hits := 0
	for _, h := range hints {
		for _, k := range keys {
			if strings.Contains(k, h) {
				hits++
				break
			}
		}
	}
	return hits
}
