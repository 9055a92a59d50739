package programcsv

import (
	"strconv"

	"coach-hub/internal/common/validation"
)

// ValidatedRow is the outcome of checking one CSV record. Rows with errors are
// never persisted; warnings are informational.
type ValidatedRow struct {
	Row      int      `json:"row"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Data     RawRow   `json:"data"`
}

// ValidateRow checks one raw row against the rules of the given program type.
// index is the 1-based data row number. The result depends only on the inputs.
func ValidateRow(row RawRow, index int, t ProgramType) ValidatedRow {
	rec := Synonyms(t).Resolve(row)
	errs := validation.NewChecklist()
	warns := validation.NewChecklist()

	week, err := strconv.Atoi(rec.Get(FieldSemana))
	errs.Require(err == nil && week >= 1 && week <= 52, "Semana debe ser un número entre 1 y 52")
	errs.Require(IsWeekday(rec.Get(FieldDia)), "Día debe ser un día de la semana válido (Lunes a Domingo)")

	if t == Nutrition {
		validateNutrition(rec, errs, warns)
	} else {
		validateFitness(rec, errs, warns)
	}

	return ValidatedRow{
		Row:      index,
		Valid:    errs.Empty(),
		Errors:   errs.Messages(),
		Warnings: warns.Messages(),
		Data:     row,
	}
}

func validateFitness(rec Record, errs, warns *validation.Checklist) {
	errs.RequireString(rec.Get(FieldNombreActividad), "Nombre de actividad es requerido")
	warns.RequireString(rec.Get(FieldDescripcion), "Descripción vacía")

	minutes, err := strconv.Atoi(rec.Get(FieldDuracion))
	warns.Require(err == nil && minutes > 0, "Duración debe ser un número entero positivo")
	warns.RequireString(rec.Get(FieldTipoEjercicio), "Tipo de ejercicio vacío")

	if detail := rec.Get(FieldDetalleSeries); detail != "" {
		_, err := ParseSeries(detail)
		errs.Requiref(err == nil, "Detalle de series inválido: %v", err)
	}
}

func validateNutrition(rec Record, errs, warns *validation.Checklist) {
	errs.RequireString(rec.Get(FieldComida), "Comida es requerida")
	errs.RequireString(rec.Get(FieldNombre), "Nombre es requerido")

	warns.Require(nonNegative(rec.Get(FieldCalorias)), "Calorías debe ser un número no negativo")

	protein := rec.Get(FieldProteinas)
	warns.RequireIf(protein != "", func() (bool, string) {
		return nonNegative(protein), "Proteínas debe ser un número no negativo"
	})
}

func nonNegative(s string) bool {
	n, err := strconv.ParseFloat(s, 64)
	return err == nil && n >= 0
}
