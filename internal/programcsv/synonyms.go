package programcsv

import (
	"sort"
	"strconv"
	"strings"
)

// Field is a canonical CSV field, independent of how the header spelled it.
type Field string

const (
	FieldSemana             Field = "semana"
	FieldDia                Field = "dia"
	FieldNombreActividad    Field = "nombre_actividad"
	FieldDescripcion        Field = "descripcion"
	FieldDuracion           Field = "duracion"
	FieldTipoEjercicio      Field = "tipo_ejercicio"
	FieldRepeticiones       Field = "repeticiones"
	FieldSeries             Field = "series"
	FieldDescanso           Field = "descanso"
	FieldPeso               Field = "peso"
	FieldIntensidad         Field = "nivel_intensidad"
	FieldEquipo             Field = "equipo_necesario"
	FieldDetalleSeries      Field = "detalle_series"
	FieldRM                 Field = "rm"
	FieldVideo              Field = "video"
	FieldCaloriasConsumidas Field = "calorias_consumidas"

	FieldComida        Field = "comida"
	FieldNombre        Field = "nombre"
	FieldCalorias      Field = "calorias"
	FieldProteinas     Field = "proteinas"
	FieldCarbohidratos Field = "carbohidratos"
	FieldGrasas        Field = "grasas"
	FieldReceta        Field = "receta"
)

// fieldSpec ties a canonical field to its accepted header spellings and to the
// column name it is persisted under.
type fieldSpec struct {
	field      Field
	storage    string
	numeric    bool
	candidates []string
}

var fitnessFields = []fieldSpec{
	{FieldSemana, "semana", true, []string{"semana", "week", "numero de semana"}},
	{FieldDia, "día", false, []string{"dia", "día", "day", "dia de la semana"}},
	{FieldNombreActividad, "nombre_actividad", false, []string{
		"nombre_actividad", "nombre de la actividad", "actividad", "nombre", "ejercicio",
		"nombre del ejercicio", "activity", "activity name",
	}},
	{FieldDescripcion, "descripción", false, []string{"descripcion", "descripción", "description"}},
	{FieldDuracion, "duración", true, []string{"duracion", "duración", "Duración (min)", "duration", "minutos"}},
	{FieldTipoEjercicio, "tipo_ejercicio", false, []string{"tipo_ejercicio", "tipo de ejercicio", "tipo", "exercise type"}},
	{FieldRepeticiones, "repeticiones", true, []string{"repeticiones", "reps", "repetitions"}},
	{FieldSeries, "series", true, []string{"series", "sets"}},
	{FieldDescanso, "descanso", true, []string{"descanso", "tiempo de descanso", "rest"}},
	{FieldPeso, "peso", true, []string{"peso", "carga", "weight"}},
	{FieldIntensidad, "intensidad", false, []string{"nivel_intensidad", "nivel de intensidad", "intensidad", "intensity"}},
	{FieldEquipo, "equipo_necesario", false, []string{"equipo_necesario", "equipo necesario", "equipo", "equipment"}},
	{FieldDetalleSeries, "detalle_series", false, []string{"detalle de series", "detalle_series", "detalle series", "series detail"}},
	{FieldRM, "rm", true, []string{"rm", "1RM", "RM"}},
	{FieldVideo, "video_url", false, []string{"video", "video_url", "video url", "link video"}},
	{FieldCaloriasConsumidas, "calorías", true, []string{"calorias_consumidas", "calorías consumidas", "calorias", "calories burned"}},
}

var nutritionFields = []fieldSpec{
	{FieldSemana, "semana", true, []string{"semana", "week", "numero de semana"}},
	{FieldDia, "día", false, []string{"dia", "día", "day", "dia de la semana"}},
	{FieldComida, "comida", false, []string{"comida", "tipo de comida", "meal"}},
	{FieldNombre, "nombre", false, []string{"nombre", "nombre del plato", "nombre de la comida", "plato", "name"}},
	{FieldDescripcion, "descripción", false, []string{"descripcion", "descripción", "description"}},
	{FieldCalorias, "calorías", true, []string{"calorias", "calorías", "kcal", "calories"}},
	{FieldProteinas, "proteínas", true, []string{"proteinas", "proteínas", "proteina", "protein"}},
	{FieldCarbohidratos, "carbohidratos", true, []string{"carbohidratos", "carbohidrato", "carbs"}},
	{FieldGrasas, "grasas", true, []string{"grasas", "grasa", "fat"}},
	{FieldPeso, "peso", true, []string{"peso", "porcion", "weight"}},
	{FieldReceta, "receta", false, []string{"receta", "preparacion", "recipe"}},
	{FieldVideo, "video_url", false, []string{"video", "video_url", "video url", "link video"}},
}

// SynonymTable maps a header comparison key to its canonical field.
type SynonymTable struct {
	programType ProgramType
	byKey       map[string]Field
	specs       map[Field]fieldSpec
	order       []Field
}

var (
	fitnessTable   = buildTable(Fitness, fitnessFields)
	nutritionTable = buildTable(Nutrition, nutritionFields)
)

func buildTable(t ProgramType, specs []fieldSpec) *SynonymTable {
	table := &SynonymTable{
		programType: t,
		byKey:       make(map[string]Field),
		specs:       make(map[Field]fieldSpec, len(specs)),
	}
	for _, spec := range specs {
		table.specs[spec.field] = spec
		table.order = append(table.order, spec.field)
		for _, c := range spec.candidates {
			table.byKey[compareKey(c)] = spec.field
		}
		table.byKey[compareKey(string(spec.field))] = spec.field
	}
	return table
}

// Synonyms returns the table for a program type; unknown types get fitness.
func Synonyms(t ProgramType) *SynonymTable {
	if t == Nutrition {
		return nutritionTable
	}
	return fitnessTable
}

// Lookup resolves one header to its canonical field.
func (t *SynonymTable) Lookup(column string) (Field, bool) {
	f, ok := t.byKey[compareKey(column)]
	return f, ok
}

// StorageName is the persisted column for a canonical field.
func (t *SynonymTable) StorageName(f Field) string {
	if spec, ok := t.specs[f]; ok {
		return spec.storage
	}
	return string(f)
}

// Fields lists the canonical fields of the table in declaration order.
func (t *SynonymTable) Fields() []Field {
	out := make([]Field, len(t.order))
	copy(out, t.order)
	return out
}

// RawRow is a parsed CSV record keyed by its original header text.
type RawRow map[string]string

// Record is a row keyed by canonical field.
type Record map[Field]string

// Get returns the trimmed value of a field.
func (r Record) Get(f Field) string {
	return strings.TrimSpace(r[f])
}

// Has reports whether the row carried a column for f at all.
func (r Record) Has(f Field) bool {
	_, ok := r[f]
	return ok
}

// Resolve maps a raw row onto canonical fields. When several headers resolve to
// the same field, a header spelled exactly like the canonical name wins, then
// the first non-empty value with headers compared alphabetically. RawRow keeps
// no column order, so the result does not depend on the file layout.
func (t *SynonymTable) Resolve(row RawRow) Record {
	columns := make([]string, 0, len(row))
	for c := range row {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	rec := make(Record, len(row))
	exact := make(map[Field]bool)
	for _, c := range columns {
		f, ok := t.Lookup(c)
		if !ok {
			continue
		}
		v := row[c]
		isExact := compareKey(c) == compareKey(string(f))
		switch {
		case isExact && !exact[f]:
			rec[f] = v
			exact[f] = true
		case exact[f]:
		case strings.TrimSpace(rec[f]) == "":
			rec[f] = v
		}
	}
	return rec
}

var weekdays = map[string]int{
	"lunes":     1,
	"martes":    2,
	"miercoles": 3,
	"jueves":    4,
	"viernes":   5,
	"sabado":    6,
	"domingo":   7,
}

// IsWeekday reports whether s names a Spanish weekday, ignoring case and accents.
func IsWeekday(s string) bool {
	_, ok := weekdays[normalizeValue(s)]
	return ok
}

// WeekdayOrdinal maps a Spanish weekday to 1 (lunes) through 7 (domingo).
// Unrecognized names map to 1.
func WeekdayOrdinal(s string) int {
	if n, ok := weekdays[normalizeValue(s)]; ok {
		return n
	}
	return 1
}

// ProgramRow is one row in its persisted shape.
type ProgramRow map[string]interface{}

// ToStorage converts a resolved record to persisted column names. Weekdays
// become ordinals, numeric columns become numbers when they parse, and empty
// values are omitted.
func (t *SynonymTable) ToStorage(rec Record) ProgramRow {
	out := make(ProgramRow, len(rec))
	for _, f := range t.order {
		v := rec.Get(f)
		if v == "" {
			continue
		}
		spec := t.specs[f]
		switch {
		case f == FieldDia:
			out[spec.storage] = WeekdayOrdinal(v)
		case f == FieldSemana:
			if n, err := strconv.Atoi(v); err == nil {
				out[spec.storage] = n
			} else {
				out[spec.storage] = v
			}
		case spec.numeric:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				out[spec.storage] = n
			} else {
				out[spec.storage] = v
			}
		default:
			out[spec.storage] = v
		}
	}
	return out
}
