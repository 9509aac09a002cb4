// Package demanda models the canonical structure of an Ecuadorian civil
// demand under COGEP art. 142: thirteen ordinal sections, their segmentation
// out of raw document text, and the extraction of structured data from them.
package demanda

import "strconv"

// Section identifies one of the thirteen canonical demand sections.
type Section string

const (
	DesignacionJuzgador Section = "DESIGNACION_JUZGADOR"
	DatosActor          Section = "DATOS_ACTOR"
	DatosDefensor       Section = "DATOS_DEFENSOR"
	RUC                 Section = "RUC"
	DatosDemandado      Section = "DATOS_DEMANDADO"
	Hechos              Section = "HECHOS"
	FundamentosDerecho  Section = "FUNDAMENTOS_DERECHO"
	AccesoPruebas       Section = "ACCESO_PRUEBAS"
	Pretension          Section = "PRETENSION"
	Cuantia             Section = "CUANTIA"
	Procedimiento       Section = "PROCEDIMIENTO"
	Firmas              Section = "FIRMAS"
	Otros               Section = "OTROS"
)

// Sections lists the canonical sections in document order. Its position in
// this slice determines each section's ordinal heading; extending the list
// requires extending ordinalWords in lock-step.
var Sections = []Section{
	DesignacionJuzgador,
	DatosActor,
	DatosDefensor,
	RUC,
	DatosDemandado,
	Hechos,
	FundamentosDerecho,
	AccesoPruebas,
	Pretension,
	Cuantia,
	Procedimiento,
	Firmas,
	Otros,
}

// ordinalWords holds the Spanish ordinal heading word for positions 1..N.
var ordinalWords = []string{
	"PRIMERO",
	"SEGUNDO",
	"TERCERO",
	"CUARTO",
	"QUINTO",
	"SEXTO",
	"SÉPTIMO",
	"OCTAVO",
	"NOVENO",
	"DÉCIMO",
	"DÉCIMO PRIMERO",
	"DÉCIMO SEGUNDO",
	"DÉCIMO TERCERO",
	"DÉCIMO CUARTO",
	"DÉCIMO QUINTO",
}

var (
	sectionByOrdinal = func() map[string]Section {
		m := make(map[string]Section, len(Sections))
		for i, s := range Sections {
			m[ordinalWords[i]] = s
		}
		return m
	}()
	ordinalBySection = func() map[Section]string {
		m := make(map[Section]string, len(Sections))
		for i, s := range Sections {
			m[s] = ordinalWords[i]
		}
		return m
	}()
)

// Ordinal returns the Spanish ordinal word for position n (1-based), or its
// decimal form when out of range.
func Ordinal(n int) string {
	if n >= 1 && n <= len(ordinalWords) {
		return ordinalWords[n-1]
	}
	return strconv.Itoa(n)
}

// SectionForOrdinal maps an ordinal heading word back to its section.
func SectionForOrdinal(word string) (Section, bool) {
	s, ok := sectionByOrdinal[word]
	return s, ok
}

// OrdinalFor returns the ordinal heading word of a section.
func OrdinalFor(s Section) (string, bool) {
	w, ok := ordinalBySection[s]
	return w, ok
}
