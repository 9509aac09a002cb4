package demanda

import "testing"

const sampleDemand = `SEÑOR JUEZ:

PRIMERO. - DESIGNACIÓN DEL JUZGADOR:
Unidad Judicial Civil de Quito

SEGUNDO. - DATOS DEL ACTOR:
Nombres y apellidos: MARÍA PÉREZ
Cédula: 1700000000

SEXTO. - NARRACIÓN DETALLADA Y NUMERADA DE LOS HECHOS:
1. El día lunes ocurrió el incidente.
2. El demandado no cumplió.

DÉCIMO TERCERO. - OTROS REQUISITOS PERTINENTES AL CASO:
Ninguno.`

func TestSegment(t *testing.T) {
	sections := Segment(sampleDemand)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d: %v", len(sections), sections)
	}
	if got := sections[DesignacionJuzgador]; got != "Unidad Judicial Civil de Quito" {
		t.Errorf("juzgador=%q", got)
	}
	if got := sections[Otros]; got != "Ninguno." {
		t.Errorf("otros=%q", got)
	}
	if _, ok := sections[Pretension]; ok {
		t.Error("PRETENSION should be absent, not empty")
	}
}

func TestSegmentLastHeadingWins(t *testing.T) {
	text := "PRIMERO. - JUZGADOR:\nprimera versión\n\nPRIMERO. - JUZGADOR:\nsegunda versión"
	sections := Segment(text)
	if got := sections[DesignacionJuzgador]; got != "segunda versión" {
		t.Fatalf("got %q want last occurrence", got)
	}
}

func TestSegmentIgnoresInlineOrdinals(t *testing.T) {
	text := "Se refiere al PRIMERO. - punto: sin ser encabezado"
	if sections := Segment(text); len(sections) != 0 {
		t.Fatalf("mid-line ordinal must not open a section: %v", sections)
	}
}

func TestSegmentDecimoCompounds(t *testing.T) {
	text := "DÉCIMO. - CUANTÍA DEL PROCESO:\n500 USD\n\nDÉCIMO PRIMERO. - PROCEDIMIENTO QUE DEBE SEGUIRSE:\nOrdinario"
	sections := Segment(text)
	if got := sections[Cuantia]; got != "500 USD" {
		t.Errorf("cuantia=%q", got)
	}
	if got := sections[Procedimiento]; got != "Ordinario" {
		t.Errorf("procedimiento=%q", got)
	}
}

func TestOrdinalMapping(t *testing.T) {
	if Ordinal(1) != "PRIMERO" || Ordinal(13) != "DÉCIMO TERCERO" || Ordinal(15) != "DÉCIMO QUINTO" {
		t.Fatal("ordinal words out of order")
	}
	if Ordinal(16) != "16" {
		t.Fatalf("out of range ordinal: %q", Ordinal(16))
	}
	for i, s := range Sections {
		w, ok := OrdinalFor(s)
		if !ok || w != Ordinal(i+1) {
			t.Fatalf("section %s: ordinal %q", s, w)
		}
		back, ok := SectionForOrdinal(w)
		if !ok || back != s {
			t.Fatalf("round trip failed for %s", s)
		}
	}
}

func TestParseSections(t *testing.T) {
	parsed := ParseSections(sampleDemand)

	actor, ok := parsed[DatosActor]
	if !ok || actor.Kind != FieldMap {
		t.Fatalf("actor section should be a field map: %+v", actor)
	}
	if actor.Fields["Cédula"] != "1700000000" {
		t.Errorf("cedula=%q", actor.Fields["Cédula"])
	}

	juzgador := parsed[DesignacionJuzgador]
	if juzgador.Kind != PlainText || juzgador.Text != "Unidad Judicial Civil de Quito" {
		t.Fatalf("juzgador should stay plain text: %+v", juzgador)
	}
}
