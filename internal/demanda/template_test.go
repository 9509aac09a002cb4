package demanda

import (
	"strings"
	"testing"

	"github.com/mvillagomez/demandas/internal/placeholder"
)

func TestCOGEPTemplateHasAllSections(t *testing.T) {
	for i, s := range Sections {
		heading := Ordinal(i+1) + ". - "
		if !strings.Contains(COGEPTemplate, heading) {
			t.Errorf("template missing heading for %s (%q)", s, heading)
		}
	}
	sections := Segment(COGEPTemplate)
	if len(sections) != len(Sections) {
		t.Fatalf("template segments into %d sections, want %d", len(sections), len(Sections))
	}
}

func TestBuildReplacementsNumbersFacts(t *testing.T) {
	data := map[string]string{
		"HECHOS":   "El lunes pasó algo.\n\nEl martes pasó otra cosa.",
		"CUANTIA":  "500 USD",
		"IGNORADA": "se conserva",
	}
	template := "[HECHO1] [HECHO2] [CUANTIA] [PRETENSION]"

	repl := BuildReplacements(data, template)

	if repl["HECHO1"] != "El lunes pasó algo." {
		t.Errorf("HECHO1=%q", repl["HECHO1"])
	}
	if repl["HECHO2"] != "El martes pasó otra cosa." {
		t.Errorf("HECHO2=%q", repl["HECHO2"])
	}
	if _, ok := repl["HECHOS"]; ok {
		t.Error("raw HECHOS must not leak into replacements")
	}
	if repl["CUANTIA"] != "500 USD" || repl["IGNORADA"] != "se conserva" {
		t.Errorf("plain values lost: %v", repl)
	}
	// Markers without a value default to a visible blank.
	if repl["PRETENSION"] != "___" {
		t.Errorf("PRETENSION=%q want ___", repl["PRETENSION"])
	}
}

func TestBuildReplacementsFillTemplate(t *testing.T) {
	data := map[string]string{
		"DESIGNACION_JUZGADOR": "Unidad Judicial Civil de Quito",
		"ACTOR_NOMBRES_APELLIDOS": "María Pérez",
	}
	repl := BuildReplacements(data, COGEPTemplate)
	filled := placeholder.Fill(COGEPTemplate, repl)

	if strings.Contains(filled, "[") {
		t.Fatalf("filled template still has markers:\n%s", filled)
	}
	if !strings.Contains(filled, "Unidad Judicial Civil de Quito") {
		t.Error("designated court missing from output")
	}
	if !strings.Contains(filled, "___") {
		t.Error("unvalued markers should show as blanks")
	}
}
