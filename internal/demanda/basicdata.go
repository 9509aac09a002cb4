package demanda

import (
	"regexp"
	"strings"

	"github.com/mvillagomez/demandas/internal/textnorm"
)

var (
	upperNameComma = regexp.MustCompile(`([A-ZÁÉÍÓÚÑ ]+),`)
	nameBeforeNat  = regexp.MustCompile(`([A-ZÁÉÍÓÚÑ ]+),\s+de\s+nacionalidad`)
	cedulaPattern  = regexp.MustCompile(`(?i)c[ée]dula(?:\s+de\s+ciudadanía)?[^0-9]*(\d[\d-]*)`)
	edadPattern    = regexp.MustCompile(`(?i)(\d{1,3})\s*(?:años|anos)\s+de\s+edad`)
)

// ExtractBasicData pulls names, cédula and age out of a demand's text. It
// looks inside the DATOS_ACTOR and DATOS_DEMANDADO sections first and falls
// back to a whole-text scan for the generic NOMBRE/CEDULA/EDAD keys.
func ExtractBasicData(text string) map[string]string {
	data := make(map[string]string)
	sections := Segment(text)

	if body, ok := sections[DatosActor]; ok {
		person := extractPerson(body)
		if v, ok := person["NOMBRES_APELLIDOS"]; ok {
			data["ACTOR_NOMBRES_APELLIDOS"] = v
			setDefault(data, "NOMBRE", v)
		}
		if v, ok := person["CEDULA"]; ok {
			data["ACTOR_CEDULA"] = v
			setDefault(data, "CEDULA", v)
		}
		if v, ok := person["EDAD"]; ok {
			data["ACTOR_EDAD"] = v
			setDefault(data, "EDAD", v)
		}
	}
	if body, ok := sections[DatosDemandado]; ok {
		person := extractPerson(body)
		if v, ok := person["NOMBRES_APELLIDOS"]; ok {
			data["DEMANDADO_NOMBRES_APELLIDOS"] = v
		}
		if v, ok := person["CEDULA"]; ok {
			data["DEMANDADO_CEDULA"] = v
		}
		if v, ok := person["EDAD"]; ok {
			data["DEMANDADO_EDAD"] = v
		}
	}

	if _, ok := data["NOMBRE"]; !ok {
		if m := nameBeforeNat.FindStringSubmatch(text); m != nil {
			data["NOMBRE"] = textnorm.TitleCase(strings.TrimSpace(m[1]))
		}
	}
	if _, ok := data["CEDULA"]; !ok {
		if m := cedulaPattern.FindStringSubmatch(text); m != nil {
			data["CEDULA"] = m[1]
		}
	}
	if _, ok := data["EDAD"]; !ok {
		if m := edadPattern.FindStringSubmatch(text); m != nil {
			data["EDAD"] = m[1]
		}
	}
	return data
}

func extractPerson(body string) map[string]string {
	info := make(map[string]string)
	if m := upperNameComma.FindStringSubmatch(body); m != nil {
		info["NOMBRES_APELLIDOS"] = textnorm.TitleCase(strings.TrimSpace(m[1]))
	}
	if m := cedulaPattern.FindStringSubmatch(body); m != nil {
		info["CEDULA"] = m[1]
	}
	if m := edadPattern.FindStringSubmatch(body); m != nil {
		info["EDAD"] = m[1]
	}
	return info
}

func setDefault(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
