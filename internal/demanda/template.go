package demanda

import (
	"regexp"
	"strconv"
	"strings"
)

// COGEPTemplate is the built-in demand template following COGEP art. 142,
// one ordinal heading per canonical section, bracket placeholders for every
// fill-in value.
const COGEPTemplate = `PRIMERO. - DESIGNACIÓN DEL JUZGADOR:
[DESIGNACION_JUZGADOR]
País: [PAIS]
Zona: [ZONA]

SEGUNDO. - DATOS DEL ACTOR:
Nombres y apellidos: [ACTOR_NOMBRES_APELLIDOS]
Cédula: [ACTOR_CEDULA]
Pasaporte: [ACTOR_PASAPORTE]
Estado civil: [ACTOR_ESTADO_CIVIL]
Edad: [ACTOR_EDAD]
Profesión: [ACTOR_PROFESION]
Provincia: [ACTOR_PROVINCIA]
Cantón: [ACTOR_CANTON]
Calle primaria: [ACTOR_CALLE_PRIMARIA]
Calle secundaria: [ACTOR_CALLE_SECUNDARIA]
Número de casa: [ACTOR_NUMERO_CASA]
Dirección electrónica: [ACTOR_DIR_ELECTRONICA]

TERCERO. - DATOS DEL DEFENSOR:
Nombre: [DEFENSOR_NOMBRE]
Casillero judicial: [CASILLERO_JUDICIAL]
Comparece como procurador: [REPRESENTA_COMO_PROCURADOR]
Datos del representado: [DATOS_REPRESENTADO]

CUARTO. - NÚMERO DE RUC:
[RUC]

QUINTO. - DATOS DEL DEMANDADO:
Nombres y apellidos: [DEMANDADO_NOMBRES_APELLIDOS]
Cédula: [DEMANDADO_CEDULA]
Nacionalidad: [DEMANDADO_NACIONALIDAD]
Profesión: [DEMANDADO_PROFESION]
Edad: [DEMANDADO_EDAD]
Provincia: [DEMANDADO_PROVINCIA]
Cantón: [DEMANDADO_CANTON]
Calle primaria: [DEMANDADO_CALLE_PRIMARIA]
Calle secundaria: [DEMANDADO_CALLE_SECUNDARIA]
Número de casa: [DEMANDADO_NUMERO_CASA]
Descripción de la vivienda: [DEMANDADO_DESCRIPCION_VIVIENDA]
Dirección electrónica: [DEMANDADO_DIR_ELECTRONICA]

SEXTO. - NARRACIÓN DETALLADA Y NUMERADA DE LOS HECHOS:
[HECHOS]

SÉPTIMO. - FUNDAMENTOS DE DERECHO:
[FUNDAMENTOS_DERECHO]

OCTAVO. - SOLICITUD DE ACCESO JUDICIAL A PRUEBAS:
[ACCESO_PRUEBAS]

NOVENO. - PRETENSIÓN:
[PRETENSION]

DÉCIMO. - CUANTÍA DEL PROCESO:
[CUANTIA]

DÉCIMO PRIMERO. - PROCEDIMIENTO QUE DEBE SEGUIRSE:
[PROCEDIMIENTO]

DÉCIMO SEGUNDO. - FIRMAS DEL ACTOR Y ABOGADO:
[FIRMAS]

DÉCIMO TERCERO. - OTROS REQUISITOS PERTINENTES AL CASO:
[OTROS]`

var upperMarker = regexp.MustCompile(`\[([A-Z0-9_]+)\]`)

// BuildReplacements assembles the replacement map for a template from field
// data. Lines of data["HECHOS"] are numbered into HECHO1, HECHO2, ... so
// fact-list templates can place them individually, and every marker in the
// template without a value defaults to "___".
func BuildReplacements(data map[string]string, template string) map[string]string {
	replacements := make(map[string]string, len(data))
	for k, v := range data {
		if k != "HECHOS" {
			replacements[k] = v
		}
	}

	n := 0
	for _, line := range strings.Split(data["HECHOS"], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n++
		replacements["HECHO"+strconv.Itoa(n)] = line
	}

	for _, m := range upperMarker.FindAllStringSubmatch(template, -1) {
		if _, ok := replacements[m[1]]; !ok {
			replacements[m[1]] = "___"
		}
	}
	return replacements
}
