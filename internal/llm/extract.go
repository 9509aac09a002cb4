package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	templateSystemPrompt = "Devuelve un JSON con las claves 'plantilla' y 'campos'. " +
		"En 'plantilla', reemplaza cada dato personal por un marcador entre llaves " +
		"en mayúsculas (p. ej. {{NOMBRE}}). En 'campos', incluye un objeto donde " +
		"cada clave sea el nombre del marcador sin llaves y el valor sea el dato original."

	missingFieldsSystemPrompt = "Devuelve un JSON con un objeto 'fields' cuyas claves son " +
		"los nombres de los campos faltantes en la demanda. Responde solo con JSON válido."

	entitiesSystemPrompt = "Extrae todas las entidades relevantes del siguiente texto. " +
		"Devuelve únicamente un objeto JSON donde cada clave sea el nombre de la entidad " +
		"en mayúsculas y guiones bajos, y cada valor el texto exacto encontrado. " +
		"Omite las claves sin valor."
)

// GenerateTemplate asks the model to anonymize text into a {{MARKER}}
// template plus the map of original values. On transport failure the error
// propagates (credit refusals included); on malformed output the original
// text comes back with an empty map, which downstream code treats as "no
// placeholders found".
func GenerateTemplate(ctx context.Context, caller Caller, text string) (string, map[string]string, error) {
	out, err := caller.Complete(ctx, templateSystemPrompt, text)
	if err != nil {
		return "", nil, fmt.Errorf("generate template: %w", err)
	}

	var parsed struct {
		Plantilla string            `json:"plantilla"`
		Campos    map[string]string `json:"campos"`
	}
	if !UnmarshalLenient(out, &parsed) || parsed.Plantilla == "" {
		return text, map[string]string{}, nil
	}
	campos := make(map[string]string, len(parsed.Campos))
	for k, v := range parsed.Campos {
		campos[k] = v
	}
	return parsed.Plantilla, campos, nil
}

// ExtractMissingFields asks the model which fields a demand still lacks.
// Malformed output yields nil, never an error.
func ExtractMissingFields(ctx context.Context, caller Caller, text string) ([]string, error) {
	out, err := caller.Complete(ctx, missingFieldsSystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("extract missing fields: %w", err)
	}

	var parsed struct {
		Fields map[string]string `json:"fields"`
	}
	if !UnmarshalLenient(out, &parsed) || parsed.Fields == nil {
		return nil, nil
	}
	names := make([]string, 0, len(parsed.Fields))
	for k := range parsed.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// ExtractEntities asks the model for every relevant entity in text, keyed in
// UPPER_SNAKE form. Malformed output yields an empty map.
func ExtractEntities(ctx context.Context, caller Caller, text string) (map[string]string, error) {
	out, err := caller.Complete(ctx, entitiesSystemPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}

	var parsed map[string]string
	if !UnmarshalLenient(out, &parsed) {
		return map[string]string{}, nil
	}
	entities := make(map[string]string, len(parsed))
	for k, v := range parsed {
		entities[strings.ToUpper(k)] = v
	}
	return entities, nil
}
