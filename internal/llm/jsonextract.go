package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON finds the first balanced {...} span in s and returns it. Model
// responses routinely wrap their JSON in prose or code fences; this scans
// past the wrapper instead of demanding a clean document. The second return
// is false when no balanced object exists.
func ExtractJSON(s string) (string, bool) {
	s = stripCodeFences(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// UnmarshalLenient extracts the first balanced JSON object from s and
// unmarshals it into out. Returns false on absent or invalid JSON; never an
// error, since every caller falls back to an empty result.
func UnmarshalLenient(s string, out any) bool {
	span, ok := ExtractJSON(s)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(span), out) == nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
