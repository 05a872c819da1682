package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"footprint-mirror/internal/domain"
)

var (
	errEmptyPayload   = errors.New("empty payload")
	errMissingField   = errors.New("missing required field")
	errNoJSONObject   = errors.New("no json object in payload")
	errNullItem       = errors.New("null item in array")
	fenceStartPattern = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEndPattern   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// parseReflection valida y decodifica la respuesta del modelo. Los valores se devuelven tal cual.
func parseReflection(raw string) (domain.ReflectionResult, error) {
	if cleanLLMJSONResponse(raw) == "" {
		return domain.ReflectionResult{}, errEmptyPayload
	}
	candidate := ExtractJSONObject(raw)
	if candidate == "" {
		return domain.ReflectionResult{}, errNoJSONObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return domain.ReflectionResult{}, fmt.Errorf("decode payload: %w", err)
	}
	for _, name := range domain.ReflectionFields {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return domain.ReflectionResult{}, fmt.Errorf("%w: %s", errMissingField, name)
		}
	}
	for _, name := range []string{"observedSignals", "smartSuggestions"} {
		if err := checkStringItems(name, fields[name]); err != nil {
			return domain.ReflectionResult{}, err
		}
	}
	if err := checkIntentPairs(fields["intentVsPerception"]); err != nil {
		return domain.ReflectionResult{}, err
	}

	var result domain.ReflectionResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return domain.ReflectionResult{}, fmt.Errorf("decode reflection: %w", err)
	}
	return result, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func checkStringItems(name string, raw json.RawMessage) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	for i, item := range items {
		if isNull(item) {
			return fmt.Errorf("%w: %s[%d]", errNullItem, name, i)
		}
	}
	return nil
}

// checkIntentPairs exige intent y perception en cada par.
func checkIntentPairs(raw json.RawMessage) error {
	var pairs []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return fmt.Errorf("decode intentVsPerception: %w", err)
	}
	for i, pair := range pairs {
		if pair == nil {
			return fmt.Errorf("%w: intentVsPerception[%d]", errNullItem, i)
		}
		for _, key := range []string{"intent", "perception"} {
			v, ok := pair[key]
			if !ok || isNull(v) {
				return fmt.Errorf("%w: intentVsPerception[%d].%s", errMissingField, i, key)
			}
		}
	}
	return nil
}

// ExtractJSONObject limpia la respuesta de un modelo y devuelve el JSON que contiene:
// el texto completo si ya es válido, o el primer objeto balanceado dentro de prosa.
func ExtractJSONObject(raw string) string {
	cleaned := cleanLLMJSONResponse(raw)
	if cleaned == "" {
		return ""
	}
	if json.Valid([]byte(cleaned)) {
		return cleaned
	}
	return extractFirstJSONObject(cleaned)
}

// cleanLLMJSONResponse quita fences ```json ... ``` y BOM, dejando el contenido usable.
func cleanLLMJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStartPattern.ReplaceAllString(s, "")
	s = fenceEndPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractFirstJSONObject devuelve el primer objeto JSON balanceado, respetando strings y escapes.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}
