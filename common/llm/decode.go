package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

var requiredCache sync.Map // reflect.Type -> []string

// RequiredFields lists the JSON properties T declares as required: every field
// without `omitempty` in its json tag.
func RequiredFields[T any]() []string {
	var v T
	t := reflect.TypeOf(v)
	if cached, ok := requiredCache.Load(t); ok {
		return cached.([]string)
	}

	schema := GenerateSchema[T]().(*jsonschema.Schema)
	required := append([]string(nil), schema.Required...)
	sort.Strings(required)

	requiredCache.Store(t, required)
	return required
}

// GenerateSchema reflects T into a JSON schema without $ref indirection.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// StripFence removes a Markdown code fence wrapping the whole text, with or
// without a language tag. Anything else is returned trimmed but untouched.
func StripFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	lines := strings.Split(cleaned, "\n")
	if len(lines) == 1 {
		// ```{"a":1}```
		single := strings.TrimPrefix(cleaned, "```")
		single = strings.TrimPrefix(single, "json")
		return strings.TrimSpace(strings.TrimSuffix(single, "```"))
	}

	body := lines[1:]
	if strings.TrimSpace(body[len(body)-1]) == "```" {
		body = body[:len(body)-1]
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

// Decode parses text as a single JSON object of type T.
func Decode[T any](text string) (*T, error) {
	name := schemaName[T]()
	cleaned := StripFence(text)
	return decodeObject[T](name, []byte(cleaned), text)
}

// DecodeList parses text as either one JSON object or an array of objects of
// type T and always returns a list.
func DecodeList[T any](text string) ([]T, error) {
	name := schemaName[T]()
	cleaned := bytes.TrimSpace([]byte(StripFence(text)))

	if len(cleaned) > 0 && cleaned[0] == '{' {
		item, err := decodeObject[T](name, cleaned, text)
		if err != nil {
			return nil, err
		}
		return []T{*item}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(cleaned, &elems); err != nil {
		return nil, malformed(name, "expected a JSON object or array", text, err)
	}

	items := make([]T, 0, len(elems))
	for i, elem := range elems {
		item, err := decodeObject[T](fmt.Sprintf("%s[%d]", name, i), elem, text)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func decodeObject[T any](name string, data []byte, raw string) (*T, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, malformed(name, "invalid JSON object", raw, err)
	}

	if missing := missingFields(fields, RequiredFields[T]()); len(missing) > 0 {
		return nil, malformed(name, "missing required fields: "+strings.Join(missing, ", "), raw, nil)
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, malformed(name, "field type mismatch", raw, err)
	}
	return &out, nil
}

// missingFields treats absent keys, null and empty strings alike.
func missingFields(fields map[string]json.RawMessage, required []string) []string {
	var missing []string
	for _, name := range required {
		value, ok := fields[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		v := bytes.TrimSpace(value)
		if len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`)) {
			missing = append(missing, name)
		}
	}
	return missing
}

func schemaName[T any]() string {
	var v T
	if t := reflect.TypeOf(v); t != nil && t.Name() != "" {
		return t.Name()
	}
	return "response"
}
