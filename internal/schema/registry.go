package schema

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/comply/internal/errdefs"
)

//go:embed properties/*.yaml
var propertiesFS embed.FS

// RequiredFields are the fields every structured-output directive must demand.
var RequiredFields = []string{"is_compliant", "reasoning", "confidence_score"}

// Type is a JSON primitive accepted for a response field.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeBoolean Type = "boolean"
)

// Property describes one field of the expected structured output.
type Property struct {
	Type        Type   `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// ResponseSchema is the provider-independent description of the model output.
// It is never mutated after Parse returns.
type ResponseSchema struct {
	names      []string
	properties map[string]Property
}

// field is one entry of the properties file.
type field struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// Parse builds a ResponseSchema from a YAML list of {name, type, description}.
func Parse(data []byte) (*ResponseSchema, error) {
	var fields []field
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, &errdefs.ConfigError{Key: "response properties", Err: err}
	}
	if len(fields) == 0 {
		return nil, &errdefs.ConfigError{Key: "response properties", Err: errors.New("no fields declared")}
	}

	s := &ResponseSchema{
		names:      make([]string, 0, len(fields)),
		properties: make(map[string]Property, len(fields)),
	}
	for i, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return nil, &errdefs.ConfigError{Key: "response properties", Err: fmt.Errorf("field %d has no name", i)}
		}
		if _, dup := s.properties[name]; dup {
			return nil, &errdefs.ConfigError{Key: "response properties", Err: fmt.Errorf("duplicate field %q", name)}
		}
		typ, err := parseType(f.Type)
		if err != nil {
			return nil, &errdefs.ConfigError{Key: "response properties", Err: fmt.Errorf("field %q: %w", name, err)}
		}
		s.names = append(s.names, name)
		s.properties[name] = Property{Type: typ, Description: f.Description}
	}
	return s, nil
}

func parseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeString, TypeNumber, TypeArray, TypeObject, TypeBoolean:
		return t, nil
	case "float":
		return TypeNumber, nil
	default:
		return "", fmt.Errorf("unknown type %q", raw)
	}
}

// Load reads the properties file at path. An empty path loads the embedded defaults.
func Load(path string) (*ResponseSchema, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errdefs.ConfigError{Key: "response properties", Err: err}
	}
	return Parse(data)
}

var loadDefault = sync.OnceValues(func() (*ResponseSchema, error) {
	data, err := propertiesFS.ReadFile("properties/default.yaml")
	if err != nil {
		return nil, &errdefs.ConfigError{Key: "response properties", Err: err}
	}
	return Parse(data)
})

// Default returns the embedded response schema. It is parsed once per process.
func Default() (*ResponseSchema, error) {
	return loadDefault()
}

// Names returns field names in declaration order.
func (s *ResponseSchema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Property returns the descriptor for a field.
func (s *ResponseSchema) Property(name string) (Property, bool) {
	p, ok := s.properties[name]
	return p, ok
}

// Validate checks that every required field is declared.
func (s *ResponseSchema) Validate(required []string) error {
	for _, name := range required {
		if _, ok := s.properties[name]; !ok {
			return &errdefs.ConfigError{Key: "response properties", Err: fmt.Errorf("required field %q is not declared", name)}
		}
	}
	return nil
}

// JSONSchema renders a fresh JSON-schema document. When strict is set the
// document forbids fields that are not declared.
func (s *ResponseSchema) JSONSchema(required []string, strict bool) map[string]any {
	props := make(map[string]any, len(s.names))
	for _, name := range s.names {
		p := s.properties[name]
		props[name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		doc["required"] = req
	}
	if strict {
		doc["additionalProperties"] = false
	}
	return doc
}
