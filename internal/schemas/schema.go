package schemas

import (
	"errors"
	"fmt"
)

// Field defines one slot in a category's report schema.
type Field struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`

	validate ValidatorFunc
}

// ValidatorFunc checks a candidate value for a single field.
// A nil return means the value is acceptable for storage.
type ValidatorFunc func(value string) error

// Schema is the ordered field list for one category. Field order is the
// interview priority order: the first missing required field is the next
// one the dialogue asks for.
type Schema struct {
	Category Category `json:"category"`
	Fields   []Field  `json:"fields"`
}

// ErrUnknownField indicates a field name outside the schema.
var ErrUnknownField = errors.New("field not in schema")

// Field returns the definition for name, or ErrUnknownField.
func (s *Schema) Field(name string) (*Field, error) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
}

// Validate checks a candidate value against the named field's validator.
func (s *Schema) Validate(name, value string) error {
	f, err := s.Field(name)
	if err != nil {
		return err
	}
	if f.validate == nil {
		return nil
	}
	if err := f.validate(value); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// MissingRequired returns the required fields absent from collected,
// in priority order.
func (s *Schema) MissingRequired(collected map[string]string) []string {
	var missing []string
	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		if _, ok := collected[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// MissingOptional returns the optional fields absent from collected,
// in priority order. Their absence never blocks completion.
func (s *Schema) MissingOptional(collected map[string]string) []string {
	var missing []string
	for _, f := range s.Fields {
		if f.Required {
			continue
		}
		if _, ok := collected[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Complete reports whether every required field is present in collected.
// Values in collected have already passed their validators; the engine
// never stores a value that failed validation.
func (s *Schema) Complete(collected map[string]string) bool {
	return len(s.MissingRequired(collected)) == 0
}

// For returns the report schema for a classifiable category.
func For(c Category) (*Schema, error) {
	s, ok := registry[c]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, c)
	}
	return s, nil
}
