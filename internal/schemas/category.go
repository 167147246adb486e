// Package schemas defines the declarative report schemas for each emergency
// category. A schema is an ordered list of field definitions with validators;
// the intake engine consumes schemas generically, so adding a category is a
// data change, not a new handler.
package schemas

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
)

// Category identifies one emergency type and selects which report schema
// and authority queue apply.
type Category string

// Emergency categories. CategoryUnclassified marks a session whose triage
// has not yet produced a classification.
const (
	CategoryMedical      Category = "medical"
	CategoryPolice       Category = "police"
	CategoryElectricity  Category = "electricity"
	CategoryFire         Category = "fire"
	CategoryUnclassified Category = "unclassified"
)

var categories = []Category{
	CategoryMedical,
	CategoryPolice,
	CategoryElectricity,
	CategoryFire,
}

// ErrInvalidCategory indicates a value outside the classifiable category set.
var ErrInvalidCategory = errors.New("invalid emergency category")

// Categories returns the classifiable category set, in menu order.
func Categories() []Category {
	return categories
}

// ParseCategory validates a string as a classifiable category. Input is
// normalized, so model output casing never matters.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(categories, c) {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// UnmarshalJSON validates that the decoded string is a classifiable category.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
