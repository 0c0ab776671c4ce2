// Package entitymodel exposes typed access to the canonical entity-model
// document embedded under docs/schema.
package entitymodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"rostercore/docs/schema"
)

// EnumSpec describes one enumerated vocabulary of the model.
type EnumSpec struct {
	Values      []string `json:"values"`
	Description string   `json:"description"`
	Initial     string   `json:"initial"`
	Terminal    []string `json:"terminal"`
}

// RelationshipSpec describes how one entity references another.
type RelationshipSpec struct {
	Target      string `json:"target"`
	Cardinality string `json:"cardinality"`
	Storage     string `json:"storage"`
}

// NaturalKeySpec names the fields that identify an entity besides its id.
type NaturalKeySpec struct {
	Fields      []string `json:"fields"`
	Scope       string   `json:"scope"`
	Description string   `json:"description"`
}

// StateSpec binds an entity to its workflow enum.
type StateSpec struct {
	Enum     string   `json:"enum"`
	Initial  string   `json:"initial"`
	Terminal []string `json:"terminal"`
}

// EntitySpec is the schema of a single entity.
type EntitySpec struct {
	Description   string                      `json:"description"`
	NaturalKeys   []NaturalKeySpec            `json:"natural_keys"`
	Required      []string                    `json:"required"`
	Properties    map[string]json.RawMessage  `json:"properties"`
	Relationships map[string]RelationshipSpec `json:"relationships"`
	States        *StateSpec                  `json:"states"`
	Invariants    []string                    `json:"invariants"`
}

// PropertyNames returns the entity's property names sorted.
func (e EntitySpec) PropertyNames() []string {
	names := make([]string, 0, len(e.Properties))
	for name := range e.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model is the parsed canonical entity-model document.
type Model struct {
	Version  string                `json:"version"`
	Metadata schema.Metadata       `json:"metadata"`
	Enums    map[string]EnumSpec   `json:"enums"`
	Entities map[string]EntitySpec `json:"entities"`
}

// Load parses the embedded canonical entity-model document.
func Load() (Model, error) {
	var model Model
	if err := json.Unmarshal(schema.EntityModelJSON(), &model); err != nil {
		return Model{}, fmt.Errorf("parse entity model: %w", err)
	}
	return model, nil
}

// EntityNames returns the model's entity names sorted.
func (m Model) EntityNames() []string {
	names := make([]string, 0, len(m.Entities))
	for name := range m.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entity returns the schema of the named entity.
func (m Model) Entity(name string) (EntitySpec, bool) {
	ent, ok := m.Entities[name]
	return ent, ok
}

// Enum returns the named enumerated vocabulary.
func (m Model) Enum(name string) (EnumSpec, bool) {
	enum, ok := m.Enums[name]
	return enum, ok
}

// Validate checks the document's internal consistency: required and natural
// key fields must be declared properties, relationship targets must name
// entities, and state enums must resolve.
func (m Model) Validate() error {
	var errs []string

	if m.Version == "" {
		errs = append(errs, "version must be set")
	}
	if len(m.Enums) == 0 {
		errs = append(errs, "enums must not be empty")
	}
	for name, enum := range m.Enums {
		if len(enum.Values) == 0 {
			errs = append(errs, fmt.Sprintf("enum %q must include at least one value", name))
		}
	}
	if len(m.Entities) == 0 {
		errs = append(errs, "entities section must not be empty")
	}

	baseRequired := []string{"id", "created_at", "updated_at"}

	for name, ent := range m.Entities {
		if len(ent.Required) == 0 {
			errs = append(errs, fmt.Sprintf("entity %q must declare required fields", name))
		}
		if len(ent.Properties) == 0 {
			errs = append(errs, fmt.Sprintf("entity %q must declare properties", name))
		}
		if ent.NaturalKeys == nil {
			errs = append(errs, fmt.Sprintf("entity %q must declare natural_keys (empty array allowed)", name))
		}

		for _, base := range baseRequired {
			if !containsFold(ent.Required, base) {
				errs = append(errs, fmt.Sprintf("entity %q must require base field %q", name, base))
			}
		}
		for _, field := range ent.Required {
			if _, ok := ent.Properties[field]; !ok {
				errs = append(errs, fmt.Sprintf("entity %q required field %q missing from properties", name, field))
			}
		}

		for i, nk := range ent.NaturalKeys {
			if len(nk.Fields) == 0 {
				errs = append(errs, fmt.Sprintf("entity %q natural key #%d must declare at least one field", name, i))
			}
			for _, field := range nk.Fields {
				if _, ok := ent.Properties[field]; !ok {
					errs = append(errs, fmt.Sprintf("entity %q natural key field %q missing from properties", name, field))
				}
			}
			if nk.Scope == "" {
				errs = append(errs, fmt.Sprintf("entity %q natural key [%s] must declare scope", name, strings.Join(nk.Fields, ",")))
			}
		}

		if ent.States != nil {
			if ent.States.Enum == "" {
				errs = append(errs, fmt.Sprintf("entity %q states.enum must reference an enum name", name))
			} else if _, ok := m.Enums[ent.States.Enum]; !ok {
				errs = append(errs, fmt.Sprintf("entity %q states.enum %q not found in enums", name, ent.States.Enum))
			}
		}

		for relName, rel := range ent.Relationships {
			if rel.Target == "" {
				errs = append(errs, fmt.Sprintf("entity %q relationship %q missing target", name, relName))
				continue
			}
			if _, ok := m.Entities[rel.Target]; !ok {
				errs = append(errs, fmt.Sprintf("entity %q relationship %q targets unknown entity %q", name, relName, rel.Target))
			}
			if _, ok := ent.Properties[relName]; !ok {
				errs = append(errs, fmt.Sprintf("entity %q relationship %q missing property definition", name, relName))
			}
		}

		for i, invariant := range ent.Invariants {
			if strings.TrimSpace(invariant) == "" {
				errs = append(errs, fmt.Sprintf("entity %q invariants[%d] must not be empty", name, i))
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func containsFold(list []string, needle string) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, needle) {
			return true
		}
	}
	return false
}
