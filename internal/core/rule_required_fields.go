package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"rostercore/pkg/domain"
)

// NewRequiredFieldsRule returns the catalog-driven rule blocking creation of
// entities that are missing required fields.
func NewRequiredFieldsRule() domain.Rule {
	return requiredFieldsRule{}
}

type requiredFieldsRule struct{}

func (requiredFieldsRule) Name() string { return "required_fields" }

func (requiredFieldsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionCreate || change.After == nil {
			continue
		}
		fields, ok := entityFieldMap(change.After)
		if !ok {
			continue
		}
		entityID, _ := fields["id"].(string)
		for _, spec := range domain.Catalog(change.Entity) {
			if !spec.Required {
				continue
			}
			if fieldValueEmpty(fields[spec.Name], spec.Kind) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "required_fields",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("%s %s is missing required field %s", change.Entity, entityID, spec.Name),
					Entity:   change.Entity,
					EntityID: entityID,
				})
			}
		}
	}
	return res, nil
}

// entityFieldMap flattens a typed entity into its JSON field representation so
// catalog field names line up with struct tags.
func entityFieldMap(entity any) (map[string]any, bool) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func fieldValueEmpty(value any, kind domain.FieldKind) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	if strings.TrimSpace(s) == "" {
		return true
	}
	if kind == domain.FieldDate {
		t, err := time.Parse(time.RFC3339, s)
		return err != nil || t.IsZero()
	}
	return false
}
