// Package openapi embeds the OpenAPI component schemas projected from the
// canonical sports entity model for API consumers.
package openapi

import _ "embed"

// EntityModelSpec holds the committed OpenAPI components for the entity
// model. The document tracks docs/schema/entity-model.json; edits land there
// first and this projection follows.
//
//go:embed entity-model.yaml
var EntityModelSpec []byte

// Spec returns a defensive copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), EntityModelSpec...)
}
