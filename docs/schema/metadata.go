// Package schema embeds the canonical entity-model documents and exposes
// their metadata for runtime use.
package schema

import (
	_ "embed"
	"encoding/json"
	"sync"
)

// Metadata captures the high-level metadata block from the canonical
// entity-model JSON.
type Metadata struct {
	Source string `json:"source"`
	Status string `json:"status"`
}

//go:embed entity-model.fingerprint.json
var entityModelFingerprint []byte

//go:embed entity-model.json
var entityModelSchema []byte

// EntityModelJSON returns a copy of the embedded canonical entity-model
// document for callers that parse the schema themselves.
func EntityModelJSON() []byte {
	return append([]byte(nil), entityModelSchema...)
}

var entityModelVersion = sync.OnceValues(func() (string, error) {
	var fp struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(entityModelFingerprint, &fp); err != nil {
		return "", err
	}
	return fp.Version, nil
})

// EntityModelVersion returns the canonical schema version declared in the
// committed fingerprint (source of truth: docs/schema/entity-model.json).
func EntityModelVersion() (string, error) {
	return entityModelVersion()
}

var entityModelMetadata = sync.OnceValues(func() (Metadata, error) {
	var doc struct {
		Metadata Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(entityModelSchema, &doc); err != nil {
		return Metadata{}, err
	}
	return doc.Metadata, nil
})

// EntityModelMetadata returns the schema metadata (status, source) declared in
// the canonical entity-model JSON.
func EntityModelMetadata() (Metadata, error) {
	return entityModelMetadata()
}
