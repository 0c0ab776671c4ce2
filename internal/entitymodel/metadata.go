package entitymodel

import "rostercore/docs/schema"

// Version returns the canonical entity model schema version derived from the
// committed fingerprint.
func Version() string {
	version, err := schema.EntityModelVersion()
	if err != nil {
		return ""
	}
	return version
}
