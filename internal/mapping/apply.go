package mapping

import "strconv"

// MappedRecord is the resolved target-field view of one source record. It is
// a computed value, never stored.
type MappedRecord map[string]any

// Apply resolves every bound target field of mapping against the record.
// Target fields whose source reference does not resolve are omitted: absence
// means "don't touch", not "set empty". An explicit nil value resolves and is
// included.
func Apply(rec Record, sourceFields []string, mapping map[string]string) MappedRecord {
	out := make(MappedRecord, len(mapping))
	for target, ref := range mapping {
		if v, ok := resolveSource(rec, sourceFields, ref); ok {
			out[target] = v
		}
	}
	return out
}

// ApplyField resolves a single source reference against the record, the
// fast path for updating one target field during an active drag. It uses the
// same resolution as Apply so the two can never diverge.
func ApplyField(rec Record, sourceFields []string, sourceFieldRef string) (any, bool) {
	return resolveSource(rec, sourceFields, sourceFieldRef)
}

// resolveSource resolves one source reference. Positional records try the
// reference as a source field name first, then as a literal in-range index.
// Keyed records read the field directly.
func resolveSource(rec Record, sourceFields []string, ref string) (any, bool) {
	if rec.Shape() == ShapePositional {
		for i, name := range sourceFields {
			if name == ref {
				return rec.Index(i)
			}
		}
		if idx, err := strconv.Atoi(ref); err == nil && idx >= 0 {
			if v, ok := rec.Index(idx); ok {
				return v, true
			}
		}
		return nil, false
	}
	return rec.Field(ref)
}
