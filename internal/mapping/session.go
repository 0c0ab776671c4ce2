// Package mapping implements the field-mapping engine behind bulk imports:
// normalization of heterogeneous raw input into canonical records, a
// per-entity-type field dictionary, resolution of mapped target values, and
// a navigable cursor with exclusions over the record list. Change detection
// throughout is fingerprint-based so repeated interactions with unchanged
// inputs cost no recomputation.
package mapping

import "rostercore/pkg/fingerprint"

// MappedRow pairs a record's position with its mapped view, the unit handed
// to a bulk-import collaborator.
type MappedRow struct {
	Index  int
	Record Record
	Values MappedRecord
}

// Logger is the subset of a structured logger the session reports through.
// Without one the session stays silent.
type Logger interface {
	Warn(msg string, args ...any)
}

// Session owns one mapping workflow: the current extraction, the navigation
// cursor over its records, the field dictionary, and the fingerprint memos
// gating recomputation. A session is not safe for concurrent use; each
// logical workflow owns exactly one.
type Session struct {
	normOpts   NormalizeOptions
	fpOpts     fingerprint.Options
	extraction Extraction
	navigator  *Navigator
	dictionary *Dictionary
	entityType string
	logger     Logger

	inputMemo  *fingerprint.Memo
	mappedMemo *fingerprint.Memo
	mapped     MappedRecord

	navigationHook func(index int)
}

// SessionOption configures a Session at construction.
type SessionOption func(*Session)

// WithNormalizeOptions sets the normalization options used by Load.
func WithNormalizeOptions(opts NormalizeOptions) SessionOption {
	return func(s *Session) { s.normOpts = opts }
}

// WithFingerprintOptions sets the base fingerprint options for the session's
// change-detection memos. The Record handler is installed on top.
func WithFingerprintOptions(opts fingerprint.Options) SessionOption {
	return func(s *Session) { s.fpOpts = opts }
}

// WithNavigationHook installs a callback invoked after a successful Next or
// Previous step. Cursor state is fully updated before the hook fires, so a
// host may treat it purely as a paint-scheduling hint.
func WithNavigationHook(hook func(index int)) SessionOption {
	return func(s *Session) { s.navigationHook = hook }
}

// WithLogger routes session warnings to l.
func WithLogger(l Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession returns an empty session ready to load raw input.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	s.fpOpts = FingerprintOptions(s.fpOpts)
	s.inputMemo = fingerprint.NewMemo(s.fpOpts)
	s.mappedMemo = fingerprint.NewMemo(s.fpOpts)
	s.dictionary = NewDictionary()
	s.navigator = NewNavigator(nil)
	return s
}

// Load normalizes raw input and reseeds navigation. Input fingerprinting
// makes repeated loads of identical data a no-op, reported as false. Invalid
// input still loads: the extraction empties and Valid reports false.
func (s *Session) Load(input any) bool {
	if !s.inputMemo.Update(input) {
		return false
	}
	s.extraction = NormalizeWithOptions(input, s.normOpts)
	s.navigator.Reset(s.extraction.Records)
	return true
}

// Valid reports whether the last Load produced a usable record list.
func (s *Session) Valid() bool { return s.extraction.Valid }

// SourceFields returns a copy of the current source field identifiers.
func (s *Session) SourceFields() []string {
	return append([]string(nil), s.extraction.SourceFields...)
}

// Records returns the canonical record list. Callers must treat it as
// read-only.
func (s *Session) Records() []Record { return s.extraction.Records }

// SetEntityType switches the active mapping bucket. Reports false when the
// type is already active.
func (s *Session) SetEntityType(entityType string) bool {
	if entityType == s.entityType {
		return false
	}
	s.entityType = entityType
	return true
}

// EntityType returns the active entity type.
func (s *Session) EntityType() string { return s.entityType }

// Map binds targetField to sourceField under the active entity type.
func (s *Session) Map(targetField, sourceField string) bool {
	return s.dictionary.Set(s.entityType, targetField, sourceField)
}

// Unmap removes the binding for targetField under the active entity type.
// Removing a binding that does not exist is tolerated and only warned about.
func (s *Session) Unmap(targetField string) bool {
	if s.dictionary.Remove(s.entityType, targetField) {
		return true
	}
	if s.logger != nil {
		s.logger.Warn("mapping removal ignored", "entity", s.entityType, "target", targetField)
	}
	return false
}

// ClearMappings empties the active entity type's bucket.
func (s *Session) ClearMappings() bool {
	return s.dictionary.Clear(s.entityType)
}

// Mappings returns a copy of the active entity type's bindings.
func (s *Session) Mappings() map[string]string {
	return s.dictionary.Mappings(s.entityType)
}

// MappingsFor returns a copy of the bindings for an arbitrary entity type.
func (s *Session) MappingsFor(entityType string) map[string]string {
	return s.dictionary.Mappings(entityType)
}

// Next advances the cursor, skipping excluded records.
func (s *Session) Next() bool { return s.navigate(s.navigator.Next) }

// Previous moves the cursor back, skipping excluded records.
func (s *Session) Previous() bool { return s.navigate(s.navigator.Previous) }

func (s *Session) navigate(step func() bool) bool {
	if !step() {
		return false
	}
	if s.navigationHook != nil {
		s.navigationHook(s.navigator.CurrentIndex())
	}
	return true
}

// ToggleExclude flips exclusion of the current record.
func (s *Session) ToggleExclude() bool { return s.navigator.ToggleExclude() }

// CurrentIndex returns the cursor position, -1 when no records are loaded.
func (s *Session) CurrentIndex() int { return s.navigator.CurrentIndex() }

// CurrentRecord returns the record under the cursor.
func (s *Session) CurrentRecord() (Record, bool) { return s.navigator.Current() }

// Stats summarizes inclusion state over the loaded records.
func (s *Session) Stats() Stats { return s.navigator.Stats() }

// IncludedRecords returns the non-excluded records in original order.
func (s *Session) IncludedRecords() []Record { return s.navigator.IncludedRecords() }

type mappedState struct {
	EntityType   string
	SourceFields []string
	Mapping      map[string]string
	Record       Record
}

// CurrentMapped returns the mapped view of the current record, recomputed
// only when the record, source fields, active entity type, or mapping
// changed since the previous call.
func (s *Session) CurrentMapped() MappedRecord {
	rec, ok := s.navigator.Current()
	if !ok {
		return MappedRecord{}
	}
	mappings := s.dictionary.Mappings(s.entityType)
	state := mappedState{
		EntityType:   s.entityType,
		SourceFields: s.extraction.SourceFields,
		Mapping:      mappings,
		Record:       rec,
	}
	if s.mappedMemo.Update(state) || s.mapped == nil {
		s.mapped = Apply(rec, s.extraction.SourceFields, mappings)
	}
	out := make(MappedRecord, len(s.mapped))
	for target, v := range s.mapped {
		out[target] = v
	}
	return out
}

// MappedField resolves a single source reference against the current record,
// the fast path while a binding is being dragged into place.
func (s *Session) MappedField(sourceFieldRef string) (any, bool) {
	rec, ok := s.navigator.Current()
	if !ok {
		return nil, false
	}
	return ApplyField(rec, s.extraction.SourceFields, sourceFieldRef)
}

// IncludedMapped applies the active mapping to every included record,
// preserving record order. Index is the record's position in the canonical
// list so failures can be reported against the source row.
func (s *Session) IncludedMapped() []MappedRow {
	mappings := s.dictionary.Mappings(s.entityType)
	fields := s.extraction.SourceFields
	stats := s.navigator.Stats()
	out := make([]MappedRow, 0, stats.Included)
	for i, rec := range s.extraction.Records {
		if s.navigator.IsExcluded(i) {
			continue
		}
		out = append(out, MappedRow{Index: i, Record: rec, Values: Apply(rec, fields, mappings)})
	}
	return out
}
