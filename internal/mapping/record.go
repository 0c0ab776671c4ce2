package mapping

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"rostercore/pkg/fingerprint"
)

// Shape identifies how a record's values are addressed.
type Shape int

const (
	// ShapeKeyed records address values by field name.
	ShapeKeyed Shape = iota
	// ShapePositional records address values by element index.
	ShapePositional
)

func (s Shape) String() string {
	if s == ShapePositional {
		return "positional"
	}
	return "keyed"
}

// Field is one named value of a keyed record, in source order.
type Field struct {
	Name  string
	Value any
}

// Record is a single canonical row. Its shape is fixed at construction so
// consumers switch on it instead of re-probing value types per field. The
// zero Record is an empty keyed record.
type Record struct {
	shape  Shape
	keys   []string
	byKey  map[string]any
	values []any
}

// NewKeyedRecord builds a keyed record preserving the given field order. A
// repeated name keeps its first position and takes the last value.
func NewKeyedRecord(fields []Field) Record {
	rec := Record{shape: ShapeKeyed, byKey: make(map[string]any, len(fields))}
	for _, f := range fields {
		if _, seen := rec.byKey[f.Name]; !seen {
			rec.keys = append(rec.keys, f.Name)
		}
		rec.byKey[f.Name] = f.Value
	}
	return rec
}

// KeyedRecordFromMap builds a keyed record from a plain map. Go maps carry no
// order, so field order falls back to sorted names.
func KeyedRecordFromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	byKey := make(map[string]any, len(m))
	for k, v := range m {
		byKey[k] = v
	}
	return Record{shape: ShapeKeyed, keys: keys, byKey: byKey}
}

// NewPositionalRecord builds a positional record over a copy of values.
func NewPositionalRecord(values []any) Record {
	return Record{shape: ShapePositional, values: append([]any(nil), values...)}
}

// Shape reports how the record addresses its values.
func (r Record) Shape() Shape { return r.shape }

// Len is the number of named fields or positional elements.
func (r Record) Len() int {
	if r.shape == ShapePositional {
		return len(r.values)
	}
	return len(r.keys)
}

// FieldNames returns the record's own field identifiers: key names for keyed
// records, decimal indices for positional ones.
func (r Record) FieldNames() []string {
	if r.shape == ShapePositional {
		names := make([]string, len(r.values))
		for i := range r.values {
			names[i] = strconv.Itoa(i)
		}
		return names
	}
	return append([]string(nil), r.keys...)
}

// Field reads a named value. ok distinguishes an explicit nil value from an
// absent field. Positional records have no named fields.
func (r Record) Field(name string) (any, bool) {
	if r.shape == ShapePositional {
		return nil, false
	}
	v, ok := r.byKey[name]
	return v, ok
}

// Index reads an element by position. Keyed records resolve the index against
// their field order.
func (r Record) Index(i int) (any, bool) {
	if i < 0 {
		return nil, false
	}
	if r.shape == ShapePositional {
		if i >= len(r.values) {
			return nil, false
		}
		return r.values[i], true
	}
	if i >= len(r.keys) {
		return nil, false
	}
	return r.byKey[r.keys[i]], true
}

// Fields returns ordered name/value pairs for keyed records, nil for
// positional ones.
func (r Record) Fields() []Field {
	if r.shape != ShapeKeyed || len(r.keys) == 0 {
		return nil
	}
	out := make([]Field, len(r.keys))
	for i, k := range r.keys {
		out[i] = Field{Name: k, Value: r.byKey[k]}
	}
	return out
}

// Values returns a copy of the positional elements, nil for keyed records.
func (r Record) Values() []any {
	if r.shape != ShapePositional {
		return nil
	}
	return append([]any(nil), r.values...)
}

// RecordHandler returns a fingerprint serializer for Record values. The
// reflection walk cannot see a Record's content through its unexported
// fields, so without the handler every record collapses to the same print.
// Keyed content is rendered key-order invariant, positional content in
// element order.
func RecordHandler(opts fingerprint.Options) fingerprint.Handler {
	return func(value any) string {
		rec, ok := value.(Record)
		if !ok {
			return fmt.Sprint(value)
		}
		if rec.shape == ShapePositional {
			return "positional:" + fingerprint.Fingerprint(rec.values, opts)
		}
		fields := make(map[string]any, len(rec.byKey))
		for k, v := range rec.byKey {
			fields[k] = v
		}
		return "keyed:" + fingerprint.Fingerprint(fields, opts)
	}
}

// FingerprintOptions returns opts with the Record handler installed under the
// Record type name. Existing handlers are preserved.
func FingerprintOptions(opts fingerprint.Options) fingerprint.Options {
	handlers := make(map[string]fingerprint.Handler, len(opts.Handlers)+1)
	for name, h := range opts.Handlers {
		handlers[name] = h
	}
	handlers[reflect.TypeOf(Record{}).String()] = RecordHandler(opts)
	opts.Handlers = handlers
	return opts
}
