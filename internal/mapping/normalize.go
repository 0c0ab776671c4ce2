package mapping

// Tabular is raw input whose rows travel with an explicit header list, the
// shape produced by spreadsheet-style sources.
type Tabular struct {
	Headers []string
	Rows    []any
}

// Extraction is the canonical output of normalizing one raw input. Invalid
// input yields the zero value: no records, no source fields, Valid false.
type Extraction struct {
	Records      []Record
	SourceFields []string
	Valid        bool
}

// NormalizeOptions control header trust during normalization.
type NormalizeOptions struct {
	// StrictHeaders requires a supplied header list to name exactly the
	// first keyed record's own fields before it replaces them. Without the
	// flag a header list is adopted whenever its length matches the first
	// record's field count, which can silently misattribute names.
	// Positional rows only ever match headers by count either way.
	StrictHeaders bool
}

// Normalize derives the canonical record list and source field identifiers
// from one raw input using default options.
func Normalize(input any) Extraction {
	return NormalizeWithOptions(input, NormalizeOptions{})
}

// NormalizeWithOptions resolves raw input in a fixed order: absent input is
// invalid; an explicit header list is captured as a candidate; a non-list
// input contributes its rows list when it has one, otherwise a plain object
// becomes a single-row list and any other scalar is wrapped as {value: input};
// a list is used as-is. The result is invalid when no rows remain or the
// first row is not object- or array-shaped. Source fields come from the
// header candidate when it matches the first record, else from the first
// record itself.
//
// Only the first record's shape determines the source fields. Later rows are
// assumed congruent and are not validated; a consumer reading a field the row
// does not carry gets an absent value, not an error.
func NormalizeWithOptions(input any, opts NormalizeOptions) Extraction {
	if input == nil {
		return Extraction{}
	}
	headers, rows := splitRawInput(input)
	if len(rows) == 0 || !isRowShaped(rows[0]) {
		return Extraction{}
	}
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = asRecord(row)
	}
	fields := records[0].FieldNames()
	if adoptHeaders(headers, records[0], opts.StrictHeaders) {
		fields = append([]string(nil), headers...)
	}
	return Extraction{Records: records, SourceFields: fields, Valid: true}
}

func splitRawInput(input any) (headers []string, rows []any) {
	switch in := input.(type) {
	case Tabular:
		return append([]string(nil), in.Headers...), in.Rows
	case map[string]any:
		headers = headerCandidate(in["headers"])
		if list, ok := rowsCandidate(in["rows"]); ok {
			return headers, list
		}
		return headers, []any{in}
	case []any:
		return nil, in
	case []map[string]any:
		return nil, generalizeRows(in)
	case []Record:
		return nil, generalizeRows(in)
	case [][]any:
		return nil, generalizeRows(in)
	case [][]string:
		return nil, generalizeRows(in)
	case Record:
		return nil, []any{in}
	default:
		return nil, []any{map[string]any{"value": input}}
	}
}

func generalizeRows[T any](rows []T) []any {
	out := make([]any, len(rows))
	for i := range rows {
		out[i] = rows[i]
	}
	return out
}

func rowsCandidate(v any) ([]any, bool) {
	switch rows := v.(type) {
	case []any:
		return rows, true
	case []map[string]any:
		return generalizeRows(rows), true
	case []Record:
		return generalizeRows(rows), true
	case [][]any:
		return generalizeRows(rows), true
	case [][]string:
		return generalizeRows(rows), true
	}
	return nil, false
}

func headerCandidate(v any) []string {
	switch h := v.(type) {
	case []string:
		return append([]string(nil), h...)
	case []any:
		out := make([]string, 0, len(h))
		for _, item := range h {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	}
	return nil
}

func isRowShaped(v any) bool {
	switch v.(type) {
	case Record, map[string]any, []any, []string:
		return true
	}
	return false
}

func asRecord(v any) Record {
	switch row := v.(type) {
	case Record:
		return row
	case map[string]any:
		return KeyedRecordFromMap(row)
	case []any:
		return NewPositionalRecord(row)
	case []string:
		values := make([]any, len(row))
		for i, s := range row {
			values[i] = s
		}
		return Record{shape: ShapePositional, values: values}
	default:
		// Rows beyond the first are not validated; a non-row value becomes
		// an empty record that resolves no fields.
		return Record{}
	}
}

func adoptHeaders(headers []string, first Record, strict bool) bool {
	if len(headers) == 0 || len(headers) != first.Len() {
		return false
	}
	if !strict || first.Shape() == ShapePositional {
		return true
	}
	names := make(map[string]struct{}, first.Len())
	for _, name := range first.FieldNames() {
		names[name] = struct{}{}
	}
	for _, h := range headers {
		if _, ok := names[h]; !ok {
			return false
		}
	}
	return true
}
