// Package source decodes uploaded payload bytes into the raw input shapes the
// mapping engine normalizes. JSON objects at row level keep their source key
// order, which a plain map round trip would destroy.
package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"rostercore/internal/mapping"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Decode routes payload bytes by content type. Generic or missing content
// types fall back to sniffing: payloads opening with a JSON container decode
// as JSON, anything else as CSV.
func Decode(contentType string, data []byte) (any, error) {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	useJSON := false
	switch {
	case strings.Contains(mediaType, "json"):
		useJSON = true
	case strings.Contains(mediaType, "csv"):
	case mediaType == "" || mediaType == "text/plain" || mediaType == "application/octet-stream":
		useJSON = looksLikeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	if useJSON {
		return DecodeJSON(data)
	}
	tabular, err := DecodeCSV(data)
	if err != nil {
		return nil, err
	}
	return tabular, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	// A leading quote is ambiguous: quoted CSV headers start the same way.
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// DecodeJSON decodes a JSON document. Objects sitting at row level (elements
// of a top-level list, elements of an envelope's rows list, or a lone
// top-level object) become keyed records with their key order intact; values
// nested inside a row decode conventionally. A top-level object whose rows
// key holds a list is returned as a map envelope for the normalizer.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	value, err := decodeDocument(dec)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode json: trailing data")
	}
	return value, nil
}

func decodeDocument(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '[':
		return decodeRowList(dec)
	case '{':
		return decodeEnvelope(dec)
	}
	return nil, fmt.Errorf("unexpected token %v", delim)
}

// decodeRowList consumes list elements after an opening bracket, decoding
// each at row level.
func decodeRowList(dec *json.Decoder) ([]any, error) {
	rows := []any{}
	for dec.More() {
		row, err := decodeRow(dec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeRow(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodeKeyedRow(dec)
	case '[':
		return decodePlainArray(dec)
	}
	return nil, fmt.Errorf("unexpected token %v", delim)
}

func decodeKeyedRow(dec *json.Decoder) (mapping.Record, error) {
	var fields []mapping.Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return mapping.Record{}, err
		}
		key, _ := keyTok.(string)
		value, err := decodePlainValue(dec)
		if err != nil {
			return mapping.Record{}, err
		}
		fields = append(fields, mapping.Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return mapping.Record{}, err
	}
	return mapping.NewKeyedRecord(fields), nil
}

// decodeEnvelope handles a top-level object. Whether it is a rows envelope
// or itself the single row only becomes known at the rows key, so field
// order is tracked until then.
func decodeEnvelope(dec *json.Decoder) (any, error) {
	var fields []mapping.Field
	hasRowList := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var value any
		if key == "rows" {
			value, err = decodeRowsValue(dec, &hasRowList)
		} else {
			value, err = decodePlainValue(dec)
		}
		if err != nil {
			return nil, err
		}
		fields = append(fields, mapping.Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if hasRowList {
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			out[f.Name] = f.Value
		}
		return out, nil
	}
	return mapping.NewKeyedRecord(fields), nil
}

func decodeRowsValue(dec *json.Decoder, isList *bool) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); ok {
		switch delim {
		case '[':
			*isList = true
			return decodeRowList(dec)
		case '{':
			return decodePlainObject(dec)
		}
	}
	return tok, nil
}

func decodePlainValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		return decodePlainObject(dec)
	case '[':
		return decodePlainArray(dec)
	}
	return nil, fmt.Errorf("unexpected token %v", delim)
}

func decodePlainObject(dec *json.Decoder) (map[string]any, error) {
	out := map[string]any{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		value, err := decodePlainValue(dec)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodePlainArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		value, err := decodePlainValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeCSV decodes comma-separated data. The first row names the columns,
// every following row stays positional. Rows may be ragged; missing cells
// resolve as absent fields downstream.
func DecodeCSV(data []byte) (mapping.Tabular, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return mapping.Tabular{}, fmt.Errorf("decode csv: %w", err)
	}
	if len(rows) == 0 {
		return mapping.Tabular{}, errors.New("decode csv: missing header row")
	}
	out := mapping.Tabular{Headers: rows[0], Rows: make([]any, 0, len(rows)-1)}
	for _, row := range rows[1:] {
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
