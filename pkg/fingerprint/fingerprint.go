// Package fingerprint derives deterministic, content-based string forms of
// arbitrary Go values. Two values with the same logical content always produce
// the same fingerprint regardless of map iteration order or pointer identity,
// which makes the output suitable for change detection and memoization keys.
package fingerprint

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultDepth bounds recursion into nested composites when Options.Depth is
// left at its zero value.
const DefaultDepth = 5

const (
	truncatedSentinel = "<max-depth>"
	dateSentinel      = "<date>"
)

// DateFormat selects how time.Time values are rendered.
type DateFormat int

const (
	// DateISO renders times as RFC 3339 strings in UTC.
	DateISO DateFormat = iota
	// DateUnix renders times as Unix epoch seconds.
	DateUnix
	// DateNone replaces times with a fixed placeholder so they do not
	// contribute to the fingerprint.
	DateNone
)

// Handler overrides serialization for a single concrete type. The returned
// string is emitted verbatim in place of the default rendering.
type Handler func(value any) string

// Options control fingerprint construction. The zero value is ready to use.
type Options struct {
	// Depth is the maximum nesting level of maps, slices, arrays and
	// structs that is descended into. Content below the limit collapses to
	// a fixed sentinel. Zero or negative means DefaultDepth.
	Depth int
	// Dates selects the rendering of time.Time values.
	Dates DateFormat
	// TypeNames prefixes every value with its dynamic type, so values of
	// different types never fingerprint equal even when their textual
	// forms coincide.
	TypeNames bool
	// SkipNil omits map entries and struct fields whose value is nil.
	SkipNil bool
	// Handlers maps a reflect type string (for example "time.Time" or
	// "*big.Int") to a custom serializer consulted before the built-in
	// rules.
	Handlers map[string]Handler
}

func (o Options) withDefaults() Options {
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	return o
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
)

// Fingerprint serializes value into a deterministic string. Map keys and
// struct field names are emitted in sorted order, slice and array elements in
// positional order. Functions contribute only their type signature, never
// their identity. Fingerprint does not panic; values reflection cannot
// inspect fall back to their fmt rendering.
func Fingerprint(value any, opts Options) (out string) {
	opts = opts.withDefaults()
	defer func() {
		if recover() != nil {
			out = fmt.Sprint(value)
		}
	}()
	var b strings.Builder
	w := walker{opts: opts, b: &b}
	w.walk(reflect.ValueOf(value), opts.Depth)
	return b.String()
}

// Equal reports whether a and b produce identical fingerprints under opts.
func Equal(a, b any, opts Options) bool {
	return Fingerprint(a, opts) == Fingerprint(b, opts)
}

// NewEqualityFunc binds opts into a two-argument comparison function.
func NewEqualityFunc(opts Options) func(a, b any) bool {
	opts = opts.withDefaults()
	return func(a, b any) bool {
		return Equal(a, b, opts)
	}
}

type walker struct {
	opts Options
	b    *strings.Builder
}

func (w *walker) render(rv reflect.Value, depth int) string {
	var b strings.Builder
	child := walker{opts: w.opts, b: &b}
	child.walk(rv, depth)
	return b.String()
}

func (w *walker) walk(rv reflect.Value, depth int) {
	if !rv.IsValid() {
		w.b.WriteString("nil")
		return
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			w.b.WriteString("nil")
			return
		}
		// Pointer types get their own handler shot so "*big.Int" style
		// keys work as documented.
		if rv.Kind() == reflect.Pointer {
			if h := w.handlerFor(rv); h != nil {
				w.writeTyped(rv, h(rv.Interface()))
				return
			}
		}
		rv = rv.Elem()
	}
	if h := w.handlerFor(rv); h != nil {
		w.writeTyped(rv, h(rv.Interface()))
		return
	}
	if rv.Type() == timeType {
		w.writeTime(rv)
		return
	}
	// big.Int carries its magnitude in unexported fields, so the generic
	// struct walk would erase it.
	if rv.Type() == bigIntType && rv.CanInterface() {
		n := rv.Interface().(big.Int)
		w.writeTyped(rv, n.String())
		return
	}
	switch rv.Kind() {
	case reflect.Bool:
		w.writeTyped(rv, strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.writeTyped(rv, strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		w.writeTyped(rv, strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		w.writeTyped(rv, strconv.FormatFloat(rv.Float(), 'g', -1, 32))
	case reflect.Float64:
		w.writeTyped(rv, strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Complex64:
		w.writeTyped(rv, strconv.FormatComplex(rv.Complex(), 'g', -1, 64))
	case reflect.Complex128:
		w.writeTyped(rv, strconv.FormatComplex(rv.Complex(), 'g', -1, 128))
	case reflect.String:
		w.writeTyped(rv, strconv.Quote(rv.String()))
	case reflect.Slice, reflect.Array:
		w.walkSequence(rv, depth)
	case reflect.Map:
		w.walkMap(rv, depth)
	case reflect.Struct:
		w.walkStruct(rv, depth)
	case reflect.Func:
		if rv.IsNil() {
			w.b.WriteString("nil")
			return
		}
		// Identity of functions is not stable across runs, so only the
		// signature participates.
		w.b.WriteString(rv.Type().String())
	default:
		if rv.CanInterface() {
			w.writeTyped(rv, fmt.Sprint(rv.Interface()))
			return
		}
		w.b.WriteString(rv.Type().String())
	}
}

func (w *walker) writeTyped(rv reflect.Value, text string) {
	if w.opts.TypeNames {
		w.b.WriteString(rv.Type().String())
		w.b.WriteByte(':')
	}
	w.b.WriteString(text)
}

func (w *walker) writeTime(rv reflect.Value) {
	t := rv.Interface().(time.Time)
	var text string
	switch w.opts.Dates {
	case DateUnix:
		text = strconv.FormatInt(t.Unix(), 10)
	case DateNone:
		text = dateSentinel
	default:
		text = t.UTC().Format(time.RFC3339Nano)
	}
	w.writeTyped(rv, text)
}

func (w *walker) walkSequence(rv reflect.Value, depth int) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		w.b.WriteString("nil")
		return
	}
	if depth <= 0 {
		w.b.WriteString(truncatedSentinel)
		return
	}
	if w.opts.TypeNames {
		w.b.WriteString(rv.Type().String())
		w.b.WriteByte(':')
	}
	w.b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			w.b.WriteByte(',')
		}
		w.walk(rv.Index(i), depth-1)
	}
	w.b.WriteByte(']')
}

func (w *walker) walkMap(rv reflect.Value, depth int) {
	if rv.IsNil() {
		w.b.WriteString("nil")
		return
	}
	if depth <= 0 {
		w.b.WriteString(truncatedSentinel)
		return
	}
	type pair struct {
		key   string
		value reflect.Value
	}
	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if w.opts.SkipNil && isNilValue(iter.Value()) {
			continue
		}
		pairs = append(pairs, pair{key: w.render(iter.Key(), depth-1), value: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	if w.opts.TypeNames {
		w.b.WriteString(rv.Type().String())
		w.b.WriteByte(':')
	}
	w.b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			w.b.WriteByte(',')
		}
		w.b.WriteString(p.key)
		w.b.WriteByte(':')
		w.walk(p.value, depth-1)
	}
	w.b.WriteByte('}')
}

func (w *walker) walkStruct(rv reflect.Value, depth int) {
	if depth <= 0 {
		w.b.WriteString(truncatedSentinel)
		return
	}
	rt := rv.Type()
	type field struct {
		name  string
		value reflect.Value
	}
	fields := make([]field, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		fv := rv.Field(i)
		if w.opts.SkipNil && isNilValue(fv) {
			continue
		}
		fields = append(fields, field{name: sf.Name, value: fv})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].name < fields[j].name })
	if w.opts.TypeNames {
		w.b.WriteString(rt.String())
		w.b.WriteByte(':')
	}
	w.b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			w.b.WriteByte(',')
		}
		w.b.WriteString(f.name)
		w.b.WriteByte(':')
		w.walk(f.value, depth-1)
	}
	w.b.WriteByte('}')
}

func (w *walker) handlerFor(rv reflect.Value) Handler {
	if len(w.opts.Handlers) == 0 || !rv.CanInterface() {
		return nil
	}
	return w.opts.Handlers[rv.Type().String()]
}

func isNilValue(rv reflect.Value) bool {
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	case reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isNilValue(rv.Elem())
	}
	return false
}
