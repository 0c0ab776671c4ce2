package mapping

import (
	"sort"

	"rostercore/pkg/fingerprint"
)

// Dictionary stores target-field to source-field bindings scoped per entity
// type. Buckets are created lazily on first write; reads never allocate
// state. Mutations report whether they changed anything, and a mutation whose
// arguments fingerprint identically to the immediately preceding one is
// suppressed outright, which absorbs duplicate triggers from UI event
// handlers.
type Dictionary struct {
	buckets map[string]map[string]string
	lastOp  *fingerprint.Memo
}

type dictionaryOp struct {
	Kind   string
	Entity string
	Target string
	Source string
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		buckets: make(map[string]map[string]string),
		lastOp:  fingerprint.NewMemo(fingerprint.Options{}),
	}
}

// Set binds targetField to sourceField for entityType. Rebinding to the same
// source is a no-op.
func (d *Dictionary) Set(entityType, targetField, sourceField string) bool {
	if !d.lastOp.Update(dictionaryOp{Kind: "set", Entity: entityType, Target: targetField, Source: sourceField}) {
		return false
	}
	bucket := d.buckets[entityType]
	if bucket == nil {
		bucket = make(map[string]string)
		d.buckets[entityType] = bucket
	}
	if current, bound := bucket[targetField]; bound && current == sourceField {
		return false
	}
	bucket[targetField] = sourceField
	return true
}

// Remove deletes the binding for targetField. Removing an absent binding is
// a no-op, not an error.
func (d *Dictionary) Remove(entityType, targetField string) bool {
	if !d.lastOp.Update(dictionaryOp{Kind: "remove", Entity: entityType, Target: targetField}) {
		return false
	}
	bucket, ok := d.buckets[entityType]
	if !ok {
		return false
	}
	if _, bound := bucket[targetField]; !bound {
		return false
	}
	delete(bucket, targetField)
	return true
}

// Clear empties the bucket for entityType only. Other entity types keep
// their bindings.
func (d *Dictionary) Clear(entityType string) bool {
	if !d.lastOp.Update(dictionaryOp{Kind: "clear", Entity: entityType}) {
		return false
	}
	bucket, ok := d.buckets[entityType]
	if !ok || len(bucket) == 0 {
		return false
	}
	d.buckets[entityType] = make(map[string]string)
	return true
}

// Mappings returns a copy of the bucket for entityType, empty when the
// bucket was never created.
func (d *Dictionary) Mappings(entityType string) map[string]string {
	bucket := d.buckets[entityType]
	out := make(map[string]string, len(bucket))
	for target, source := range bucket {
		out[target] = source
	}
	return out
}

// Buckets returns the entity types holding at least one binding, sorted.
func (d *Dictionary) Buckets() []string {
	out := make([]string, 0, len(d.buckets))
	for entityType, bucket := range d.buckets {
		if len(bucket) == 0 {
			continue
		}
		out = append(out, entityType)
	}
	sort.Strings(out)
	return out
}
