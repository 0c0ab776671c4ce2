package fingerprint

// Memo tracks the fingerprint of the most recently observed value so callers
// can skip recomputation when content has not changed. Each consumer owns its
// own Memo; there is no shared state between instances.
type Memo struct {
	opts Options
	last string
	seen bool
}

// NewMemo returns a Memo that fingerprints with opts.
func NewMemo(opts Options) *Memo {
	return &Memo{opts: opts.withDefaults()}
}

// Update fingerprints value and reports whether it differs from the previous
// observation. The first call always reports true. The new fingerprint is
// retained either way.
func (m *Memo) Update(value any) bool {
	fp := Fingerprint(value, m.opts)
	changed := !m.seen || fp != m.last
	m.last = fp
	m.seen = true
	return changed
}

// Last returns the fingerprint recorded by the most recent Update, or the
// empty string before any observation.
func (m *Memo) Last() string {
	return m.last
}

// Reset discards the recorded fingerprint, so the next Update reports a
// change regardless of content.
func (m *Memo) Reset() {
	m.last = ""
	m.seen = false
}
