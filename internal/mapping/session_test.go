package mapping

import (
	"reflect"
	"testing"
)

func rosterFixture() []Record {
	return []Record{
		NewKeyedRecord([]Field{{"id", 1}, {"name", "R1"}, {"city", "NY"}}),
		NewKeyedRecord([]Field{{"id", 2}, {"name", "R2"}, {"city", "LA"}}),
	}
}

func TestSessionEndToEnd(t *testing.T) {
	s := NewSession()
	if !s.Load(rosterFixture()) {
		t.Fatalf("load failed")
	}
	if !s.Valid() {
		t.Fatalf("expected valid extraction")
	}
	if got := s.SourceFields(); !reflect.DeepEqual(got, []string{"id", "name", "city"}) {
		t.Fatalf("unexpected source fields: %v", got)
	}

	s.SetEntityType("team")
	if !s.Map("teamCity", "city") || !s.Map("teamName", "name") {
		t.Fatalf("mapping mutations failed")
	}
	if !s.Next() || s.CurrentIndex() != 1 {
		t.Fatalf("expected cursor at 1, got %d", s.CurrentIndex())
	}

	want := MappedRecord{"teamCity": "LA", "teamName": "R2"}
	if got := s.CurrentMapped(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected mapped record: %v", got)
	}
	if got := len(s.IncludedRecords()); got != 2 {
		t.Fatalf("expected 2 included records, got %d", got)
	}
}

func TestSessionLoadFingerprintGate(t *testing.T) {
	s := NewSession()
	if !s.Load(rosterFixture()) {
		t.Fatalf("first load must report a change")
	}
	if s.Load(rosterFixture()) {
		t.Fatalf("reloading identical content must be a no-op")
	}
	if !s.Load([]Record{NewKeyedRecord([]Field{{"id", 3}})}) {
		t.Fatalf("different content must load")
	}
	if !s.Load(rosterFixture()) {
		t.Fatalf("returning to earlier content is still a change against the last load")
	}
}

func TestSessionLoadReseedsNavigation(t *testing.T) {
	s := NewSession()
	s.Load(rosterFixture())
	s.Next()
	s.ToggleExclude()

	s.Load([]Record{NewKeyedRecord([]Field{{"id", 9}})})
	if s.CurrentIndex() != 0 {
		t.Fatalf("new extraction must reseed the cursor, got %d", s.CurrentIndex())
	}
	if st := s.Stats(); st.Excluded != 0 || st.Total != 1 {
		t.Fatalf("new extraction must clear exclusions, got %+v", st)
	}
}

func TestSessionLoadInvalidInput(t *testing.T) {
	s := NewSession()
	if !s.Load(nil) {
		t.Fatalf("first observation of nil input still loads")
	}
	if s.Valid() {
		t.Fatalf("nil input must be invalid")
	}
	if s.CurrentIndex() != -1 {
		t.Fatalf("invalid extraction has no cursor, got %d", s.CurrentIndex())
	}
	if s.Load(nil) {
		t.Fatalf("repeated nil input must be a no-op")
	}
	if got := s.CurrentMapped(); len(got) != 0 {
		t.Fatalf("no mapped view without a current record, got %v", got)
	}
}

func TestSessionMappedViewTracksChanges(t *testing.T) {
	s := NewSession()
	s.Load(rosterFixture())
	s.SetEntityType("team")
	s.Map("teamName", "name")

	if got := s.CurrentMapped(); !reflect.DeepEqual(got, MappedRecord{"teamName": "R1"}) {
		t.Fatalf("unexpected mapped record: %v", got)
	}

	s.Map("teamCity", "city")
	if got := s.CurrentMapped(); !reflect.DeepEqual(got, MappedRecord{"teamName": "R1", "teamCity": "NY"}) {
		t.Fatalf("mapped view must follow dictionary changes, got %v", got)
	}

	s.Next()
	if got := s.CurrentMapped(); !reflect.DeepEqual(got, MappedRecord{"teamName": "R2", "teamCity": "LA"}) {
		t.Fatalf("mapped view must follow navigation, got %v", got)
	}

	s.Unmap("teamCity")
	if got := s.CurrentMapped(); !reflect.DeepEqual(got, MappedRecord{"teamName": "R2"}) {
		t.Fatalf("mapped view must follow removals, got %v", got)
	}

	s.SetEntityType("league")
	if got := s.CurrentMapped(); len(got) != 0 {
		t.Fatalf("a fresh entity type has no bindings, got %v", got)
	}
}

func TestSessionMappedViewCopies(t *testing.T) {
	s := NewSession()
	s.Load(rosterFixture())
	s.SetEntityType("team")
	s.Map("teamName", "name")

	got := s.CurrentMapped()
	got["teamName"] = "mutated"
	if again := s.CurrentMapped(); again["teamName"] != "R1" {
		t.Fatalf("callers must not reach the cached view, got %v", again)
	}
}

func TestSessionMappedFieldFastPath(t *testing.T) {
	s := NewSession()
	s.Load(rosterFixture())
	s.SetEntityType("team")
	s.Map("teamName", "name")

	v, ok := s.MappedField("name")
	if !ok || v != "R1" {
		t.Fatalf("unexpected fast-path value: %v (%v)", v, ok)
	}
	if full := s.CurrentMapped(); full["teamName"] != v {
		t.Fatalf("fast path and full pass diverged: %v vs %v", v, full["teamName"])
	}
	if _, ok := s.MappedField("missing"); ok {
		t.Fatalf("unresolvable reference must not produce a value")
	}
}

func TestSessionNavigationHook(t *testing.T) {
	var visits []int
	s := NewSession(WithNavigationHook(func(index int) {
		visits = append(visits, index)
	}))
	s.Load(rosterFixture())

	s.Next()
	s.Previous()
	if !reflect.DeepEqual(visits, []int{1, 0}) {
		t.Fatalf("unexpected hook invocations: %v", visits)
	}

	s.ToggleExclude()
	s.Next()
	s.ToggleExclude()
	before := len(visits)
	if s.Next() {
		t.Fatalf("expected exhausted navigation")
	}
	if len(visits) != before {
		t.Fatalf("failed navigation must not fire the hook")
	}
}

func TestSessionHookSeesUpdatedState(t *testing.T) {
	var s *Session
	fired := 0
	s = NewSession(WithNavigationHook(func(index int) {
		fired++
		if s.CurrentIndex() != index {
			t.Errorf("hook saw index %d but cursor is at %d", index, s.CurrentIndex())
		}
		if _, ok := s.CurrentRecord(); !ok {
			t.Errorf("hook fired without a current record")
		}
	}))
	s.Load(rosterFixture())
	s.Next()
	s.Previous()
	if fired != 2 {
		t.Fatalf("expected 2 hook invocations, got %d", fired)
	}
}

func TestSessionIncludedMapped(t *testing.T) {
	s := NewSession()
	s.Load([]Record{
		NewKeyedRecord([]Field{{"name", "R1"}}),
		NewKeyedRecord([]Field{{"name", "R2"}}),
		NewKeyedRecord([]Field{{"name", "R3"}}),
	})
	s.SetEntityType("team")
	s.Map("teamName", "name")

	s.Next()
	s.ToggleExclude()

	rows := s.IncludedMapped()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Index != 0 || rows[1].Index != 2 {
		t.Fatalf("unexpected row indices: %d, %d", rows[0].Index, rows[1].Index)
	}
	if rows[1].Values["teamName"] != "R3" {
		t.Fatalf("unexpected mapped values: %v", rows[1].Values)
	}
}

func TestSessionEntityTypeSwitchKeepsBuckets(t *testing.T) {
	s := NewSession()
	s.Load(rosterFixture())
	s.SetEntityType("team")
	s.Map("teamName", "name")

	if s.SetEntityType("team") {
		t.Fatalf("switching to the active type must be a no-op")
	}
	s.SetEntityType("league")
	if got := s.Mappings(); len(got) != 0 {
		t.Fatalf("league bucket should start empty, got %v", got)
	}
	s.Map("leagueName", "name")

	s.SetEntityType("team")
	if got := s.Mappings(); !reflect.DeepEqual(got, map[string]string{"teamName": "name"}) {
		t.Fatalf("team bucket must survive entity switches, got %v", got)
	}
	if got := s.MappingsFor("league"); !reflect.DeepEqual(got, map[string]string{"leagueName": "name"}) {
		t.Fatalf("league bucket must be reachable, got %v", got)
	}
}

type captureLogger struct {
	warnings []string
}

func (l *captureLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, msg)
}

func TestSessionUnmapWarnsWhenAbsent(t *testing.T) {
	logger := &captureLogger{}
	s := NewSession(WithLogger(logger))
	s.SetEntityType("team")

	if s.Unmap("never-bound") {
		t.Fatalf("removing an absent binding must not report a change")
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("expected one warning, got %v", logger.warnings)
	}

	s.Map("teamName", "name")
	if !s.Unmap("teamName") {
		t.Fatalf("removing a live binding must succeed")
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("successful removal must not warn, got %v", logger.warnings)
	}
}

func TestSessionClearMappings(t *testing.T) {
	s := NewSession()
	s.SetEntityType("team")
	s.Map("teamName", "name")
	if !s.ClearMappings() {
		t.Fatalf("clearing a populated bucket must change state")
	}
	if got := s.Mappings(); len(got) != 0 {
		t.Fatalf("expected empty mappings, got %v", got)
	}
}
