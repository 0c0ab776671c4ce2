package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDiffFingerprintsDetectsRemovals(t *testing.T) {
	teamBase := entityFingerprint{
		Properties: []string{"code", "id", "name"},
		Required:   []string{"code", "id"},
		Invariants: []string{"league_membership: league_id references an existing league"},
		NaturalKeys: []string{
			"league_id+code",
		},
		Relationships: map[string]relationshipFingerprint{
			"player_ids": {Target: "Player", Cardinality: "0..n", Storage: "derived"},
		},
	}
	baseline := fingerprintDoc{
		Version: "1.0.0",
		Enums: map[string][]string{
			"player_status": {"active", "injured"},
		},
		Entities: map[string]entityFingerprint{
			"Team": teamBase,
		},
	}
	current := fingerprintDoc{
		Version: "1.0.0",
		Enums: map[string][]string{
			"player_status": {"active"},
		},
		Entities: map[string]entityFingerprint{
			"Team": {
				Properties:    append([]string(nil), teamBase.Properties...),
				Required:      append([]string(nil), teamBase.Required...),
				Invariants:    nil,
				NaturalKeys:   nil,
				Relationships: map[string]relationshipFingerprint{},
			},
		},
	}

	issues := diffFingerprints(baseline, current)
	joined := strings.Join(issues, "\n")
	for _, want := range []string{
		"enum player_status value removed: injured",
		"entity Team invariant removed",
		"entity Team natural key removed: league_id+code",
		"entity Team relationship removed: player_ids",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in issues, got %v", want, issues)
		}
	}
}

func TestDiffStatesDetectsChanges(t *testing.T) {
	base := &stateSpec{Enum: "game_status", Initial: "scheduled", Terminal: []string{"final", "cancelled"}}
	changed := &stateSpec{Enum: "game_status", Initial: "in_progress", Terminal: []string{"final", "cancelled"}}
	if msg := diffStates("Game", base, changed); msg == "" {
		t.Fatal("expected initial change detected")
	}
	if msg := diffStates("Game", base, nil); !strings.Contains(msg, "states removed") {
		t.Fatalf("expected states removal reported, got %q", msg)
	}
	trimmed := &stateSpec{Enum: "game_status", Initial: "scheduled", Terminal: []string{"final"}}
	if msg := diffStates("Game", base, trimmed); !strings.Contains(msg, "terminal states changed") {
		t.Fatalf("expected terminal change reported, got %q", msg)
	}
}

func TestComputeFingerprintSortsDeterministically(t *testing.T) {
	doc := schemaDoc{
		Version: "1.1.0",
		Enums: map[string]enumSpec{
			"game_status": {Values: []string{"scheduled", "final"}},
		},
		Entities: map[string]entitySpec{
			"Venue": {
				Required: []string{"name", "city", "id"},
				Properties: map[string]json.RawMessage{
					"name": json.RawMessage(`{"type":"string"}`),
					"city": json.RawMessage(`{"type":"string"}`),
					"id":   json.RawMessage(`{"type":"string"}`),
				},
				NaturalKeys: []naturalKeySpec{
					{Fields: []string{"name", "city"}, Scope: "global"},
				},
				Relationships: map[string]relationshipSpec{
					"home_team_ids": {Target: "Team", Cardinality: "0..n", Storage: "derived"},
				},
				Invariants: []string{"zeta", "alpha"},
			},
		},
	}
	fp := computeFingerprint(doc)
	vals := fp.Enums["game_status"]
	if vals[0] != "final" || vals[1] != "scheduled" {
		t.Fatalf("expected enum values sorted, got %v", vals)
	}
	venue := fp.Entities["Venue"]
	if venue.Properties[0] != "city" || venue.Properties[1] != "id" || venue.Properties[2] != "name" {
		t.Fatalf("expected property keys sorted, got %v", venue.Properties)
	}
	if venue.Required[0] != "city" {
		t.Fatalf("expected required fields sorted, got %v", venue.Required)
	}
	if venue.Invariants[0] != "alpha" {
		t.Fatalf("expected invariants sorted, got %v", venue.Invariants)
	}
	if len(venue.NaturalKeys) != 1 || venue.NaturalKeys[0] != "name+city" {
		t.Fatalf("expected natural key joined in declaration order, got %v", venue.NaturalKeys)
	}
}

func TestDiffFingerprintsVersionAndRelationshipChange(t *testing.T) {
	baseline := fingerprintDoc{
		Version: "1.0.0",
		Enums:   map[string][]string{"game_status": {"scheduled"}},
		Entities: map[string]entityFingerprint{
			"Game": {
				Properties: []string{"id"},
				Required:   []string{"id"},
				Relationships: map[string]relationshipFingerprint{
					"season_id": {Target: "Season", Cardinality: "1..1", Storage: "fk"},
				},
			},
		},
	}
	current := fingerprintDoc{
		Version: "2.0.0",
		Enums:   map[string][]string{"game_status": {"scheduled"}},
		Entities: map[string]entityFingerprint{
			"Game": {
				Properties: []string{"id"},
				Required:   []string{"id"},
				Relationships: map[string]relationshipFingerprint{
					"season_id": {Target: "Season", Cardinality: "0..1", Storage: "fk"},
				},
			},
		},
	}
	issues := diffFingerprints(baseline, current)
	joined := strings.Join(issues, "\n")
	if !strings.Contains(joined, "schema version changed") {
		t.Fatalf("expected schema version change reported, got %v", issues)
	}
	if !strings.Contains(joined, "relationship changed") {
		t.Fatalf("expected relationship change reported, got %v", issues)
	}
}

func TestFingerprintAdditionsPass(t *testing.T) {
	baseline := fingerprintDoc{
		Version: "1.0.0",
		Enums:   map[string][]string{"game_status": {"scheduled"}},
		Entities: map[string]entityFingerprint{
			"Game": {Properties: []string{"id"}, Required: []string{"id"}},
		},
	}
	current := fingerprintDoc{
		Version: "1.0.0",
		Enums:   map[string][]string{"game_status": {"final", "scheduled"}},
		Entities: map[string]entityFingerprint{
			"Game":  {Properties: []string{"attendance", "id"}, Required: []string{"id"}},
			"Venue": {Properties: []string{"id"}, Required: []string{"id"}},
		},
	}
	if issues := diffFingerprints(baseline, current); len(issues) != 0 {
		t.Fatalf("additive changes must pass, got %v", issues)
	}
}

func TestLoadAndWriteFingerprintRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprint.json")
	input := fingerprintDoc{Version: "1.0.0", Enums: map[string][]string{}, Entities: map[string]entityFingerprint{}}
	if err := writeFingerprint(path, input); err != nil {
		t.Fatalf("write fingerprint: %v", err)
	}
	loaded, err := loadFingerprint(path)
	if err != nil {
		t.Fatalf("load fingerprint: %v", err)
	}
	if loaded.Version != input.Version {
		t.Fatalf("expected version %s, got %s", input.Version, loaded.Version)
	}
}

func TestLoadSchemaReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	schema := `{"version":"1.0.0","enums":{},"entities":{}}`
	if err := os.WriteFile(path, []byte(schema), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if _, err := loadSchema(path); err != nil {
		t.Fatalf("load schema: %v", err)
	}
}

func TestLoadFingerprintParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fingerprint.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("write invalid fingerprint: %v", err)
	}
	if _, err := loadFingerprint(path); err == nil {
		t.Fatalf("expected parse error for fingerprint")
	}
}

func TestCommittedFingerprintMatchesSchema(t *testing.T) {
	root := repoRoot(t)

	doc, err := loadSchema(filepath.Join(root, "docs", "schema", "entity-model.json"))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	baseline, err := loadFingerprint(filepath.Join(root, "docs", "schema", "entity-model.fingerprint.json"))
	if err != nil {
		t.Fatalf("load fingerprint: %v", err)
	}

	current := computeFingerprint(doc)
	if issues := diffFingerprints(baseline, current); len(issues) != 0 {
		t.Fatalf("committed fingerprint out of date; run model-check -write: %v", issues)
	}
	if baseline.Version != current.Version {
		t.Fatalf("fingerprint version %s does not match schema version %s", baseline.Version, current.Version)
	}

	for _, entity := range []string{"League", "Season", "Team", "Player", "Game", "Venue"} {
		if _, ok := current.Entities[entity]; !ok {
			t.Fatalf("schema is missing entity %s", entity)
		}
	}
	for _, enum := range []string{"game_status", "player_status"} {
		if _, ok := current.Enums[enum]; !ok {
			t.Fatalf("schema is missing enum %s", enum)
		}
	}
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

func TestExitErrWritesAndExits(t *testing.T) {
	var capturedCode int
	exitFunc = func(code int) { capturedCode = code }
	defer func() { exitFunc = os.Exit }()

	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}
	originalStderr := os.Stderr
	os.Stderr = writer
	defer func() { os.Stderr = originalStderr }()

	exitErr(errors.New("fingerprint mismatch"))

	_ = writer.Close()
	out, readErr := io.ReadAll(reader)
	if readErr != nil {
		t.Fatalf("read stderr: %v", readErr)
	}
	if capturedCode != 1 {
		t.Fatalf("expected exit code 1, got %d", capturedCode)
	}
	if !strings.Contains(string(out), "fingerprint mismatch") {
		t.Fatalf("expected error output, got %q", string(out))
	}
}
