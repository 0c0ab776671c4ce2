package domain

// FieldKind describes the coercion target of an importable field.
type FieldKind string

// Field kinds supported by the import coercion layer.
const (
	FieldString FieldKind = "string"
	FieldInt    FieldKind = "int"
	FieldFloat  FieldKind = "float"
	FieldBool   FieldKind = "bool"
	FieldDate   FieldKind = "date"
)

// FieldSpec describes a single importable field of an entity: its canonical
// name, the kind raw values are coerced to, and whether creation requires it.
type FieldSpec struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

var catalog = map[EntityType][]FieldSpec{
	EntityLeague: {
		{Name: "code", Kind: FieldString, Required: true},
		{Name: "name", Kind: FieldString, Required: true},
		{Name: "sport", Kind: FieldString, Required: true},
		{Name: "country", Kind: FieldString},
	},
	EntitySeason: {
		{Name: "name", Kind: FieldString, Required: true},
		{Name: "league_id", Kind: FieldString, Required: true},
		{Name: "start_date", Kind: FieldDate, Required: true},
		{Name: "end_date", Kind: FieldDate, Required: true},
	},
	EntityTeam: {
		{Name: "code", Kind: FieldString, Required: true},
		{Name: "name", Kind: FieldString, Required: true},
		{Name: "league_id", Kind: FieldString, Required: true},
		{Name: "venue_id", Kind: FieldString},
		{Name: "coach", Kind: FieldString},
		{Name: "founded_year", Kind: FieldInt},
		{Name: "roster_limit", Kind: FieldInt},
	},
	EntityPlayer: {
		{Name: "name", Kind: FieldString, Required: true},
		{Name: "position", Kind: FieldString, Required: true},
		{Name: "jersey_number", Kind: FieldInt},
		{Name: "status", Kind: FieldString},
		{Name: "team_id", Kind: FieldString},
		{Name: "birth_date", Kind: FieldDate},
		{Name: "nationality", Kind: FieldString},
		{Name: "height_cm", Kind: FieldInt},
		{Name: "weight_kg", Kind: FieldFloat},
	},
	EntityGame: {
		{Name: "season_id", Kind: FieldString, Required: true},
		{Name: "home_team_id", Kind: FieldString, Required: true},
		{Name: "away_team_id", Kind: FieldString, Required: true},
		{Name: "venue_id", Kind: FieldString},
		{Name: "scheduled_at", Kind: FieldDate, Required: true},
		{Name: "status", Kind: FieldString},
		{Name: "round", Kind: FieldInt},
		{Name: "home_score", Kind: FieldInt},
		{Name: "away_score", Kind: FieldInt},
		{Name: "attendance", Kind: FieldInt},
	},
	EntityVenue: {
		{Name: "name", Kind: FieldString, Required: true},
		{Name: "city", Kind: FieldString, Required: true},
		{Name: "country", Kind: FieldString},
		{Name: "capacity", Kind: FieldInt},
		{Name: "surface", Kind: FieldString},
		{Name: "opened_year", Kind: FieldInt},
	},
}

// Catalog returns the importable field specs of entity in canonical order.
// The returned slice is a copy and safe to mutate.
func Catalog(entity EntityType) []FieldSpec {
	specs, ok := catalog[entity]
	if !ok {
		return nil
	}
	out := make([]FieldSpec, len(specs))
	copy(out, specs)
	return out
}

// CatalogField looks up a single field spec by its canonical name.
func CatalogField(entity EntityType, name string) (FieldSpec, bool) {
	for _, spec := range catalog[entity] {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// RequiredFields returns the canonical names of fields that must be present
// when creating an entity of the given type.
func RequiredFields(entity EntityType) []string {
	var out []string
	for _, spec := range catalog[entity] {
		if spec.Required {
			out = append(out, spec.Name)
		}
	}
	return out
}
