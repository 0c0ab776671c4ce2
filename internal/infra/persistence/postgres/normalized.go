package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"rostercore/internal/entitymodel/sqlbundle"
	"rostercore/internal/infra/persistence/memory"
	"rostercore/pkg/domain"
)

// execContexter is the statement surface shared by sql.DB and sql.Tx.
type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queryContexter is the query surface shared by sql.DB and sql.Tx.
type queryContexter interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// entityTables lists every normalized table in parent-first insert order.
var entityTables = []string{"leagues", "venues", "seasons", "teams", "players", "games"}

// applyDDLStatements executes each statement of a DDL bundle in order.
func applyDDLStatements(ctx context.Context, exec execContexter, ddl string) error {
	for _, stmt := range sqlbundle.SplitStatements(ddl) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := exec.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// persistNormalized rewrites every entity table from the snapshot inside a
// single transaction. Derived ID lists are not persisted; they are recomputed
// from inverse foreign keys when the snapshot is imported.
func persistNormalized(ctx context.Context, db *sql.DB, snapshot memory.Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(entityTables, ", ")); err != nil {
		return fmt.Errorf("truncate entity tables: %w", err)
	}
	if err := insertLeagues(ctx, tx, snapshot.Leagues); err != nil {
		return err
	}
	if err := insertVenues(ctx, tx, snapshot.Venues); err != nil {
		return err
	}
	if err := insertSeasons(ctx, tx, snapshot.Seasons); err != nil {
		return err
	}
	if err := insertTeams(ctx, tx, snapshot.Teams); err != nil {
		return err
	}
	if err := insertPlayers(ctx, tx, snapshot.Players); err != nil {
		return err
	}
	if err := insertGames(ctx, tx, snapshot.Games); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func insertLeagues(ctx context.Context, exec execContexter, leagues map[string]domain.League) error {
	for _, id := range sortedIDs(leagues) {
		league := leagues[id]
		attrs, err := marshalJSONNullable(league.Attributes)
		if err != nil {
			return fmt.Errorf("marshal league %s attributes: %w", id, err)
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO leagues (id, created_at, updated_at, code, name, sport, country, attributes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			league.ID, league.CreatedAt, league.UpdatedAt, league.Code, league.Name, league.Sport, league.Country, attrs); err != nil {
			return fmt.Errorf("insert league %s: %w", id, err)
		}
	}
	return nil
}

func insertVenues(ctx context.Context, exec execContexter, venues map[string]domain.Venue) error {
	for _, id := range sortedIDs(venues) {
		venue := venues[id]
		attrs, err := marshalJSONNullable(venue.Attributes)
		if err != nil {
			return fmt.Errorf("marshal venue %s attributes: %w", id, err)
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO venues (id, created_at, updated_at, name, city, country, capacity, surface, opened_year, attributes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			venue.ID, venue.CreatedAt, venue.UpdatedAt, venue.Name, venue.City, venue.Country, venue.Capacity, venue.Surface, venue.OpenedYear, attrs); err != nil {
			return fmt.Errorf("insert venue %s: %w", id, err)
		}
	}
	return nil
}

func insertSeasons(ctx context.Context, exec execContexter, seasons map[string]domain.Season) error {
	for _, id := range sortedIDs(seasons) {
		season := seasons[id]
		if season.LeagueID == "" {
			return fmt.Errorf("season %s missing league_id", id)
		}
		attrs, err := marshalJSONNullable(season.Attributes)
		if err != nil {
			return fmt.Errorf("marshal season %s attributes: %w", id, err)
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO seasons (id, created_at, updated_at, name, league_id, start_date, end_date, attributes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			season.ID, season.CreatedAt, season.UpdatedAt, season.Name, season.LeagueID, season.StartDate, season.EndDate, attrs); err != nil {
			return fmt.Errorf("insert season %s: %w", id, err)
		}
	}
	return nil
}

func insertTeams(ctx context.Context, exec execContexter, teams map[string]domain.Team) error {
	for _, id := range sortedIDs(teams) {
		team := teams[id]
		if team.LeagueID == "" {
			return fmt.Errorf("team %s missing league_id", id)
		}
		attrs, err := marshalJSONNullable(team.Attributes)
		if err != nil {
			return fmt.Errorf("marshal team %s attributes: %w", id, err)
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO teams (id, created_at, updated_at, code, name, league_id, venue_id, coach, founded_year, roster_limit, attributes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			team.ID, team.CreatedAt, team.UpdatedAt, team.Code, team.Name, team.LeagueID, team.VenueID, team.Coach, team.FoundedYear, team.RosterLimit, attrs); err != nil {
			return fmt.Errorf("insert team %s: %w", id, err)
		}
	}
	return nil
}

func insertPlayers(ctx context.Context, exec execContexter, players map[string]domain.Player) error {
	for _, id := range sortedIDs(players) {
		player := players[id]
		attrs, err := marshalJSONNullable(player.Attributes)
		if err != nil {
			return fmt.Errorf("marshal player %s attributes: %w", id, err)
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO players (id, created_at, updated_at, name, position, jersey_number, status, team_id, birth_date, nationality, height_cm, weight_kg, attributes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			player.ID, player.CreatedAt, player.UpdatedAt, player.Name, player.Position, player.JerseyNumber, string(player.Status), player.TeamID, player.BirthDate, player.Nationality, player.HeightCM, player.WeightKG, attrs); err != nil {
			return fmt.Errorf("insert player %s: %w", id, err)
		}
	}
	return nil
}

func insertGames(ctx context.Context, exec execContexter, games map[string]domain.Game) error {
	for _, id := range sortedIDs(games) {
		game := games[id]
		if game.SeasonID == "" {
			return fmt.Errorf("game %s missing season_id", id)
		}
		if game.HomeTeamID == "" {
			return fmt.Errorf("game %s missing home_team_id", id)
		}
		if game.AwayTeamID == "" {
			return fmt.Errorf("game %s missing away_team_id", id)
		}
		attrs, err := marshalJSONNullable(game.Attributes)
		if err != nil {
			return fmt.Errorf("marshal game %s attributes: %w", id, err)
		}
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO games (id, created_at, updated_at, season_id, home_team_id, away_team_id, venue_id, scheduled_at, status, round, home_score, away_score, attendance, attributes) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			game.ID, game.CreatedAt, game.UpdatedAt, game.SeasonID, game.HomeTeamID, game.AwayTeamID, game.VenueID, game.ScheduledAt, string(game.Status), game.Round, game.HomeScore, game.AwayScore, game.Attendance, attrs); err != nil {
			return fmt.Errorf("insert game %s: %w", id, err)
		}
	}
	return nil
}

// loadNormalizedSnapshot rebuilds a snapshot from the normalized tables and
// validates required joins. Optional dangling references are left for the
// snapshot migration to repair on import.
func loadNormalizedSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	leagues, err := loadLeagues(ctx, db)
	if err != nil {
		return memory.Snapshot{}, err
	}
	venues, err := loadVenues(ctx, db)
	if err != nil {
		return memory.Snapshot{}, err
	}
	seasons, err := loadSeasons(ctx, db)
	if err != nil {
		return memory.Snapshot{}, err
	}
	teams, err := loadTeams(ctx, db)
	if err != nil {
		return memory.Snapshot{}, err
	}
	players, err := loadPlayers(ctx, db)
	if err != nil {
		return memory.Snapshot{}, err
	}
	games, err := loadGames(ctx, db)
	if err != nil {
		return memory.Snapshot{}, err
	}

	for _, id := range sortedIDs(seasons) {
		if _, ok := leagues[seasons[id].LeagueID]; !ok {
			return memory.Snapshot{}, fmt.Errorf("season %s references missing league_id %s", id, seasons[id].LeagueID)
		}
	}
	for _, id := range sortedIDs(teams) {
		if _, ok := leagues[teams[id].LeagueID]; !ok {
			return memory.Snapshot{}, fmt.Errorf("team %s references missing league_id %s", id, teams[id].LeagueID)
		}
	}
	for _, id := range sortedIDs(games) {
		game := games[id]
		if _, ok := seasons[game.SeasonID]; !ok {
			return memory.Snapshot{}, fmt.Errorf("game %s references missing season_id %s", id, game.SeasonID)
		}
		if _, ok := teams[game.HomeTeamID]; !ok {
			return memory.Snapshot{}, fmt.Errorf("game %s references missing home_team_id %s", id, game.HomeTeamID)
		}
		if _, ok := teams[game.AwayTeamID]; !ok {
			return memory.Snapshot{}, fmt.Errorf("game %s references missing away_team_id %s", id, game.AwayTeamID)
		}
	}

	return memory.Snapshot{
		Leagues: leagues,
		Seasons: seasons,
		Teams:   teams,
		Players: players,
		Games:   games,
		Venues:  venues,
	}, nil
}

func loadLeagues(ctx context.Context, q queryContexter) (map[string]domain.League, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, created_at, updated_at, code, name, sport, country, attributes FROM leagues`)
	if err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.League{}
	for rows.Next() {
		var (
			league  domain.League
			country sql.NullString
			attrs   []byte
		)
		if err := rows.Scan(&league.ID, &league.CreatedAt, &league.UpdatedAt, &league.Code, &league.Name, &league.Sport, &country, &attrs); err != nil {
			return nil, fmt.Errorf("scan league: %w", err)
		}
		league.Country = nullableString(country)
		if league.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode league %s attributes: %w", league.ID, err)
		}
		out[league.ID] = league
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leagues: %w", err)
	}
	return out, nil
}

func loadVenues(ctx context.Context, q queryContexter) (map[string]domain.Venue, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, created_at, updated_at, name, city, country, capacity, surface, opened_year, attributes FROM venues`)
	if err != nil {
		return nil, fmt.Errorf("select venues: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.Venue{}
	for rows.Next() {
		var (
			venue      domain.Venue
			country    sql.NullString
			capacity   int64
			surface    sql.NullString
			openedYear sql.NullInt64
			attrs      []byte
		)
		if err := rows.Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt, &venue.Name, &venue.City, &country, &capacity, &surface, &openedYear, &attrs); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venue.Country = nullableString(country)
		venue.Capacity = int(capacity)
		venue.Surface = nullableString(surface)
		venue.OpenedYear = nullableInt(openedYear)
		if venue.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode venue %s attributes: %w", venue.ID, err)
		}
		out[venue.ID] = venue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venues: %w", err)
	}
	return out, nil
}

func loadSeasons(ctx context.Context, q queryContexter) (map[string]domain.Season, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, created_at, updated_at, name, league_id, start_date, end_date, attributes FROM seasons`)
	if err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.Season{}
	for rows.Next() {
		var (
			season domain.Season
			attrs  []byte
		)
		if err := rows.Scan(&season.ID, &season.CreatedAt, &season.UpdatedAt, &season.Name, &season.LeagueID, &season.StartDate, &season.EndDate, &attrs); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		if season.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode season %s attributes: %w", season.ID, err)
		}
		out[season.ID] = season
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return out, nil
}

func loadTeams(ctx context.Context, q queryContexter) (map[string]domain.Team, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, created_at, updated_at, code, name, league_id, venue_id, coach, founded_year, roster_limit, attributes FROM teams`)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.Team{}
	for rows.Next() {
		var (
			team        domain.Team
			venueID     sql.NullString
			coach       sql.NullString
			foundedYear sql.NullInt64
			rosterLimit int64
			attrs       []byte
		)
		if err := rows.Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt, &team.Code, &team.Name, &team.LeagueID, &venueID, &coach, &foundedYear, &rosterLimit, &attrs); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		team.VenueID = nullableString(venueID)
		team.Coach = nullableString(coach)
		team.FoundedYear = nullableInt(foundedYear)
		team.RosterLimit = int(rosterLimit)
		if team.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode team %s attributes: %w", team.ID, err)
		}
		out[team.ID] = team
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return out, nil
}

func loadPlayers(ctx context.Context, q queryContexter) (map[string]domain.Player, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, created_at, updated_at, name, position, jersey_number, status, team_id, birth_date, nationality, height_cm, weight_kg, attributes FROM players`)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.Player{}
	for rows.Next() {
		var (
			player      domain.Player
			jersey      sql.NullInt64
			status      string
			teamID      sql.NullString
			birthDate   sql.NullTime
			nationality sql.NullString
			heightCM    sql.NullInt64
			weightKG    sql.NullFloat64
			attrs       []byte
		)
		if err := rows.Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt, &player.Name, &player.Position, &jersey, &status, &teamID, &birthDate, &nationality, &heightCM, &weightKG, &attrs); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		player.JerseyNumber = nullableInt(jersey)
		player.Status = domain.PlayerStatus(status)
		player.TeamID = nullableString(teamID)
		player.BirthDate = nullableTime(birthDate)
		player.Nationality = nullableString(nationality)
		player.HeightCM = nullableInt(heightCM)
		player.WeightKG = nullableFloat(weightKG)
		if player.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode player %s attributes: %w", player.ID, err)
		}
		out[player.ID] = player
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return out, nil
}

func loadGames(ctx context.Context, q queryContexter) (map[string]domain.Game, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, created_at, updated_at, season_id, home_team_id, away_team_id, venue_id, scheduled_at, status, round, home_score, away_score, attendance, attributes FROM games`)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.Game{}
	for rows.Next() {
		var (
			game       domain.Game
			venueID    sql.NullString
			status     string
			round      sql.NullInt64
			homeScore  sql.NullInt64
			awayScore  sql.NullInt64
			attendance sql.NullInt64
			attrs      []byte
		)
		if err := rows.Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt, &game.SeasonID, &game.HomeTeamID, &game.AwayTeamID, &venueID, &game.ScheduledAt, &status, &round, &homeScore, &awayScore, &attendance, &attrs); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		game.VenueID = nullableString(venueID)
		game.Status = domain.GameStatus(status)
		game.Round = nullableInt(round)
		game.HomeScore = nullableInt(homeScore)
		game.AwayScore = nullableInt(awayScore)
		game.Attendance = nullableInt(attendance)
		if game.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, fmt.Errorf("decode game %s attributes: %w", game.ID, err)
		}
		out[game.ID] = game
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return out, nil
}

// marshalJSONNullable renders an attribute map for a JSONB column, mapping
// empty to NULL.
func marshalJSONNullable(attrs map[string]any) (any, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func decodeAttributes(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
