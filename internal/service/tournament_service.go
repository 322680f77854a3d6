package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/engine"
	"github.com/AdamBeresnev/lan-tournament/internal/store"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	opts  options
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, opts ...Option) *TournamentService {
	return &TournamentService{db: db, store: store, opts: buildOptions(opts)}
}

func (s *TournamentService) CreateTournament(ctx context.Context, name string, maxTeams, teamsPerMatch int) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, tournament.Validationf("tournament name is required")
	}
	if maxTeams < 2 {
		return uuid.Nil, tournament.Validationf("a tournament needs room for at least 2 teams, got %d", maxTeams)
	}
	if teamsPerMatch < 2 {
		return uuid.Nil, tournament.Validationf("a match needs at least 2 teams, got %d", teamsPerMatch)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	t := tournament.Tournament{
		ID:            uuid.New(),
		Name:          name,
		MaxTeams:      maxTeams,
		TeamsPerMatch: teamsPerMatch,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateTournament(ctx, tx, &t); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	return t.ID, tx.Commit()
}

// AddTeam registers an unvalidated team. seed 0 leaves it unseeded.
func (s *TournamentService) AddTeam(ctx context.Context, tournamentID uuid.UUID, name string, seed int) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, tournament.Validationf("team name is required")
	}
	if seed < 0 {
		return uuid.Nil, tournament.Validationf("seed must not be negative, got %d", seed)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	t, err := s.store.GetTournament(ctx, tx, tournamentID)
	if err != nil {
		return uuid.Nil, err
	}
	teams, err := s.store.ListTeams(ctx, tx, tournamentID, false)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get teams: %w", err)
	}
	team, err := s.insertTeam(ctx, tx, t, teams, name, seed)
	if err != nil {
		return uuid.Nil, err
	}

	return team.ID, tx.Commit()
}

// insertTeam adds a team next to the already registered ones, enforcing the
// tournament size and unique names.
func (s *TournamentService) insertTeam(ctx context.Context, tx *sqlx.Tx, t *tournament.Tournament, teams []tournament.Team, name string, seed int) (*tournament.Team, error) {
	if len(teams) >= t.MaxTeams {
		return nil, tournament.Conflictf("tournament %s is full with %d teams", t.ID, t.MaxTeams)
	}
	for _, other := range teams {
		if strings.EqualFold(other.Name, name) {
			return nil, tournament.Conflictf("team name %q is taken", name)
		}
	}

	team := tournament.Team{
		ID:           uuid.New(),
		TournamentID: t.ID,
		Name:         name,
		Seed:         seed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateTeam(ctx, tx, &team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &team, nil
}

func (s *TournamentService) ValidateTeam(ctx context.Context, teamID uuid.UUID, validated bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.SetTeamValidated(ctx, tx, teamID, validated); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*tournament.Tournament, error) {
	return s.store.GetTournament(ctx, nil, id)
}

func (s *TournamentService) ListTeams(ctx context.Context, tournamentID uuid.UUID) ([]tournament.Team, error) {
	if _, err := s.store.GetTournament(ctx, nil, tournamentID); err != nil {
		return nil, err
	}
	return s.store.ListTeams(ctx, nil, tournamentID, false)
}

func (s *TournamentService) ListStages(ctx context.Context, tournamentID uuid.UUID) ([]tournament.Stage, error) {
	if _, err := s.store.GetTournament(ctx, nil, tournamentID); err != nil {
		return nil, err
	}
	return s.store.ListStages(ctx, nil, tournamentID)
}

// BracketWinner reports the winner of a bracket once its final is completed.
func (s *TournamentService) BracketWinner(ctx context.Context, stageID uuid.UUID) (uuid.UUID, bool, error) {
	stage, err := s.store.GetStage(ctx, nil, stageID)
	if err != nil {
		return uuid.Nil, false, err
	}
	if stage.Kind != tournament.KindBracket {
		return uuid.Nil, false, tournament.Validationf("stage %s is a %s, not a bracket", stageID, stage.Kind)
	}
	matches, err := s.store.ListStageMatches(ctx, nil, stageID)
	if err != nil {
		return uuid.Nil, false, err
	}
	winner, ok := engine.BracketWinner(*stage, matches)
	return winner, ok, nil
}

func (s *TournamentService) GroupLeaderboard(ctx context.Context, stageID uuid.UUID) ([]engine.Standing, error) {
	stage, err := s.store.GetStage(ctx, nil, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Kind != tournament.KindGroup {
		return nil, tournament.Validationf("stage %s is a %s, not a group", stageID, stage.Kind)
	}
	seedings, err := s.store.ListSeedings(ctx, nil, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seedings: %w", err)
	}
	matches, err := s.store.ListStageMatches(ctx, nil, stageID)
	if err != nil {
		return nil, err
	}
	return engine.Leaderboard(seedings, matches), nil
}

func (s *TournamentService) SwissStandings(ctx context.Context, stageID uuid.UUID) ([]engine.SwissRecord, error) {
	stage, err := s.store.GetStage(ctx, nil, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Kind != tournament.KindSwiss {
		return nil, tournament.Validationf("stage %s is a %s, not a swiss round", stageID, stage.Kind)
	}
	seedings, err := s.store.ListSeedings(ctx, nil, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seedings: %w", err)
	}
	matches, err := s.store.ListStageMatches(ctx, nil, stageID)
	if err != nil {
		return nil, err
	}
	return engine.SwissStandings(*stage, seededTeams(seedings), matches), nil
}

func seededTeams(seedings []tournament.Seeding) []uuid.UUID {
	ids := make([]uuid.UUID, len(seedings))
	for i, s := range seedings {
		ids[i] = s.TeamID
	}
	return ids
}

func seedingsFor(stageID uuid.UUID, teams []uuid.UUID) []tournament.Seeding {
	out := make([]tournament.Seeding, len(teams))
	for i, id := range teams {
		out[i] = tournament.Seeding{StageID: stageID, TeamID: id, Seeding: i + 1}
	}
	return out
}

func logStage(msg string, stage *tournament.Stage, matches int) {
	slog.Info(msg,
		"tournament_id", stage.TournamentID,
		"stage_id", stage.ID,
		"kind", stage.Kind,
		"bo_type", stage.BoType.String(),
		"matches", matches,
	)
}
