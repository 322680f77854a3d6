package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/engine"
	"github.com/AdamBeresnev/lan-tournament/internal/metrics"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketParams struct {
	TournamentID uuid.UUID
	Name         string
	TeamCount    int
	BracketType  tournament.BracketType
	BoType       tournament.BoType
	// Teams seeds the bracket in this order, best first. When empty the best seeded
	// validated teams fill it.
	Teams []uuid.UUID
}

type GroupParams struct {
	TournamentID  uuid.UUID
	Count         int
	TeamsPerGroup int
	Names         []string
	UseSeeding    bool
	BoType        tournament.BoType
}

type SwissParams struct {
	TournamentID uuid.UUID
	Name         string
	MinScore     int
	UseSeeding   bool
	BoType       tournament.BoType
}

func (s *TournamentService) CreateBracket(ctx context.Context, p BracketParams) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	t, teams, err := s.roster(ctx, tx, p.TournamentID)
	if err != nil {
		return uuid.Nil, err
	}
	if p.TeamCount > len(teams) {
		return uuid.Nil, tournament.Validationf("bracket of %d teams but only %d teams are validated", p.TeamCount, len(teams))
	}
	if p.TeamCount > t.MaxTeams {
		return uuid.Nil, tournament.Validationf("bracket of %d teams exceeds the tournament maximum of %d", p.TeamCount, t.MaxTeams)
	}

	seeded := p.Teams
	if len(seeded) == 0 {
		engine.SortBySeed(teams)
		for _, team := range teams[:min(p.TeamCount, len(teams))] {
			seeded = append(seeded, team.ID)
		}
	} else if err := checkRoster(teams, seeded); err != nil {
		return uuid.Nil, err
	}

	stage := tournament.Stage{
		ID:            uuid.New(),
		TournamentID:  t.ID,
		Kind:          tournament.KindBracket,
		Name:          orDefault(p.Name, "Bracket"),
		BoType:        p.BoType,
		TeamsPerMatch: t.TeamsPerMatch,
		BracketType:   p.BracketType,
		TeamCount:     p.TeamCount,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.insertStage(ctx, tx, &stage, seeded); err != nil {
		return uuid.Nil, err
	}

	return stage.ID, tx.Commit()
}

// SeedBracket replaces the teams of a bracket that has not started, best first.
func (s *TournamentService) SeedBracket(ctx context.Context, stageID uuid.UUID, teamIDs []uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stage, err := s.store.GetStage(ctx, tx, stageID)
	if err != nil {
		return err
	}
	if stage.Kind != tournament.KindBracket {
		return tournament.Validationf("stage %s is a %s, not a bracket", stageID, stage.Kind)
	}
	if err := s.ensureNotStarted(ctx, tx, stageID); err != nil {
		return err
	}
	_, teams, err := s.roster(ctx, tx, stage.TournamentID)
	if err != nil {
		return err
	}
	if err := checkRoster(teams, teamIDs); err != nil {
		return err
	}

	matches, err := s.store.ListStageMatches(ctx, tx, stageID)
	if err != nil {
		return err
	}
	if err := engine.SeedBracket(*stage, matches, teamIDs); err != nil {
		return err
	}
	for _, m := range engine.RoundMatches(matches, tournament.WinnerSet, 0, stage.Depth()) {
		if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
			return err
		}
	}
	if err := s.store.DeleteSeedings(ctx, tx, stageID); err != nil {
		return fmt.Errorf("failed to clear seedings: %w", err)
	}
	if err := s.store.CreateSeedings(ctx, tx, seedingsFor(stageID, teamIDs)); err != nil {
		return fmt.Errorf("failed to create seedings: %w", err)
	}

	return tx.Commit()
}

// CreateGroups splits the validated teams into count round-robin groups.
func (s *TournamentService) CreateGroups(ctx context.Context, p GroupParams) ([]uuid.UUID, error) {
	if len(p.Names) != 0 && len(p.Names) != p.Count {
		return nil, tournament.Validationf("%d names given for %d groups", len(p.Names), p.Count)
	}
	if p.Count < 1 || p.TeamsPerGroup < 2 {
		return nil, tournament.Validationf("need at least one group of 2 teams, got %d groups of %d", p.Count, p.TeamsPerGroup)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, teams, err := s.roster(ctx, tx, p.TournamentID)
	if err != nil {
		return nil, err
	}
	if t.TeamsPerMatch != 2 {
		return nil, tournament.Validationf("groups need a tournament of 2 teams per match, tournament %s plays %d", t.ID, t.TeamsPerMatch)
	}
	if len(teams) < p.Count*2 || len(teams) > p.Count*p.TeamsPerGroup {
		return nil, tournament.Validationf("%d groups of up to %d teams need between %d and %d validated teams, got %d",
			p.Count, p.TeamsPerGroup, p.Count*2, p.Count*p.TeamsPerGroup, len(teams))
	}
	if len(teams) > t.MaxTeams {
		return nil, tournament.Validationf("%d validated teams exceed the tournament maximum of %d", len(teams), t.MaxTeams)
	}

	groups, err := engine.DistributeGroups(teams, p.Count, p.TeamsPerGroup, p.UseSeeding)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(groups))
	for g, members := range groups {
		name := fmt.Sprintf("Group %c", 'A'+rune(g%26))
		if len(p.Names) != 0 {
			name = orDefault(p.Names[g], name)
		}
		teamIDs := make([]uuid.UUID, len(members))
		for i, team := range members {
			teamIDs[i] = team.ID
		}

		stage := tournament.Stage{
			ID:            uuid.New(),
			TournamentID:  t.ID,
			Kind:          tournament.KindGroup,
			Name:          name,
			BoType:        p.BoType,
			TeamsPerMatch: t.TeamsPerMatch,
			TeamCount:     len(members),
			RoundCount:    engine.GroupRoundCount(len(members)),
			UseSeeding:    p.UseSeeding,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.insertStage(ctx, tx, &stage, teamIDs); err != nil {
			return nil, err
		}
		ids = append(ids, stage.ID)
	}

	return ids, tx.Commit()
}

// CreateSwissRound pairs every validated team in a swiss stage. Without seeding the
// teams are shuffled first.
func (s *TournamentService) CreateSwissRound(ctx context.Context, p SwissParams) (uuid.UUID, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	t, teams, err := s.roster(ctx, tx, p.TournamentID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(teams) > t.MaxTeams {
		return uuid.Nil, tournament.Validationf("%d validated teams exceed the tournament maximum of %d", len(teams), t.MaxTeams)
	}

	if p.UseSeeding {
		engine.SortBySeed(teams)
	} else {
		s.opts.rng.shuffle(len(teams), func(i, j int) { teams[i], teams[j] = teams[j], teams[i] })
	}
	ordered := make([]uuid.UUID, len(teams))
	for i, team := range teams {
		ordered[i] = team.ID
	}

	stage := tournament.Stage{
		ID:            uuid.New(),
		TournamentID:  t.ID,
		Kind:          tournament.KindSwiss,
		Name:          orDefault(p.Name, "Swiss"),
		BoType:        p.BoType,
		TeamsPerMatch: t.TeamsPerMatch,
		TeamCount:     len(teams),
		MinScore:      p.MinScore,
		UseSeeding:    p.UseSeeding,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.insertStage(ctx, tx, &stage, ordered); err != nil {
		return uuid.Nil, err
	}

	return stage.ID, tx.Commit()
}

// RegenerateStage throws away the matches of a stage that has not started and creates
// them again from its seedings with the given best-of type.
func (s *TournamentService) RegenerateStage(ctx context.Context, stageID uuid.UUID, boType tournament.BoType) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stage, err := s.store.GetStage(ctx, tx, stageID)
	if err != nil {
		return err
	}
	if err := s.ensureNotStarted(ctx, tx, stageID); err != nil {
		return err
	}
	seedings, err := s.store.ListSeedings(ctx, tx, stageID)
	if err != nil {
		return fmt.Errorf("failed to get seedings: %w", err)
	}

	stage.BoType = boType
	matches, err := buildMatches(*stage, seededTeams(seedings))
	if err != nil {
		return err
	}
	if err := s.store.DeleteStageMatches(ctx, tx, stageID); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	if err := s.store.UpdateStageBoType(ctx, tx, stageID, boType); err != nil {
		return err
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	metrics.MatchesGenerated.WithLabelValues(string(stage.Kind)).Add(float64(len(matches)))
	logStage("stage regenerated", stage, len(matches))
	return nil
}

// DeleteStage removes a stage that has not started, with its matches and seedings.
func (s *TournamentService) DeleteStage(ctx context.Context, stageID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.store.GetStage(ctx, tx, stageID); err != nil {
		return err
	}
	if err := s.ensureNotStarted(ctx, tx, stageID); err != nil {
		return err
	}
	if err := s.store.DeleteStage(ctx, tx, stageID); err != nil {
		return err
	}
	return tx.Commit()
}

// GenerateSwissRound pairs a swiss round from the results of the round before it.
func (s *TournamentService) GenerateSwissRound(ctx context.Context, stageID uuid.UUID, round int) ([]*tournament.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stage, err := s.store.GetStage(ctx, tx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Kind != tournament.KindSwiss {
		return nil, tournament.Validationf("stage %s is a %s, not a swiss round", stageID, stage.Kind)
	}
	matches, err := s.store.ListStageMatches(ctx, tx, stageID)
	if err != nil {
		return nil, err
	}

	var filled []*tournament.Match
	err = s.opts.rng.with(func(rng *rand.Rand) error {
		var err error
		filled, err = engine.FillSwissRound(*stage, matches, round, rng)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, m := range filled {
		if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	logStage(fmt.Sprintf("swiss round %d generated", round), stage, len(filled))
	return filled, nil
}

func (s *TournamentService) insertStage(ctx context.Context, tx *sqlx.Tx, stage *tournament.Stage, teams []uuid.UUID) error {
	if !stage.BoType.Valid() {
		return tournament.Validationf("invalid best-of type %d", stage.BoType)
	}
	matches, err := buildMatches(*stage, teams)
	if err != nil {
		return err
	}
	if err := s.store.CreateStage(ctx, tx, stage); err != nil {
		return fmt.Errorf("failed to create stage: %w", err)
	}
	if err := s.store.CreateSeedings(ctx, tx, seedingsFor(stage.ID, teams)); err != nil {
		return fmt.Errorf("failed to create seedings: %w", err)
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return err
	}

	metrics.MatchesGenerated.WithLabelValues(string(stage.Kind)).Add(float64(len(matches)))
	logStage("stage created", stage, len(matches))
	return nil
}

func buildMatches(stage tournament.Stage, teams []uuid.UUID) ([]tournament.Match, error) {
	switch stage.Kind {
	case tournament.KindBracket:
		matches, err := engine.NewBracketMatches(stage)
		if err != nil {
			return nil, err
		}
		if err := engine.SeedBracket(stage, matchPointers(matches), teams); err != nil {
			return nil, err
		}
		return matches, nil
	case tournament.KindGroup:
		return engine.NewGroupMatches(stage, teams)
	case tournament.KindSwiss:
		return engine.NewSwissMatches(stage, teams)
	}
	return nil, tournament.Invariantf("stage %s has unknown kind %q", stage.ID, stage.Kind)
}

// roster loads a tournament and its validated teams in registration order.
func (s *TournamentService) roster(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (*tournament.Tournament, []tournament.Team, error) {
	t, err := s.store.GetTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	teams, err := s.store.ListTeams(ctx, tx, tournamentID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get teams: %w", err)
	}
	return t, teams, nil
}

func (s *TournamentService) ensureNotStarted(ctx context.Context, tx *sqlx.Tx, stageID uuid.UUID) error {
	started, err := s.store.CountStartedMatches(ctx, tx, stageID)
	if err != nil {
		return fmt.Errorf("failed to check match status: %w", err)
	}
	if started > 0 {
		return tournament.Conflictf("stage %s already has %d ongoing or completed matches", stageID, started)
	}
	return nil
}

// checkRoster makes sure every team is validated and listed once.
func checkRoster(validated []tournament.Team, teamIDs []uuid.UUID) error {
	known := make(map[uuid.UUID]bool, len(validated))
	for _, team := range validated {
		known[team.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(teamIDs))
	for _, id := range teamIDs {
		if !known[id] {
			return tournament.Validationf("team %s is not a validated team of this tournament", id)
		}
		if seen[id] {
			return tournament.Validationf("team %s is listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

func matchPointers(matches []tournament.Match) []*tournament.Match {
	out := make([]*tournament.Match, len(matches))
	for i := range matches {
		out[i] = &matches[i]
	}
	return out
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
