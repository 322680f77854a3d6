package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/AdamBeresnev/lan-tournament/internal/engine"
	"github.com/AdamBeresnev/lan-tournament/internal/metrics"
	"github.com/AdamBeresnev/lan-tournament/internal/store"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	opts  options
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, opts ...Option) *MatchService {
	return &MatchService{db: db, store: store, opts: buildOptions(opts)}
}

// LaunchSelection picks the matches to launch: either a whole round, or an explicit
// list which skips the check that teams finished their earlier rounds.
type LaunchSelection struct {
	Round int
	// Set picks the side of a bracket, the winner side by default.
	Set      tournament.BracketSet
	MatchIDs []uuid.UUID
}

// ScoreSubmission is a result reported by one of the teams of a match. Round and
// index must match the stored match so stale clients are turned away.
type ScoreSubmission struct {
	MatchID      uuid.UUID
	RoundNumber  int
	IndexInRound int
	SubmittedBy  uuid.UUID
	Scores       map[uuid.UUID]int
	Times        []int
}

func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*tournament.Match, error) {
	return s.store.GetMatch(ctx, nil, id)
}

// LaunchMatches starts the selected matches. Matches with a single team are won by
// walkover and advance right away; empty ones are closed.
func (s *MatchService) LaunchMatches(ctx context.Context, stageID uuid.UUID, sel LaunchSelection) ([]*tournament.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stage, err := s.store.GetStage(ctx, tx, stageID)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.ListStageMatches(ctx, tx, stageID)
	if err != nil {
		return nil, err
	}

	explicit := len(sel.MatchIDs) > 0
	selected, err := selectMatches(stage, matches, sel)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(selected, func(a, b *tournament.Match) int {
		return cmp.Compare(engine.PlayOrder(*stage, a), engine.PlayOrder(*stage, b))
	})

	var dirty, completed []*tournament.Match
	for _, m := range selected {
		if m.Status != tournament.MatchScheduled {
			return nil, tournament.Validationf("match %s is %s, only scheduled matches can be launched", m.ID, m.Status)
		}
		if !explicit {
			if blocker := openEarlierMatch(stage, matches, m); blocker != nil {
				return nil, tournament.Conflictf("match %s waits on match %s from an earlier round", m.ID, blocker.ID)
			}
		}
		if err := checkSeated(stage, matches, m); err != nil {
			return nil, err
		}

		if err := m.Launch(); err != nil {
			return nil, err
		}
		dirty = appendOnce(dirty, m)
		if m.Status != tournament.MatchCompleted {
			continue
		}
		completed = append(completed, m)
		changed, err := s.advance(stage, matches, m)
		if err != nil {
			return nil, err
		}
		for _, c := range changed {
			dirty = appendOnce(dirty, c)
		}
	}

	for _, m := range dirty {
		if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
			return nil, err
		}
	}
	events, stageDone := completionEvents(stage, matches, completed)

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.MatchesLaunched.Add(float64(len(selected)))
	if stageDone {
		metrics.StagesCompleted.WithLabelValues(string(stage.Kind)).Inc()
	}
	slog.Info("matches launched", "stage_id", stageID, "launched", len(selected), "walkovers", len(completed))
	s.opts.publish(ctx, events)
	return selected, nil
}

// RecordScore stores the result of an ongoing match and advances its teams in the same
// transaction.
func (s *MatchService) RecordScore(ctx context.Context, sub ScoreSubmission) (*tournament.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stored, err := s.store.GetMatch(ctx, tx, sub.MatchID)
	if err != nil {
		return nil, err
	}
	if stored.RoundNumber != sub.RoundNumber || stored.IndexInRound != sub.IndexInRound {
		return nil, s.reject(tournament.Validationf("match %s is round %d index %d, submission names round %d index %d",
			stored.ID, stored.RoundNumber, stored.IndexInRound, sub.RoundNumber, sub.IndexInRound))
	}
	if sub.SubmittedBy == uuid.Nil || !stored.HasTeam(sub.SubmittedBy) {
		return nil, s.reject(tournament.Validationf("team %s is not assigned to match %s", sub.SubmittedBy, stored.ID))
	}

	stage, err := s.store.GetStage(ctx, tx, stored.Stage.ID)
	if err != nil {
		return nil, err
	}
	matches, err := s.store.ListStageMatches(ctx, tx, stage.ID)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(matches, func(m *tournament.Match) bool { return m.ID == stored.ID })
	if idx < 0 {
		return nil, tournament.Invariantf("match %s is missing from stage %s", stored.ID, stage.ID)
	}
	m := matches[idx]

	if err := m.RecordResult(sub.Times, sub.Scores); err != nil {
		return nil, s.reject(err)
	}
	changed, err := s.advance(stage, matches, m)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateMatch(ctx, tx, m); err != nil {
		return nil, err
	}
	for _, c := range changed {
		if err := s.store.UpdateMatch(ctx, tx, c); err != nil {
			return nil, err
		}
	}
	events, stageDone := completionEvents(stage, matches, []*tournament.Match{m})

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.ScoresRecorded.WithLabelValues("accepted").Inc()
	if stageDone {
		metrics.StagesCompleted.WithLabelValues(string(stage.Kind)).Inc()
	}
	slog.Info("score recorded", "match_id", m.ID, "stage_id", stage.ID, "submitted_by", sub.SubmittedBy, "advanced", len(changed))
	s.opts.publish(ctx, events)
	return m, nil
}

func (s *MatchService) reject(err error) error {
	metrics.ScoresRecorded.WithLabelValues("rejected").Inc()
	return err
}

func (s *MatchService) advance(stage *tournament.Stage, matches []*tournament.Match, m *tournament.Match) ([]*tournament.Match, error) {
	if stage.Kind != tournament.KindBracket {
		return nil, nil
	}
	changed, err := engine.Advance(*stage, matches, m)
	if err != nil {
		if errors.Is(err, tournament.ErrInvariant) {
			metrics.InvariantViolations.Inc()
			slog.Error("advance failed", "stage_id", stage.ID, "match_id", m.ID, "error", err)
		}
		return nil, fmt.Errorf("failed to advance match %s: %w", m.ID, err)
	}
	return changed, nil
}

func selectMatches(stage *tournament.Stage, matches []*tournament.Match, sel LaunchSelection) ([]*tournament.Match, error) {
	var selected []*tournament.Match
	if len(sel.MatchIDs) > 0 {
		for _, id := range sel.MatchIDs {
			idx := slices.IndexFunc(matches, func(m *tournament.Match) bool { return m.ID == id })
			if idx < 0 {
				return nil, tournament.NotFoundf("match %s in stage %s", id, stage.ID)
			}
			selected = appendOnce(selected, matches[idx])
		}
		return selected, nil
	}

	set := sel.Set
	if stage.Kind == tournament.KindBracket && set == "" {
		set = tournament.WinnerSet
	}
	for _, m := range matches {
		if m.RoundNumber == sel.Round && m.Stage.Set == set && m.Status == tournament.MatchScheduled {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return nil, tournament.Validationf("stage %s has no scheduled match in round %d", stage.ID, sel.Round)
	}
	return selected, nil
}

// openEarlierMatch finds an unfinished match of an earlier round that shares a team with m.
func openEarlierMatch(stage *tournament.Stage, matches []*tournament.Match, m *tournament.Match) *tournament.Match {
	order := engine.PlayOrder(*stage, m)
	for _, other := range matches {
		if other == m || other.Status == tournament.MatchCompleted || engine.PlayOrder(*stage, other) >= order {
			continue
		}
		for _, team := range m.TeamIDs() {
			if other.HasTeam(team) {
				return other
			}
		}
	}
	return nil
}

// checkSeated refuses to start a match that may still receive teams.
func checkSeated(stage *tournament.Stage, matches []*tournament.Match, m *tournament.Match) error {
	switch stage.Kind {
	case tournament.KindSwiss:
		if m.TeamCount() == 0 {
			return tournament.Conflictf("round %d of swiss stage %s has not been generated", m.RoundNumber, stage.ID)
		}
	case tournament.KindBracket:
		if m.TeamCount() >= stage.Seats() {
			return nil
		}
		order := engine.PlayOrder(*stage, m)
		for _, other := range matches {
			if other.Status != tournament.MatchCompleted && engine.PlayOrder(*stage, other) < order {
				return tournament.Conflictf("match %s has %d of %d teams while match %s is unresolved",
					m.ID, m.TeamCount(), stage.Seats(), other.ID)
			}
		}
	}
	return nil
}

// completionEvents builds the events for matches completed in one operation and
// reports whether the stage completed with them.
func completionEvents(stage *tournament.Stage, matches, completed []*tournament.Match) ([]Event, bool) {
	events := make([]Event, 0, len(completed)+1)
	for _, m := range completed {
		winners, _ := m.WinnersLosers()
		events = append(events, Event{
			Type:         EventMatchCompleted,
			TournamentID: stage.TournamentID,
			StageID:      stage.ID,
			MatchID:      m.ID,
			Winners:      winners,
		})
	}
	if len(completed) == 0 {
		return events, false
	}

	done := engine.Completed(matches)
	var winners []uuid.UUID
	if stage.Kind == tournament.KindBracket {
		final, ok := engine.Final(*stage, matches)
		done = ok && slices.Contains(completed, final)
		if winner, ok := engine.BracketWinner(*stage, matches); done && ok {
			winners = []uuid.UUID{winner}
		}
	}
	if !done {
		return events, false
	}
	return append(events, Event{
		Type:         EventStageCompleted,
		TournamentID: stage.TournamentID,
		StageID:      stage.ID,
		Winners:      winners,
	}), true
}

func appendOnce(list []*tournament.Match, m *tournament.Match) []*tournament.Match {
	if slices.Contains(list, m) {
		return list
	}
	return append(list, m)
}
