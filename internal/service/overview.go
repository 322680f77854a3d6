package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/lan-tournament/internal/engine"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/AdamBeresnev/lan-tournament/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// StageOverview is everything a scoreboard needs to draw one stage.
type StageOverview struct {
	Stage     *tournament.Stage    `json:"stage"`
	Teams     []tournament.Team    `json:"teams"`
	Seedings  []tournament.Seeding `json:"seedings"`
	Matches   []*tournament.Match  `json:"matches"`
	Completed bool                 `json:"completed"`
	Winner    *uuid.UUID           `json:"winner,omitempty"`
	Standings []engine.Standing    `json:"standings,omitempty"`
	Records   []engine.SwissRecord `json:"records,omitempty"`
}

// StageOverview loads a stage with its teams, seedings and matches and derives its
// standings.
func (s *TournamentService) StageOverview(ctx context.Context, stageID uuid.UUID) (*StageOverview, error) {
	stage, err := s.store.GetStage(ctx, nil, stageID)
	if err != nil {
		return nil, err
	}
	overview := &StageOverview{Stage: stage}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.store.ListTeams(gCtx, nil, stage.TournamentID, true)
		if err != nil {
			return fmt.Errorf("failed to fetch teams of tournament %s: %w", stage.TournamentID, err)
		}
		overview.Teams = teams
		return nil
	})

	g.Go(func() error {
		seedings, err := s.store.ListSeedings(gCtx, nil, stageID)
		if err != nil {
			return fmt.Errorf("failed to fetch seedings of stage %s: %w", stageID, err)
		}
		overview.Seedings = seedings
		return nil
	})

	g.Go(func() error {
		matches, err := s.store.ListStageMatches(gCtx, nil, stageID)
		if err != nil {
			return fmt.Errorf("failed to fetch matches of stage %s: %w", stageID, err)
		}
		overview.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch stage.Kind {
	case tournament.KindBracket:
		if winner, ok := engine.BracketWinner(*stage, overview.Matches); ok {
			overview.Winner = utils.Ptr(winner)
			overview.Completed = true
		}
	case tournament.KindGroup:
		overview.Completed = engine.Completed(overview.Matches)
		overview.Standings = engine.Leaderboard(overview.Seedings, overview.Matches)
	case tournament.KindSwiss:
		overview.Completed = engine.Completed(overview.Matches)
		overview.Records = engine.SwissStandings(*stage, seededTeams(overview.Seedings), overview.Matches)
	}
	return overview, nil
}
