package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
)

// ImportTeams registers one team per line of text, either "name" or "name;seed".
// Blank lines are skipped. Either every team is added or none is.
func (s *TournamentService) ImportTeams(ctx context.Context, tournamentID uuid.UUID, text string, validated bool) ([]tournament.Team, error) {
	type line struct {
		name string
		seed int
	}
	var lines []line
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, seedStr, hasSeed := strings.Cut(raw, ";")
		l := line{name: strings.TrimSpace(name)}
		if l.name == "" {
			return nil, tournament.Validationf("line %d: team name is required", i+1)
		}
		if hasSeed {
			seed, err := strconv.Atoi(strings.TrimSpace(seedStr))
			if err != nil || seed < 0 {
				return nil, tournament.Validationf("line %d: invalid seed %q", i+1, seedStr)
			}
			l.seed = seed
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return nil, tournament.Validationf("no teams to import")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := s.store.GetTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	teams, err := s.store.ListTeams(ctx, tx, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	imported := make([]tournament.Team, 0, len(lines))
	for _, l := range lines {
		team, err := s.insertTeam(ctx, tx, t, teams, l.name, l.seed)
		if err != nil {
			return nil, err
		}
		if validated {
			if err := s.store.SetTeamValidated(ctx, tx, team.ID, true); err != nil {
				return nil, err
			}
			team.Validated = true
		}
		teams = append(teams, *team)
		imported = append(imported, *team)
	}

	return imported, tx.Commit()
}
