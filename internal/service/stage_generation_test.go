package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/lan-tournament/internal/engine"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tournaments.CreateTournament(ctx, "  ", 8, 2)
	assert.ErrorIs(t, err, tournament.ErrValidation)

	_, err = f.tournaments.CreateTournament(ctx, "LAN", 1, 2)
	assert.ErrorIs(t, err, tournament.ErrValidation)

	_, err = f.tournaments.CreateTournament(ctx, "LAN", 8, 1)
	assert.ErrorIs(t, err, tournament.ErrValidation)
}

func TestAddTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, err := f.tournaments.CreateTournament(ctx, "LAN", 2, 2)
	require.NoError(t, err)

	_, err = f.tournaments.AddTeam(ctx, tournamentID, "Alpha", 1)
	require.NoError(t, err)

	_, err = f.tournaments.AddTeam(ctx, tournamentID, "alpha", 2)
	assert.ErrorIs(t, err, tournament.ErrConflict, "names are unique regardless of case")

	_, err = f.tournaments.AddTeam(ctx, tournamentID, "Bravo", -1)
	assert.ErrorIs(t, err, tournament.ErrValidation)

	_, err = f.tournaments.AddTeam(ctx, tournamentID, "Bravo", 0)
	require.NoError(t, err)

	_, err = f.tournaments.AddTeam(ctx, tournamentID, "Charlie", 3)
	assert.ErrorIs(t, err, tournament.ErrConflict, "tournament is full")

	_, err = f.tournaments.AddTeam(ctx, uuid.New(), "Delta", 1)
	assert.ErrorIs(t, err, tournament.ErrNotFound)

	teams, err := f.tournaments.ListTeams(ctx, tournamentID)
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}

func TestCreateBracket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, teams := f.seedTournament(t, 8, 2)

	stageID, err := f.tournaments.CreateBracket(ctx, BracketParams{
		TournamentID: tournamentID,
		TeamCount:    8,
		BracketType:  tournament.SingleElimination,
		BoType:       tournament.BO1,
	})
	require.NoError(t, err)

	matches := f.stageMatches(t, stageID)
	assert.Len(t, matches, 7)

	first := engine.RoundMatches(matches, tournament.WinnerSet, 0, 3)
	require.Len(t, first, 4)
	want := [][]uuid.UUID{
		{teams[0], teams[7]},
		{teams[3], teams[4]},
		{teams[1], teams[6]},
		{teams[2], teams[5]},
	}
	for i, m := range first {
		assert.ElementsMatch(t, want[i], m.TeamIDs(), "match %d", i+1)
	}

	stages, err := f.tournaments.ListStages(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, "Bracket", stages[0].Name)
}

func TestCreateBracket_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, teams := f.seedTournament(t, 4, 2)

	_, err := f.tournaments.AddTeam(ctx, tournamentID, "Unvalidated", 5)
	require.NoError(t, err)

	tests := []struct {
		name   string
		params BracketParams
	}{
		{"more teams than validated", BracketParams{TournamentID: tournamentID, TeamCount: 5, BracketType: tournament.SingleElimination, BoType: tournament.BO1}},
		{"invalid best-of", BracketParams{TournamentID: tournamentID, TeamCount: 4, BracketType: tournament.SingleElimination, BoType: tournament.BoType(2)}},
		{"unknown team", BracketParams{TournamentID: tournamentID, TeamCount: 4, BracketType: tournament.SingleElimination, BoType: tournament.BO1, Teams: []uuid.UUID{uuid.New()}}},
		{"duplicate team", BracketParams{TournamentID: tournamentID, TeamCount: 4, BracketType: tournament.SingleElimination, BoType: tournament.BO1, Teams: []uuid.UUID{teams[0], teams[0]}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tournaments.CreateBracket(ctx, tt.params)
			assert.ErrorIs(t, err, tournament.ErrValidation)
		})
	}

	_, err = f.tournaments.CreateBracket(ctx, BracketParams{TournamentID: uuid.New(), TeamCount: 4, BoType: tournament.BO1})
	assert.ErrorIs(t, err, tournament.ErrNotFound)

	stages, err := f.tournaments.ListStages(ctx, tournamentID)
	require.NoError(t, err)
	assert.Empty(t, stages, "rejected brackets leave nothing behind")
}

func TestSeedBracket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, teams := f.seedTournament(t, 4, 2)

	stageID, err := f.tournaments.CreateBracket(ctx, BracketParams{
		TournamentID: tournamentID,
		TeamCount:    4,
		BracketType:  tournament.SingleElimination,
		BoType:       tournament.BO1,
	})
	require.NoError(t, err)

	reversed := []uuid.UUID{teams[3], teams[2], teams[1], teams[0]}
	require.NoError(t, f.tournaments.SeedBracket(ctx, stageID, reversed))

	first := f.round(t, stageID, tournament.WinnerSet, 0, 2)
	require.Len(t, first, 2)
	assert.ElementsMatch(t, []uuid.UUID{teams[3], teams[0]}, first[0].TeamIDs())
	assert.ElementsMatch(t, []uuid.UUID{teams[2], teams[1]}, first[1].TeamIDs())

	overview, err := f.tournaments.StageOverview(ctx, stageID)
	require.NoError(t, err)
	require.Len(t, overview.Seedings, 4)
	assert.Equal(t, teams[3], overview.Seedings[0].TeamID)

	_, err = f.matches.LaunchMatches(ctx, stageID, LaunchSelection{Round: 2})
	require.NoError(t, err)

	err = f.tournaments.SeedBracket(ctx, stageID, teams)
	assert.ErrorIs(t, err, tournament.ErrConflict)
}

func TestCreateGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, teams := f.seedTournament(t, 6, 2)

	ids, err := f.tournaments.CreateGroups(ctx, GroupParams{
		TournamentID:  tournamentID,
		Count:         2,
		TeamsPerGroup: 4,
		UseSeeding:    true,
		BoType:        tournament.BO1,
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	members := make(map[uuid.UUID]bool)
	for i, id := range ids {
		overview, err := f.tournaments.StageOverview(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"Group A", "Group B"}[i], overview.Stage.Name)
		assert.Len(t, overview.Seedings, 3)
		assert.Equal(t, 3, overview.Stage.RoundCount)
		assert.Len(t, overview.Matches, 3)
		for _, s := range overview.Seedings {
			members[s.TeamID] = true
		}
	}
	assert.Len(t, members, len(teams), "every team lands in exactly one group")
}

func TestCreateGroups_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, _ := f.seedTournament(t, 5, 2)

	tests := []struct {
		name   string
		params GroupParams
	}{
		{"too few teams per group", GroupParams{TournamentID: tournamentID, Count: 3, TeamsPerGroup: 4, BoType: tournament.BO1}},
		{"not enough room", GroupParams{TournamentID: tournamentID, Count: 2, TeamsPerGroup: 2, BoType: tournament.BO1}},
		{"names do not match count", GroupParams{TournamentID: tournamentID, Count: 2, TeamsPerGroup: 3, Names: []string{"Solo"}, BoType: tournament.BO1}},
		{"no groups", GroupParams{TournamentID: tournamentID, Count: 0, TeamsPerGroup: 5, BoType: tournament.BO1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tournaments.CreateGroups(ctx, tt.params)
			assert.ErrorIs(t, err, tournament.ErrValidation)
		})
	}
}

func TestCreateGroups_FreeForAllTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, _ := f.seedTournament(t, 8, 4)

	_, err := f.tournaments.CreateGroups(ctx, GroupParams{TournamentID: tournamentID, Count: 2, TeamsPerGroup: 4, BoType: tournament.Ranking})
	require.ErrorIs(t, err, tournament.ErrValidation)
	assert.Contains(t, err.Error(), "2 teams per match")

	stages, err := f.tournaments.ListStages(ctx, tournamentID)
	require.NoError(t, err)
	assert.Empty(t, stages)
}

func TestRegenerateStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, _ := f.seedTournament(t, 4, 2)

	stageID, err := f.tournaments.CreateBracket(ctx, BracketParams{
		TournamentID: tournamentID,
		TeamCount:    4,
		BracketType:  tournament.DoubleElimination,
		BoType:       tournament.BO1,
	})
	require.NoError(t, err)
	before := f.stageMatches(t, stageID)

	require.NoError(t, f.tournaments.RegenerateStage(ctx, stageID, tournament.BO3))

	after := f.stageMatches(t, stageID)
	require.Len(t, after, len(before))
	for i, m := range after {
		assert.Equal(t, tournament.BO3, m.BoType)
		assert.Equal(t, before[i].Key(), m.Key())
		assert.ElementsMatch(t, before[i].TeamIDs(), m.TeamIDs())
	}

	overview, err := f.tournaments.StageOverview(ctx, stageID)
	require.NoError(t, err)
	assert.Equal(t, tournament.BO3, overview.Stage.BoType)

	_, err = f.matches.LaunchMatches(ctx, stageID, LaunchSelection{Round: 2})
	require.NoError(t, err)

	err = f.tournaments.RegenerateStage(ctx, stageID, tournament.BO1)
	assert.ErrorIs(t, err, tournament.ErrConflict)
	err = f.tournaments.DeleteStage(ctx, stageID)
	assert.ErrorIs(t, err, tournament.ErrConflict)
}

func TestDeleteStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, _ := f.seedTournament(t, 4, 2)

	stageID, err := f.tournaments.CreateSwissRound(ctx, SwissParams{
		TournamentID: tournamentID,
		MinScore:     2,
		UseSeeding:   true,
		BoType:       tournament.BO1,
	})
	require.NoError(t, err)

	require.NoError(t, f.tournaments.DeleteStage(ctx, stageID))

	_, err = f.tournaments.StageOverview(ctx, stageID)
	assert.ErrorIs(t, err, tournament.ErrNotFound)
	assert.Empty(t, f.stageMatches(t, stageID))

	err = f.tournaments.DeleteStage(ctx, stageID)
	assert.ErrorIs(t, err, tournament.ErrNotFound)
}

func TestCreateSwissRound_Shuffled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, teams := f.seedTournament(t, 6, 2)

	stageID, err := f.tournaments.CreateSwissRound(ctx, SwissParams{
		TournamentID: tournamentID,
		MinScore:     2,
		BoType:       tournament.BO1,
	})
	require.NoError(t, err)

	first := f.round(t, stageID, "", 0, 1)
	require.Len(t, first, 3)
	var seated []uuid.UUID
	for _, m := range first {
		assert.Equal(t, 2, m.TeamCount())
		seated = append(seated, m.TeamIDs()...)
	}
	assert.ElementsMatch(t, teams, seated)

	_, err = f.tournaments.CreateSwissRound(ctx, SwissParams{TournamentID: tournamentID, MinScore: 2, BoType: tournament.Ranking})
	assert.ErrorIs(t, err, tournament.ErrValidation)
}

func TestStageQueries_WrongKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tournamentID, _ := f.seedTournament(t, 4, 2)

	stageID, err := f.tournaments.CreateBracket(ctx, BracketParams{
		TournamentID: tournamentID,
		TeamCount:    4,
		BracketType:  tournament.SingleElimination,
		BoType:       tournament.BO1,
	})
	require.NoError(t, err)

	_, err = f.tournaments.GroupLeaderboard(ctx, stageID)
	assert.ErrorIs(t, err, tournament.ErrValidation)
	_, err = f.tournaments.SwissStandings(ctx, stageID)
	assert.ErrorIs(t, err, tournament.ErrValidation)
	_, err = f.tournaments.GenerateSwissRound(ctx, stageID, 2)
	assert.ErrorIs(t, err, tournament.ErrValidation)

	_, ok, err := f.tournaments.BracketWinner(ctx, stageID)
	require.NoError(t, err)
	assert.False(t, ok)
}
