package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportTeams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, err := f.tournaments.CreateTournament(ctx, "LAN", 4, 2)
	require.NoError(t, err)

	imported, err := f.tournaments.ImportTeams(ctx, tournamentID, "Alpha;1\n\n  Bravo ; 2 \nCharlie\n", true)
	require.NoError(t, err)
	require.Len(t, imported, 3)
	assert.Equal(t, "Bravo", imported[1].Name)
	assert.Equal(t, 2, imported[1].Seed)
	assert.Equal(t, 0, imported[2].Seed)

	teams, err := f.tournaments.ListTeams(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, teams, 3)
	for _, team := range teams {
		assert.True(t, team.Validated, team.Name)
	}
}

func TestImportTeams_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, err := f.tournaments.CreateTournament(ctx, "LAN", 2, 2)
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		err  error
	}{
		{"empty", "\n  \n", tournament.ErrValidation},
		{"bad seed", "Alpha;first", tournament.ErrValidation},
		{"missing name", ";3", tournament.ErrValidation},
		{"duplicate name", "Alpha\nALPHA", tournament.ErrConflict},
		{"over capacity", "Alpha\nBravo\nCharlie", tournament.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tournaments.ImportTeams(ctx, tournamentID, tt.text, false)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	teams, err := f.tournaments.ListTeams(ctx, tournamentID)
	require.NoError(t, err)
	assert.Empty(t, teams)
}
