package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/AdamBeresnev/lan-tournament/internal/db"
	"github.com/AdamBeresnev/lan-tournament/internal/engine"
	"github.com/AdamBeresnev/lan-tournament/internal/store"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open("file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	require.NoError(t, db.Migrate(database), "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(typ EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store       *store.TournamentStore
	tournaments *TournamentService
	matches     *MatchService
	events      *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := setupTestDB(t)
	tournamentStore := store.NewTournamentStore(database)
	events := &recorder{}
	opts := []Option{WithObservers(events), WithRand(rand.New(rand.NewSource(1)))}

	return &fixture{
		store:       tournamentStore,
		tournaments: NewTournamentService(database, tournamentStore, opts...),
		matches:     NewMatchService(database, tournamentStore, opts...),
		events:      events,
	}
}

// seedTournament creates a tournament with n validated teams seeded 1..n. It returns
// the team ids best first.
func (f *fixture) seedTournament(t *testing.T, n, perMatch int) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	tournamentID, err := f.tournaments.CreateTournament(ctx, "LAN Party", 64, perMatch)
	require.NoError(t, err)

	teams := make([]uuid.UUID, n)
	for i := range teams {
		teams[i], err = f.tournaments.AddTeam(ctx, tournamentID, fmt.Sprintf("Team %02d", i+1), i+1)
		require.NoError(t, err)
		require.NoError(t, f.tournaments.ValidateTeam(ctx, teams[i], true))
	}
	return tournamentID, teams
}

func (f *fixture) stageMatches(t *testing.T, stageID uuid.UUID) []*tournament.Match {
	t.Helper()
	matches, err := f.store.ListStageMatches(context.Background(), nil, stageID)
	require.NoError(t, err)
	return matches
}

func (f *fixture) round(t *testing.T, stageID uuid.UUID, set tournament.BracketSet, scoreGroup, round int) []*tournament.Match {
	t.Helper()
	return engine.RoundMatches(f.stageMatches(t, stageID), set, scoreGroup, round)
}

// submitWin records a result where winner takes the series and everyone else scores zero.
func (f *fixture) submitWin(t *testing.T, m *tournament.Match, winner uuid.UUID) *tournament.Match {
	t.Helper()
	scores := make(map[uuid.UUID]int, m.TeamCount())
	for _, id := range m.TeamIDs() {
		scores[id] = 0
	}
	scores[winner] = m.WinningScore()

	updated, err := f.matches.RecordScore(context.Background(), ScoreSubmission{
		MatchID:      m.ID,
		RoundNumber:  m.RoundNumber,
		IndexInRound: m.IndexInRound,
		SubmittedBy:  winner,
		Scores:       scores,
	})
	require.NoError(t, err)
	return updated
}

// playLaunched finishes every ongoing match in the list, the best ranked team winning.
func (f *fixture) playLaunched(t *testing.T, launched []*tournament.Match, rank map[uuid.UUID]int) {
	t.Helper()
	for _, m := range launched {
		if m.Status != tournament.MatchOngoing {
			continue
		}
		best := m.TeamIDs()[0]
		for _, id := range m.TeamIDs() {
			if rank[id] < rank[best] {
				best = id
			}
		}
		f.submitWin(t, m, best)
	}
}

func ranks(teams []uuid.UUID) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(teams))
	for i, id := range teams {
		out[id] = i
	}
	return out
}
