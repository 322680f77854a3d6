package engine

import (
	"cmp"
	"slices"

	"github.com/AdamBeresnev/lan-tournament/internal/pairing"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
)

// SortBySeed orders teams by ascending seed. Unseeded teams go last and keep their
// registration order.
func SortBySeed(teams []tournament.Team) {
	slices.SortStableFunc(teams, func(a, b tournament.Team) int {
		switch {
		case a.Seeded() && b.Seeded():
			return cmp.Compare(a.Seed, b.Seed)
		case a.Seeded():
			return -1
		case b.Seeded():
			return 1
		}
		return 0
	})
}

// DistributeGroups deals teams over count groups of at most perGroup teams.
// Group g takes list positions g, g+count, g+2*count and so on.
func DistributeGroups(teams []tournament.Team, count, perGroup int, useSeeding bool) ([][]tournament.Team, error) {
	if count < 1 || perGroup < 2 {
		return nil, tournament.Validationf("need at least one group of 2 teams, got %d groups of %d", count, perGroup)
	}
	if len(teams) > count*perGroup {
		return nil, tournament.Validationf("%d teams do not fit in %d groups of %d", len(teams), count, perGroup)
	}

	ordered := slices.Clone(teams)
	if useSeeding {
		SortBySeed(ordered)
	}

	groups := make([][]tournament.Team, count)
	for g := range groups {
		for j := 0; j < perGroup; j++ {
			i := g + count*j
			if i >= len(ordered) {
				break
			}
			groups[g] = append(groups[g], ordered[i])
		}
	}
	return groups, nil
}

// GroupRoundCount is the number of rounds a full round-robin of size teams takes.
func GroupRoundCount(size int) int {
	return max(len(pairing.CircleSlots(size))-1, 0)
}

// NewGroupMatches schedules a full round-robin between teams, given in seeding order.
// A team paired with the bye sits the round out.
func NewGroupMatches(stage tournament.Stage, teams []uuid.UUID) ([]tournament.Match, error) {
	if stage.Kind != tournament.KindGroup {
		return nil, tournament.Validationf("stage %s is a %s, not a group", stage.ID, stage.Kind)
	}
	if stage.Seats() != 2 {
		return nil, tournament.Validationf("groups are played one against one, got %d teams per match", stage.Seats())
	}
	if len(teams) < 2 {
		return nil, tournament.Validationf("a group needs at least 2 teams, got %d", len(teams))
	}

	var matches []tournament.Match
	for r, pairs := range pairing.RoundRobin(len(teams)) {
		index := 0
		for _, p := range pairs {
			if pairing.IsBye(p) {
				continue
			}
			index++
			m := newMatch(stage, "", 0, r+1, index)
			m.AddTeam(teams[p[0]])
			m.AddTeam(teams[p[1]])
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// Standing is one row of a group leaderboard.
type Standing struct {
	TeamID  uuid.UUID `json:"team_id"`
	Seeding int       `json:"seeding"`
	Score   int       `json:"score"`
	Played  int       `json:"played"`
}

// Leaderboard sums each team's scores over the group. Rows are ordered by total, then by
// seeding; equal totals stay equal.
func Leaderboard(seedings []tournament.Seeding, matches []*tournament.Match) []Standing {
	rows := make([]Standing, 0, len(seedings))
	pos := make(map[uuid.UUID]int, len(seedings))
	for _, s := range seedings {
		pos[s.TeamID] = len(rows)
		rows = append(rows, Standing{TeamID: s.TeamID, Seeding: s.Seeding})
	}

	for _, m := range matches {
		for _, s := range m.Scores {
			i, ok := pos[s.TeamID]
			if !ok {
				continue
			}
			rows[i].Score += s.Score
			if m.Status == tournament.MatchCompleted {
				rows[i].Played++
			}
		}
	}

	slices.SortStableFunc(rows, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Seeding, b.Seeding)
	})
	return rows
}

// Completed reports whether every match of a stage has been played.
func Completed(matches []*tournament.Match) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if m.Status != tournament.MatchCompleted {
			return false
		}
	}
	return true
}
