package tournament

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatch(bo BoType, teams int) (*Match, []uuid.UUID) {
	m := &Match{ID: uuid.New(), Status: MatchScheduled, BoType: bo}
	ids := make([]uuid.UUID, teams)
	for i := range ids {
		ids[i] = uuid.New()
		m.AddTeam(ids[i])
	}
	return m, ids
}

func TestScoreBounds(t *testing.T) {
	testCases := []struct {
		name          string
		bo            BoType
		teams         int
		maxScore      int
		winningScore  int
		expectWinners int
	}{
		{name: "BO1 duel", bo: BO1, teams: 2, maxScore: 1, winningScore: 1, expectWinners: 1},
		{name: "BO3 duel", bo: BO3, teams: 2, maxScore: 3, winningScore: 2, expectWinners: 1},
		{name: "BO5 duel", bo: BO5, teams: 2, maxScore: 5, winningScore: 3, expectWinners: 1},
		{name: "BO7 duel", bo: BO7, teams: 2, maxScore: 7, winningScore: 4, expectWinners: 1},
		{name: "Ranking of 4", bo: Ranking, teams: 4, maxScore: 10, winningScore: 2, expectWinners: 2},
		{name: "Ranking of 5", bo: Ranking, teams: 5, maxScore: 15, winningScore: 3, expectWinners: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := newTestMatch(tc.bo, tc.teams)
			assert.Equal(t, tc.maxScore, m.MaxScore())
			assert.Equal(t, tc.maxScore, m.TotalMaxScore())
			assert.Equal(t, tc.winningScore, m.WinningScore())
			assert.Equal(t, tc.expectWinners, m.ExpectedWinners())
		})
	}
}

func TestWinnersLosers_RankingPlacements(t *testing.T) {
	for n := 2; n <= 8; n++ {
		m, ids := newTestMatch(Ranking, n)
		for i := range m.Scores {
			m.Scores[i].Score = i + 1
		}

		winners, losers := m.WinnersLosers()
		half := (n + 1) / 2
		assert.Equal(t, ids[:half], winners, "teams=%d", n)
		assert.Equal(t, ids[half:], losers, "teams=%d", n)
	}
}

func TestWinnersLosers_WinCount(t *testing.T) {
	m, ids := newTestMatch(BO3, 2)
	m.Scores[0].Score = 1
	m.Scores[1].Score = 2

	winners, losers := m.WinnersLosers()
	assert.Equal(t, []uuid.UUID{ids[1]}, winners)
	assert.Equal(t, []uuid.UUID{ids[0]}, losers)
}

func TestLaunch(t *testing.T) {
	t.Run("Full match goes ongoing", func(t *testing.T) {
		m, _ := newTestMatch(BO3, 2)
		require.NoError(t, m.Launch())
		assert.Equal(t, MatchOngoing, m.Status)
	})

	t.Run("Bye completes with the winning score", func(t *testing.T) {
		m, ids := newTestMatch(BO5, 1)
		require.NoError(t, m.Launch())
		assert.Equal(t, MatchCompleted, m.Status)
		assert.Equal(t, 3, m.Scores[0].Score)

		winners, losers := m.WinnersLosers()
		assert.Equal(t, []uuid.UUID{ids[0]}, winners)
		assert.Empty(t, losers)
	})

	t.Run("Ranking bye wins too", func(t *testing.T) {
		m, ids := newTestMatch(Ranking, 1)
		require.NoError(t, m.Launch())
		winners, _ := m.WinnersLosers()
		assert.Equal(t, []uuid.UUID{ids[0]}, winners)
	})

	t.Run("Empty match is void", func(t *testing.T) {
		m, _ := newTestMatch(BO1, 0)
		require.NoError(t, m.Launch())
		assert.Equal(t, MatchCompleted, m.Status)
		winners, losers := m.WinnersLosers()
		assert.Empty(t, winners)
		assert.Empty(t, losers)
	})

	t.Run("Cannot relaunch", func(t *testing.T) {
		m, _ := newTestMatch(BO1, 2)
		require.NoError(t, m.Launch())
		err := m.Launch()
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, MatchOngoing, m.Status)
	})
}

func TestRecordResult(t *testing.T) {
	testCases := []struct {
		name    string
		bo      BoType
		teams   int
		scores  []int
		times   []int
		wantErr bool
	}{
		{name: "BO3 2-1", bo: BO3, teams: 2, scores: []int{2, 1}, times: []int{600, 700, 650}},
		{name: "BO3 2-0", bo: BO3, teams: 2, scores: []int{0, 2}},
		{name: "BO3 draw has no winner", bo: BO3, teams: 2, scores: []int{1, 1}, wantErr: true},
		{name: "BO3 two winners", bo: BO3, teams: 2, scores: []int{2, 2}, wantErr: true},
		{name: "BO3 sum exceeds total", bo: BO3, teams: 2, scores: []int{3, 1}, wantErr: true},
		{name: "BO1 over max", bo: BO1, teams: 2, scores: []int{2, 0}, wantErr: true},
		{name: "Negative score", bo: BO3, teams: 2, scores: []int{2, -1}, wantErr: true},
		{name: "Too many game times", bo: BO1, teams: 2, scores: []int{1, 0}, times: []int{10, 20}, wantErr: true},
		{name: "Ranking of 4", bo: Ranking, teams: 4, scores: []int{1, 2, 3, 4}},
		{name: "Ranking of 4 with one winner", bo: Ranking, teams: 4, scores: []int{1, 3, 3, 3}, wantErr: true},
		{name: "Ranking of 3", bo: Ranking, teams: 3, scores: []int{3, 1, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, ids := newTestMatch(tc.bo, tc.teams)
			require.NoError(t, m.Launch())

			scores := make(map[uuid.UUID]int)
			for i, s := range tc.scores {
				scores[ids[i]] = s
			}

			err := m.RecordResult(tc.times, scores)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Equal(t, MatchOngoing, m.Status)
				for _, s := range m.Scores {
					assert.Zero(t, s.Score)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, MatchCompleted, m.Status)
			for i, s := range m.Scores {
				assert.Equal(t, tc.scores[i], s.Score)
			}
			winners, _ := m.WinnersLosers()
			assert.Len(t, winners, m.ExpectedWinners())
		})
	}
}

func TestRecordResult_TeamSetMustMatch(t *testing.T) {
	m, ids := newTestMatch(BO1, 2)
	require.NoError(t, m.Launch())

	err := m.RecordResult(nil, map[uuid.UUID]int{ids[0]: 1})
	assert.ErrorIs(t, err, ErrValidation)

	err = m.RecordResult(nil, map[uuid.UUID]int{ids[0]: 1, uuid.New(): 0})
	assert.ErrorIs(t, err, ErrValidation)

	err = m.RecordResult(nil, map[uuid.UUID]int{ids[0]: 1, ids[1]: 0, uuid.New(): 0})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, m.RecordResult(nil, map[uuid.UUID]int{ids[0]: 1, ids[1]: 0}))
}

func TestRecordResult_RequiresOngoing(t *testing.T) {
	m, ids := newTestMatch(BO1, 2)
	err := m.RecordResult(nil, map[uuid.UUID]int{ids[0]: 1, ids[1]: 0})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, MatchScheduled, m.Status)
}

func TestAddTeam(t *testing.T) {
	m, ids := newTestMatch(BO1, 1)
	assert.False(t, m.AddTeam(ids[0]))
	assert.True(t, m.AddTeam(uuid.New()))
	assert.Equal(t, 2, m.TeamCount())
	assert.Equal(t, 2, m.Scores[1].Slot)
}

func TestStageDepth(t *testing.T) {
	testCases := []struct {
		teams, perMatch, depth, maxMatches int
	}{
		{teams: 2, perMatch: 2, depth: 1, maxMatches: 1},
		{teams: 3, perMatch: 2, depth: 2, maxMatches: 2},
		{teams: 4, perMatch: 2, depth: 2, maxMatches: 2},
		{teams: 5, perMatch: 2, depth: 3, maxMatches: 3},
		{teams: 8, perMatch: 2, depth: 3, maxMatches: 4},
		{teams: 16, perMatch: 2, depth: 4, maxMatches: 8},
		{teams: 16, perMatch: 4, depth: 3, maxMatches: 4},
		{teams: 3, perMatch: 4, depth: 1, maxMatches: 1},
	}

	for _, tc := range testCases {
		s := Stage{TeamCount: tc.teams, TeamsPerMatch: tc.perMatch}
		assert.Equal(t, tc.depth, s.Depth(), "teams=%d per=%d", tc.teams, tc.perMatch)
		assert.Equal(t, tc.maxMatches, s.MaxMatchCount(), "teams=%d per=%d", tc.teams, tc.perMatch)
	}
}

func TestParseBoType(t *testing.T) {
	bo, err := ParseBoType("BO3")
	require.NoError(t, err)
	assert.Equal(t, BO3, bo)

	bo, err = ParseBoType("ranking")
	require.NoError(t, err)
	assert.Equal(t, Ranking, bo)

	_, err = ParseBoType("bo4")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBoTypeJSON(t *testing.T) {
	encoded, err := json.Marshal(struct {
		BoType BoType `json:"bo_type"`
	}{BO5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bo_type":"bo5"}`, string(encoded))

	var decoded struct {
		BoType BoType `json:"bo_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"bo_type":"ranking"}`), &decoded))
	assert.Equal(t, Ranking, decoded.BoType)

	assert.Error(t, json.Unmarshal([]byte(`{"bo_type":"bo2"}`), &decoded))
}
