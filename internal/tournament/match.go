package tournament

import (
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/utils"
	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchOngoing   MatchStatus = "ongoing"
	MatchCompleted MatchStatus = "completed"
)

type BracketSet string

const (
	WinnerSet BracketSet = "winner"
	LooserSet BracketSet = "looser"
)

// StageRef says which stage a match belongs to. Set is only used by brackets and
// ScoreGroup only by swiss rounds.
type StageRef struct {
	Kind       StageKind  `json:"kind"`
	ID         uuid.UUID  `json:"id"`
	Set        BracketSet `json:"set,omitempty"`
	ScoreGroup int        `json:"score_group"`
}

type Score struct {
	MatchID uuid.UUID `db:"match_id" json:"match_id"`
	TeamID  uuid.UUID `db:"team_id" json:"team_id"`
	Score   int       `db:"score" json:"score"`
	Slot    int       `db:"slot" json:"slot"`
}

// MatchKey addresses a match inside its stage.
type MatchKey struct {
	Set        BracketSet
	ScoreGroup int
	Round      int
	Index      int
}

type Match struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournament_id"`
	Stage        StageRef  `json:"stage"`

	// Position in the stage, Index is 1-based
	RoundNumber  int `json:"round_number"`
	IndexInRound int `json:"index_in_round"`

	Status MatchStatus `json:"status"`
	BoType BoType      `json:"bo_type"`
	Times  []int       `json:"times"`
	Scores []Score     `json:"scores"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Match) Key() MatchKey {
	return MatchKey{Set: m.Stage.Set, ScoreGroup: m.Stage.ScoreGroup, Round: m.RoundNumber, Index: m.IndexInRound}
}

func (m *Match) TeamIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.Scores))
	for _, s := range m.Scores {
		ids = append(ids, s.TeamID)
	}
	return ids
}

func (m *Match) TeamCount() int {
	return len(m.Scores)
}

func (m *Match) HasTeam(teamID uuid.UUID) bool {
	for _, s := range m.Scores {
		if s.TeamID == teamID {
			return true
		}
	}
	return false
}

// AddTeam seats a team with a zero score. It reports false when the team was already seated.
func (m *Match) AddTeam(teamID uuid.UUID) bool {
	if m.HasTeam(teamID) {
		return false
	}
	m.Scores = append(m.Scores, Score{MatchID: m.ID, TeamID: teamID, Slot: len(m.Scores) + 1})
	return true
}

func (m *Match) ClearTeams() {
	m.Scores = nil
}

func (m *Match) MaxScore() int {
	if m.BoType == Ranking {
		n := m.TeamCount()
		return n * (n + 1) / 2
	}
	return int(m.BoType)
}

func (m *Match) TotalMaxScore() int {
	if m.BoType == Ranking {
		n := m.TeamCount()
		return n * (n + 1) / 2
	}
	return int(m.BoType)
}

func (m *Match) WinningScore() int {
	if m.BoType == Ranking {
		return utils.CeilDiv(m.TeamCount(), 2)
	}
	return utils.CeilDiv(m.MaxScore(), 2)
}

// WinnersLosers splits the seated teams. Ranking scores are placements, so lower is better.
func (m *Match) WinnersLosers() (winners, losers []uuid.UUID) {
	return m.splitScores(m.scoreMap())
}

func (m *Match) splitScores(scores map[uuid.UUID]int) (winners, losers []uuid.UUID) {
	threshold := m.WinningScore()
	for _, s := range m.Scores {
		score := scores[s.TeamID]
		won := score >= threshold
		if m.BoType == Ranking {
			won = score <= threshold
		}
		if won {
			winners = append(winners, s.TeamID)
		} else {
			losers = append(losers, s.TeamID)
		}
	}
	return winners, losers
}

func (m *Match) scoreMap() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(m.Scores))
	for _, s := range m.Scores {
		out[s.TeamID] = s.Score
	}
	return out
}

// ExpectedWinners is how many winners a completed match must produce.
func (m *Match) ExpectedWinners() int {
	if m.BoType == Ranking {
		return utils.CeilDiv(m.TeamCount(), 2)
	}
	return 1
}

// Games is the longest possible series, used to bound reported game times.
func (m *Match) Games() int {
	if m.BoType == Ranking {
		return 1
	}
	return int(m.BoType)
}

// Launch starts a scheduled match. A lone team wins by walkover and an empty match
// is closed as void.
func (m *Match) Launch() error {
	if m.Status != MatchScheduled {
		return Validationf("match %s is %s, only scheduled matches can be launched", m.ID, m.Status)
	}
	switch m.TeamCount() {
	case 0:
		m.Status = MatchCompleted
	case 1:
		m.Scores[0].Score = m.WinningScore()
		m.Status = MatchCompleted
	default:
		m.Status = MatchOngoing
	}
	return nil
}

// RecordResult validates a full result before writing any of it.
func (m *Match) RecordResult(times []int, scores map[uuid.UUID]int) error {
	if m.Status != MatchOngoing {
		return Validationf("match %s is %s, scores are only accepted while ongoing", m.ID, m.Status)
	}
	if len(scores) != m.TeamCount() {
		return Validationf("expected scores for %d teams, got %d", m.TeamCount(), len(scores))
	}
	total := 0
	for teamID, score := range scores {
		if !m.HasTeam(teamID) {
			return Validationf("team %s is not part of match %s", teamID, m.ID)
		}
		if score < 0 {
			return Validationf("score of team %s is negative", teamID)
		}
		if score > m.MaxScore() {
			return Validationf("score %d of team %s exceeds the maximum of %d", score, teamID, m.MaxScore())
		}
		total += score
	}
	if total > m.TotalMaxScore() {
		return Validationf("scores add up to %d, more than the %d allowed", total, m.TotalMaxScore())
	}
	winners, _ := m.splitScores(scores)
	if len(winners) != m.ExpectedWinners() {
		return Validationf("result has %d winners, expected %d", len(winners), m.ExpectedWinners())
	}
	if len(times) > m.Games() {
		return Validationf("%d game times reported for a %s match", len(times), m.BoType)
	}
	for _, t := range times {
		if t < 0 {
			return Validationf("game time %d is negative", t)
		}
	}

	for i := range m.Scores {
		m.Scores[i].Score = scores[m.Scores[i].TeamID]
	}
	m.Times = append([]int(nil), times...)
	m.Status = MatchCompleted
	return nil
}
