package tournament

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/utils"
	"github.com/google/uuid"
)

type StageKind string

const (
	KindBracket StageKind = "bracket"
	KindGroup   StageKind = "group"
	KindSwiss   StageKind = "swiss"
)

type BracketType string

const (
	SingleElimination BracketType = "single"
	DoubleElimination BracketType = "double"
)

// BoType is the best-of count of a match. Ranking matches score placements instead of wins.
type BoType int

const (
	Ranking BoType = 0
	BO1     BoType = 1
	BO3     BoType = 3
	BO5     BoType = 5
	BO7     BoType = 7
)

func (b BoType) Valid() bool {
	switch b {
	case Ranking, BO1, BO3, BO5, BO7:
		return true
	}
	return false
}

func (b BoType) String() string {
	if b == Ranking {
		return "ranking"
	}
	return fmt.Sprintf("bo%d", int(b))
}

func ParseBoType(s string) (BoType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ranking":
		return Ranking, nil
	case "bo1", "1", "":
		return BO1, nil
	case "bo3", "3":
		return BO3, nil
	case "bo5", "5":
		return BO5, nil
	case "bo7", "7":
		return BO7, nil
	}
	return 0, Validationf("unknown best-of type %q", s)
}

func (b BoType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *BoType) UnmarshalText(text []byte) error {
	parsed, err := ParseBoType(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Stage is the persisted form of a bracket, a group or a swiss round.
// Only the fields of its Kind are meaningful.
type Stage struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TournamentID  uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Kind          StageKind `db:"kind" json:"kind"`
	Name          string    `db:"name" json:"name"`
	BoType        BoType    `db:"bo_type" json:"bo_type"`
	TeamsPerMatch int       `db:"teams_per_match" json:"teams_per_match"`

	BracketType BracketType `db:"bracket_type" json:"bracket_type"`
	TeamCount   int         `db:"team_count" json:"team_count"`

	RoundCount int `db:"round_count" json:"round_count"`

	MinScore   int  `db:"min_score" json:"min_score"`
	UseSeeding bool `db:"use_seeding" json:"use_seeding"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Seats is how many teams play each match.
func (s Stage) Seats() int {
	if s.TeamsPerMatch < 2 {
		return 2
	}
	return s.TeamsPerMatch
}

// Depth is ceil(log2(team_count / teams_per_match)) + 1, computed on integers.
func (s Stage) Depth() int {
	k := 0
	for s.Seats()<<k < s.TeamCount {
		k++
	}
	return k + 1
}

// MaxMatchCount is the number of matches needed to seat every team in the first round.
func (s Stage) MaxMatchCount() int {
	return utils.CeilDiv(s.TeamCount, s.Seats())
}

// SwissRounds is the number of rounds needed to resolve every record.
func (s Stage) SwissRounds() int {
	return 2*s.MinScore - 1
}

// FinalRef addresses the match deciding a bracket.
func (s Stage) FinalRef() (BracketSet, int) {
	if s.BracketType == DoubleElimination {
		return WinnerSet, 0
	}
	return WinnerSet, 1
}
