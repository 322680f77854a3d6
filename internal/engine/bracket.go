// Package engine holds the format engines. They work on in-memory matches and never
// touch storage; callers load a stage, run an engine step and persist what changed.
package engine

import (
	"slices"

	"github.com/AdamBeresnev/lan-tournament/internal/pairing"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/AdamBeresnev/lan-tournament/internal/utils"
	"github.com/google/uuid"
)

// Placement routes one team into a later match of the same stage.
type Placement struct {
	TeamID uuid.UUID
	Key    tournament.MatchKey
}

// WinnerRoundSize is the number of matches in winner round r (depth is played first).
func WinnerRoundSize(stage tournament.Stage, r int) int {
	depth := stage.Depth()
	if r < 1 || r > depth {
		return 0
	}
	return min(utils.Pow2(r-1), utils.CeilDiv(stage.MaxMatchCount(), utils.Pow2(depth-r)))
}

// LooserRoundSize is the number of matches in looser round r, 2*depth-2 being played first.
func LooserRoundSize(stage tournament.Stage, r int) int {
	depth := stage.Depth()
	if stage.BracketType != tournament.DoubleElimination || r < 1 || r > 2*depth-2 {
		return 0
	}
	return min(utils.Pow2((r-1)/2), utils.CeilDiv(stage.MaxMatchCount(), utils.Pow2(depth-(r+1)/2)))
}

// RoundSize is the number of matches in a round of either set. Round 0 of the winner
// set is the grand final of a double elimination bracket.
func RoundSize(stage tournament.Stage, set tournament.BracketSet, r int) int {
	if set == tournament.LooserSet {
		return LooserRoundSize(stage, r)
	}
	if r == 0 {
		if stage.BracketType == tournament.DoubleElimination {
			return 1
		}
		return 0
	}
	return WinnerRoundSize(stage, r)
}

func validateBracket(stage tournament.Stage) error {
	if stage.Kind != tournament.KindBracket {
		return tournament.Validationf("stage %s is a %s, not a bracket", stage.ID, stage.Kind)
	}
	if stage.TeamCount < 2 {
		return tournament.Validationf("a bracket needs at least 2 teams, got %d", stage.TeamCount)
	}
	if stage.Seats()%2 != 0 {
		return tournament.Validationf("bracket matches need an even number of teams, got %d per match", stage.Seats())
	}
	switch stage.BracketType {
	case tournament.SingleElimination:
	case tournament.DoubleElimination:
		if stage.Depth() < 2 {
			return tournament.Validationf("double elimination needs more than one round, %d teams fit a single match", stage.TeamCount)
		}
	default:
		return tournament.Validationf("unknown bracket type %q", stage.BracketType)
	}
	if !stage.BoType.Valid() {
		return tournament.Validationf("invalid best-of type %d", stage.BoType)
	}
	return nil
}

// NewBracketMatches creates every match of a bracket, all empty and scheduled.
func NewBracketMatches(stage tournament.Stage) ([]tournament.Match, error) {
	if err := validateBracket(stage); err != nil {
		return nil, err
	}

	var matches []tournament.Match
	for r := stage.Depth(); r >= 1; r-- {
		for i := 1; i <= WinnerRoundSize(stage, r); i++ {
			matches = append(matches, newMatch(stage, tournament.WinnerSet, 0, r, i))
		}
	}
	if stage.BracketType == tournament.DoubleElimination {
		for r := 2*stage.Depth() - 2; r >= 1; r-- {
			for i := 1; i <= LooserRoundSize(stage, r); i++ {
				matches = append(matches, newMatch(stage, tournament.LooserSet, 0, r, i))
			}
		}
		matches = append(matches, newMatch(stage, tournament.WinnerSet, 0, 0, 1))
	}
	return matches, nil
}

func newMatch(stage tournament.Stage, set tournament.BracketSet, scoreGroup, round, index int) tournament.Match {
	return tournament.Match{
		ID:           uuid.New(),
		TournamentID: stage.TournamentID,
		Stage: tournament.StageRef{
			Kind:       stage.Kind,
			ID:         stage.ID,
			Set:        set,
			ScoreGroup: scoreGroup,
		},
		RoundNumber:  round,
		IndexInRound: index,
		Status:       tournament.MatchScheduled,
		BoType:       stage.BoType,
	}
}

// SeedBracket seats teams, best first, in the first winner round. Teams are dealt back
// and forth over the matches so the best share a match with the worst, and the matches
// follow bracket seed order so the best teams meet last.
func SeedBracket(stage tournament.Stage, matches []*tournament.Match, teams []uuid.UUID) error {
	if len(teams) > stage.TeamCount {
		return tournament.Validationf("bracket holds %d teams, got %d", stage.TeamCount, len(teams))
	}
	first := RoundMatches(matches, tournament.WinnerSet, 0, stage.Depth())
	if len(first) != WinnerRoundSize(stage, stage.Depth()) {
		return tournament.Invariantf("first round of bracket %s has %d matches, expected %d",
			stage.ID, len(first), WinnerRoundSize(stage, stage.Depth()))
	}

	snake := pairing.Snake(len(teams), len(first))
	for p, seed := range pairing.MatchOrder(len(first)) {
		m := first[p]
		if m.Status != tournament.MatchScheduled {
			return tournament.Conflictf("match %s already started", m.ID)
		}
		m.ClearTeams()
		for _, ti := range snake[seed] {
			m.AddTeam(teams[ti])
		}
	}
	return nil
}

// RoundMatches returns the matches of one round ordered by index.
func RoundMatches(matches []*tournament.Match, set tournament.BracketSet, scoreGroup, round int) []*tournament.Match {
	var out []*tournament.Match
	for _, m := range matches {
		if m.Stage.Set == set && m.Stage.ScoreGroup == scoreGroup && m.RoundNumber == round {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *tournament.Match) int { return a.IndexInRound - b.IndexInRound })
	return out
}

// AdvanceTargets computes where the teams of a completed bracket match go next.
func AdvanceTargets(stage tournament.Stage, m *tournament.Match) ([]Placement, error) {
	if m.Status != tournament.MatchCompleted {
		return nil, tournament.Invariantf("match %s is %s, only completed matches advance", m.ID, m.Status)
	}
	winners, losers := m.WinnersLosers()
	depth := stage.Depth()
	double := stage.BracketType == tournament.DoubleElimination
	r, idx := m.RoundNumber, m.IndexInRound

	var out []Placement
	route := func(teams []uuid.UUID, set tournament.BracketSet, round, base int, reverse bool) error {
		count := RoundSize(stage, set, round)
		for i, team := range teams {
			target := pairing.FoldIndex(base, i, len(teams), count)
			if reverse {
				target = count - target - 1
			}
			if target < 0 || target >= count {
				return tournament.Invariantf("match %s routes to %s round %d index %d, which has %d matches",
					m.ID, set, round, target+1, count)
			}
			out = append(out, Placement{
				TeamID: team,
				Key:    tournament.MatchKey{Set: set, Round: round, Index: target + 1},
			})
		}
		return nil
	}

	switch m.Stage.Set {
	case tournament.WinnerSet:
		if r == 0 {
			return nil, nil
		}
		if r == 1 {
			if double {
				if err := route(winners, tournament.WinnerSet, 0, 0, false); err != nil {
					return nil, err
				}
			}
		} else if err := route(winners, tournament.WinnerSet, r-1, utils.CeilDiv(idx, 2)-1, false); err != nil {
			return nil, err
		}
		if double {
			target, base := 2*r-1, idx-1
			if r == depth {
				target, base = 2*(depth-1), utils.CeilDiv(idx, 2)-1
			}
			if err := route(losers, tournament.LooserSet, target, base, (depth-r)%2 == 1); err != nil {
				return nil, err
			}
		}
	case tournament.LooserSet:
		if r == 1 {
			if err := route(winners, tournament.WinnerSet, 0, 0, false); err != nil {
				return nil, err
			}
			break
		}
		base := idx - 1
		if r%2 == 1 {
			base = utils.CeilDiv(idx, 2) - 1
		}
		if err := route(winners, tournament.LooserSet, r-1, base, false); err != nil {
			return nil, err
		}
	default:
		return nil, tournament.Invariantf("match %s has no bracket set", m.ID)
	}
	return out, nil
}

// Advance seats the teams of a completed match in the matches that follow it and
// returns the matches that gained a team. A team already seated in its target is
// skipped, so advancing twice changes nothing.
func Advance(stage tournament.Stage, matches []*tournament.Match, completed *tournament.Match) ([]*tournament.Match, error) {
	placements, err := AdvanceTargets(stage, completed)
	if err != nil {
		return nil, err
	}

	index := make(map[tournament.MatchKey]*tournament.Match, len(matches))
	for _, m := range matches {
		index[m.Key()] = m
	}

	var changed []*tournament.Match
	for _, p := range placements {
		target, ok := index[p.Key]
		if !ok {
			return nil, tournament.Invariantf("bracket %s has no match %s round %d index %d",
				stage.ID, p.Key.Set, p.Key.Round, p.Key.Index)
		}
		if target.HasTeam(p.TeamID) {
			continue
		}
		if target.Status != tournament.MatchScheduled {
			return nil, tournament.Invariantf("match %s is %s and cannot take team %s", target.ID, target.Status, p.TeamID)
		}
		if target.TeamCount() >= stage.Seats() {
			return nil, tournament.Invariantf("match %s is already full", target.ID)
		}
		target.AddTeam(p.TeamID)
		if !slices.Contains(changed, target) {
			changed = append(changed, target)
		}
	}
	return changed, nil
}

// Final returns the match that decides the bracket.
func Final(stage tournament.Stage, matches []*tournament.Match) (*tournament.Match, bool) {
	set, round := stage.FinalRef()
	for _, m := range matches {
		if m.Stage.Set == set && m.RoundNumber == round && m.IndexInRound == 1 {
			return m, true
		}
	}
	return nil, false
}

// BracketWinner is the single winner of the completed final.
func BracketWinner(stage tournament.Stage, matches []*tournament.Match) (uuid.UUID, bool) {
	final, ok := Final(stage, matches)
	if !ok || final.Status != tournament.MatchCompleted {
		return uuid.Nil, false
	}
	winners, _ := final.WinnersLosers()
	if len(winners) != 1 {
		return uuid.Nil, false
	}
	return winners[0], true
}

// PlayOrder ranks the rounds of a stage in the order they are played, starting at 1.
// Matches of equal order may run side by side.
func PlayOrder(stage tournament.Stage, m *tournament.Match) int {
	if stage.Kind != tournament.KindBracket {
		return m.RoundNumber
	}
	depth := stage.Depth()
	switch {
	case m.Stage.Set == tournament.LooserSet:
		return 2*depth - m.RoundNumber
	case m.RoundNumber == 0:
		return 2 * depth
	default:
		return depth - m.RoundNumber + 1
	}
}
