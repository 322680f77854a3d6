package engine

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/AdamBeresnev/lan-tournament/internal/pairing"
	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/AdamBeresnev/lan-tournament/internal/utils"
	"github.com/google/uuid"
)

// Bucket is a swiss score group: the teams of one round sharing a record.
type Bucket struct {
	Wins   int
	Losses int
	Size   int
}

// Matches is the number of matches the bucket needs, a lone leftover team gets a bye.
func (b Bucket) Matches() int {
	return utils.CeilDiv(b.Size, 2)
}

// SwissPlan lists the buckets of every round, round 1 first. Winners of a bucket move
// up one score group and losers stay, until they reach minScore wins or losses.
func SwissPlan(teams, minScore int) [][]Bucket {
	if teams < 1 || minScore < 1 {
		return nil
	}
	rounds := 2*minScore - 1
	plan := [][]Bucket{{{Size: teams}}}
	for r := 1; r < rounds; r++ {
		sizes := make([]int, minScore)
		for _, b := range plan[r-1] {
			if b.Wins+1 < minScore {
				sizes[b.Wins+1] += utils.CeilDiv(b.Size, 2)
			}
			if b.Losses+1 < minScore {
				sizes[b.Wins] += b.Size / 2
			}
		}
		var next []Bucket
		for w, size := range sizes {
			if size > 0 {
				next = append(next, Bucket{Wins: w, Losses: r - w, Size: size})
			}
		}
		plan = append(plan, next)
	}
	return plan
}

func validateSwiss(stage tournament.Stage) error {
	if stage.Kind != tournament.KindSwiss {
		return tournament.Validationf("stage %s is a %s, not a swiss round", stage.ID, stage.Kind)
	}
	if stage.Seats() != 2 {
		return tournament.Validationf("swiss rounds are played one against one, got %d teams per match", stage.Seats())
	}
	if stage.MinScore < 1 {
		return tournament.Validationf("min score must be at least 1, got %d", stage.MinScore)
	}
	if stage.BoType == tournament.Ranking || !stage.BoType.Valid() {
		return tournament.Validationf("swiss matches need a best-of type, got %s", stage.BoType)
	}
	return nil
}

// NewSwissMatches creates every round of a swiss stage. Round 1 pairs teams, given in
// seeding order, best against worst; later rounds are left empty for FillSwissRound.
func NewSwissMatches(stage tournament.Stage, teams []uuid.UUID) ([]tournament.Match, error) {
	if err := validateSwiss(stage); err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, tournament.Validationf("a swiss round needs at least 2 teams, got %d", len(teams))
	}

	var matches []tournament.Match
	for r, buckets := range SwissPlan(len(teams), stage.MinScore) {
		for _, b := range buckets {
			for i := 1; i <= b.Matches(); i++ {
				matches = append(matches, newMatch(stage, "", b.Wins, r+1, i))
			}
		}
	}

	first := make([]*tournament.Match, 0, utils.CeilDiv(len(teams), 2))
	for i := range matches {
		if matches[i].RoundNumber == 1 {
			first = append(first, &matches[i])
		}
	}
	if err := fillBucket(first, teams); err != nil {
		return nil, err
	}
	return matches, nil
}

func fillBucket(matches []*tournament.Match, teams []uuid.UUID) error {
	pairs := pairing.CirclePairs(pairing.CircleSlots(len(teams)))
	if len(pairs) != len(matches) {
		return tournament.Invariantf("%d teams need %d matches, bucket has %d", len(teams), len(pairs), len(matches))
	}
	for i, p := range pairs {
		m := matches[i]
		m.ClearTeams()
		for _, slot := range p {
			if slot != pairing.Bye {
				m.AddTeam(teams[slot])
			}
		}
	}
	return nil
}

// FillSwissRound pairs a pre-created round from the results of the round before. Each
// score group is shuffled and then paired. It returns the filled matches.
func FillSwissRound(stage tournament.Stage, matches []*tournament.Match, round int, rng *rand.Rand) ([]*tournament.Match, error) {
	if err := validateSwiss(stage); err != nil {
		return nil, err
	}
	if round < 2 || round > stage.SwissRounds() {
		return nil, tournament.Validationf("swiss stage %s has rounds 2 to %d to generate, got %d", stage.ID, stage.SwissRounds(), round)
	}

	buckets := make(map[int][]uuid.UUID)
	targets := make(map[int][]*tournament.Match)
	var previous []*tournament.Match
	for _, m := range matches {
		switch m.RoundNumber {
		case round - 1:
			previous = append(previous, m)
		case round:
			if m.Status != tournament.MatchScheduled {
				return nil, tournament.Conflictf("round %d already started", round)
			}
			targets[m.Stage.ScoreGroup] = append(targets[m.Stage.ScoreGroup], m)
		}
	}

	slices.SortFunc(previous, func(a, b *tournament.Match) int {
		if c := cmp.Compare(a.Stage.ScoreGroup, b.Stage.ScoreGroup); c != 0 {
			return c
		}
		return cmp.Compare(a.IndexInRound, b.IndexInRound)
	})
	for _, m := range previous {
		if m.Status != tournament.MatchCompleted {
			return nil, tournament.Conflictf("match %s of round %d is not completed", m.ID, round-1)
		}
		wins := m.Stage.ScoreGroup
		losses := round - 2 - wins
		winners, losers := m.WinnersLosers()
		if wins+1 < stage.MinScore {
			buckets[wins+1] = append(buckets[wins+1], winners...)
		}
		if losses+1 < stage.MinScore {
			buckets[wins] = append(buckets[wins], losers...)
		}
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	var filled []*tournament.Match
	for group, teams := range buckets {
		if _, ok := targets[group]; !ok && len(teams) > 0 {
			return nil, tournament.Invariantf("round %d has no score group %d for %d teams", round, group, len(teams))
		}
	}
	groups := make([]int, 0, len(targets))
	for group := range targets {
		groups = append(groups, group)
	}
	slices.Sort(groups)
	for _, group := range groups {
		ms := targets[group]
		slices.SortFunc(ms, func(a, b *tournament.Match) int { return a.IndexInRound - b.IndexInRound })
		teams := buckets[group]
		rng.Shuffle(len(teams), func(i, j int) { teams[i], teams[j] = teams[j], teams[i] })
		if err := fillBucket(ms, teams); err != nil {
			return nil, err
		}
		filled = append(filled, ms...)
	}
	return filled, nil
}

type SwissStatus string

const (
	SwissActive     SwissStatus = "active"
	SwissQualified  SwissStatus = "qualified"
	SwissEliminated SwissStatus = "eliminated"
)

// SwissRecord is a team's running record in a swiss stage.
type SwissRecord struct {
	TeamID uuid.UUID   `json:"team_id"`
	Wins   int         `json:"wins"`
	Losses int         `json:"losses"`
	Status SwissStatus `json:"status"`
}

// SwissStandings counts wins and losses over completed matches. Byes count as wins.
// Records are ordered by wins, then losses, then the given team order.
func SwissStandings(stage tournament.Stage, teams []uuid.UUID, matches []*tournament.Match) []SwissRecord {
	records := make([]SwissRecord, len(teams))
	pos := make(map[uuid.UUID]int, len(teams))
	for i, id := range teams {
		records[i].TeamID = id
		pos[id] = i
	}

	for _, m := range matches {
		if m.Status != tournament.MatchCompleted {
			continue
		}
		winners, losers := m.WinnersLosers()
		for _, id := range winners {
			if i, ok := pos[id]; ok {
				records[i].Wins++
			}
		}
		for _, id := range losers {
			if i, ok := pos[id]; ok {
				records[i].Losses++
			}
		}
	}

	for i := range records {
		switch {
		case records[i].Wins >= stage.MinScore:
			records[i].Status = SwissQualified
		case records[i].Losses >= stage.MinScore:
			records[i].Status = SwissEliminated
		default:
			records[i].Status = SwissActive
		}
	}
	slices.SortStableFunc(records, func(a, b SwissRecord) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.Losses, b.Losses)
	})
	return records
}
