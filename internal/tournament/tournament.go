package tournament

import (
	"time"

	"github.com/google/uuid"
)

type Tournament struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	MaxTeams      int       `db:"max_teams" json:"max_teams"`
	TeamsPerMatch int       `db:"teams_per_match" json:"teams_per_match"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Team is read-only for the engine, rosters are managed elsewhere.
type Team struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Name         string    `db:"name" json:"name"`
	Seed         int       `db:"seed" json:"seed"`
	Validated    bool      `db:"validated" json:"validated"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Seeded reports whether the team carries an explicit seed. Seed 0 means unseeded.
func (t Team) Seeded() bool {
	return t.Seed > 0
}

// Seeding ties a team to its position inside a group or swiss stage.
type Seeding struct {
	StageID uuid.UUID `db:"stage_id" json:"stage_id"`
	TeamID  uuid.UUID `db:"team_id" json:"team_id"`
	Seeding int       `db:"seeding" json:"seeding"`
}
