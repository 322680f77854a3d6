package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TournamentStore persists tournaments and everything below them. Writes take the
// caller's transaction; reads take any queryer and fall back to the pool when it is nil.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) ext(q sqlx.ExtContext) sqlx.ExtContext {
	if q != nil {
		return q
	}
	return s.db
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return tournament.NotFoundf(format, args...)
	}
	return err
}

func checkAffectedRows(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr
	}
	return nil
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, t *tournament.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, max_teams, teams_per_match, created_at)
        VALUES (:id, :name, :max_teams, :teams_per_match, :created_at)`, t)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.Tournament, error) {
	var t tournament.Tournament
	err := sqlx.GetContext(ctx, s.ext(q), &t, "SELECT * FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "tournament %s", id)
	}
	return &t, nil
}

func (s *TournamentStore) CreateTeam(ctx context.Context, tx *sqlx.Tx, team *tournament.Team) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, tournament_id, name, seed, validated, created_at)
        VALUES (:id, :tournament_id, :name, :seed, :validated, :created_at)`, team)
	return err
}

func (s *TournamentStore) GetTeam(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.Team, error) {
	var team tournament.Team
	err := sqlx.GetContext(ctx, s.ext(q), &team, "SELECT * FROM teams WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "team %s", id)
	}
	return &team, nil
}

func (s *TournamentStore) SetTeamValidated(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, validated bool) error {
	result, err := tx.ExecContext(ctx, "UPDATE teams SET validated = ? WHERE id = ?", validated, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, tournament.NotFoundf("team %s", id))
}

// ListTeams returns the teams of a tournament in registration order.
func (s *TournamentStore) ListTeams(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, validatedOnly bool) ([]tournament.Team, error) {
	query := "SELECT * FROM teams WHERE tournament_id = ?"
	if validatedOnly {
		query += " AND validated = 1"
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	var teams []tournament.Team
	err := sqlx.SelectContext(ctx, s.ext(q), &teams, query, tournamentID)
	return teams, err
}
