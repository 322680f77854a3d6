package store

import (
	"context"

	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *TournamentStore) CreateStage(ctx context.Context, tx *sqlx.Tx, stage *tournament.Stage) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO stages (id, tournament_id, kind, name, bo_type, teams_per_match,
            bracket_type, team_count, round_count, min_score, use_seeding, created_at)
        VALUES (:id, :tournament_id, :kind, :name, :bo_type, :teams_per_match,
            :bracket_type, :team_count, :round_count, :min_score, :use_seeding, :created_at)`, stage)
	return err
}

func (s *TournamentStore) GetStage(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.Stage, error) {
	var stage tournament.Stage
	err := sqlx.GetContext(ctx, s.ext(q), &stage, "SELECT * FROM stages WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "stage %s", id)
	}
	return &stage, nil
}

func (s *TournamentStore) ListStages(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]tournament.Stage, error) {
	var stages []tournament.Stage
	err := sqlx.SelectContext(ctx, s.ext(q), &stages,
		"SELECT * FROM stages WHERE tournament_id = ? ORDER BY created_at ASC, rowid ASC", tournamentID)
	return stages, err
}

func (s *TournamentStore) UpdateStageBoType(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, boType tournament.BoType) error {
	result, err := tx.ExecContext(ctx, "UPDATE stages SET bo_type = ? WHERE id = ?", boType, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, tournament.NotFoundf("stage %s", id))
}

// DeleteStage removes a stage. Its seedings, matches and scores cascade.
func (s *TournamentStore) DeleteStage(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, "DELETE FROM stages WHERE id = ?", id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, tournament.NotFoundf("stage %s", id))
}

func (s *TournamentStore) CreateSeedings(ctx context.Context, tx *sqlx.Tx, seedings []tournament.Seeding) error {
	if len(seedings) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO seedings (stage_id, team_id, seeding)
        VALUES (:stage_id, :team_id, :seeding)`, seedings)
	return err
}

// ListSeedings returns the seedings of a stage, best first.
func (s *TournamentStore) ListSeedings(ctx context.Context, q sqlx.ExtContext, stageID uuid.UUID) ([]tournament.Seeding, error) {
	var seedings []tournament.Seeding
	err := sqlx.SelectContext(ctx, s.ext(q), &seedings,
		"SELECT stage_id, team_id, seeding FROM seedings WHERE stage_id = ? ORDER BY seeding ASC", stageID)
	return seedings, err
}

func (s *TournamentStore) DeleteSeedings(ctx context.Context, tx *sqlx.Tx, stageID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM seedings WHERE stage_id = ?", stageID)
	return err
}
