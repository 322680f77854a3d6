package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/tournament"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type matchRow struct {
	ID           uuid.UUID              `db:"id"`
	TournamentID uuid.UUID              `db:"tournament_id"`
	StageKind    tournament.StageKind   `db:"stage_kind"`
	StageID      uuid.UUID              `db:"stage_id"`
	BracketSet   tournament.BracketSet  `db:"bracket_set"`
	ScoreGroup   int                    `db:"score_group"`
	RoundNumber  int                    `db:"round_number"`
	IndexInRound int                    `db:"index_in_round"`
	Status       tournament.MatchStatus `db:"status"`
	BoType       tournament.BoType      `db:"bo_type"`
	Times        string                 `db:"times"`
	CreatedAt    time.Time              `db:"created_at"`
}

func toRow(m *tournament.Match) (matchRow, error) {
	times := m.Times
	if times == nil {
		times = []int{}
	}
	encoded, err := json.Marshal(times)
	if err != nil {
		return matchRow{}, fmt.Errorf("failed to encode game times: %w", err)
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return matchRow{
		ID:           m.ID,
		TournamentID: m.TournamentID,
		StageKind:    m.Stage.Kind,
		StageID:      m.Stage.ID,
		BracketSet:   m.Stage.Set,
		ScoreGroup:   m.Stage.ScoreGroup,
		RoundNumber:  m.RoundNumber,
		IndexInRound: m.IndexInRound,
		Status:       m.Status,
		BoType:       m.BoType,
		Times:        string(encoded),
		CreatedAt:    createdAt,
	}, nil
}

func (r matchRow) toMatch() (*tournament.Match, error) {
	var times []int
	if err := json.Unmarshal([]byte(r.Times), &times); err != nil {
		return nil, fmt.Errorf("failed to decode game times of match %s: %w", r.ID, err)
	}
	return &tournament.Match{
		ID:           r.ID,
		TournamentID: r.TournamentID,
		Stage: tournament.StageRef{
			Kind:       r.StageKind,
			ID:         r.StageID,
			Set:        r.BracketSet,
			ScoreGroup: r.ScoreGroup,
		},
		RoundNumber:  r.RoundNumber,
		IndexInRound: r.IndexInRound,
		Status:       r.Status,
		BoType:       r.BoType,
		Times:        times,
		CreatedAt:    r.CreatedAt,
	}, nil
}

// CreateMatches inserts matches together with the score row of every seated team.
func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []tournament.Match) error {
	if len(matches) == 0 {
		return nil
	}
	rows := make([]matchRow, 0, len(matches))
	var scores []tournament.Score
	for i := range matches {
		row, err := toRow(&matches[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
		scores = append(scores, matches[i].Scores...)
	}

	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, stage_kind, stage_id, bracket_set, score_group,
            round_number, index_in_round, status, bo_type, times, created_at)
        VALUES (:id, :tournament_id, :stage_kind, :stage_id, :bracket_set, :score_group,
            :round_number, :index_in_round, :status, :bo_type, :times, :created_at)`, rows)
	if err != nil {
		return fmt.Errorf("failed to insert matches: %w", err)
	}
	return s.insertScores(ctx, tx, scores)
}

func (s *TournamentStore) insertScores(ctx context.Context, tx *sqlx.Tx, scores []tournament.Score) error {
	if len(scores) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO scores (match_id, team_id, score, slot)
        VALUES (:match_id, :team_id, :score, :slot)`, scores)
	if err != nil {
		return fmt.Errorf("failed to insert scores: %w", err)
	}
	return nil
}

func (s *TournamentStore) GetMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*tournament.Match, error) {
	var row matchRow
	if err := sqlx.GetContext(ctx, s.ext(q), &row, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, notFound(err, "match %s", id)
	}
	m, err := row.toMatch()
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, s.ext(q), &m.Scores,
		"SELECT match_id, team_id, score, slot FROM scores WHERE match_id = ? ORDER BY slot ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	return m, nil
}

// ListStageMatches loads every match of a stage with its scores, in play position order.
func (s *TournamentStore) ListStageMatches(ctx context.Context, q sqlx.ExtContext, stageID uuid.UUID) ([]*tournament.Match, error) {
	var rows []matchRow
	err := sqlx.SelectContext(ctx, s.ext(q), &rows, `SELECT * FROM matches WHERE stage_id = ?
        ORDER BY bracket_set ASC, score_group ASC, round_number DESC, index_in_round ASC`, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	var scores []tournament.Score
	err = sqlx.SelectContext(ctx, s.ext(q), &scores, `SELECT s.match_id, s.team_id, s.score, s.slot
        FROM scores s JOIN matches m ON m.id = s.match_id
        WHERE m.stage_id = ? ORDER BY s.slot ASC`, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}

	matches := make([]*tournament.Match, 0, len(rows))
	byID := make(map[uuid.UUID]*tournament.Match, len(rows))
	for _, row := range rows {
		m, err := row.toMatch()
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
		byID[m.ID] = m
	}
	for _, sc := range scores {
		if m, ok := byID[sc.MatchID]; ok {
			m.Scores = append(m.Scores, sc)
		}
	}
	return matches, nil
}

// UpdateMatch writes the status, best-of type, times and seated teams of a match.
func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, m *tournament.Match) error {
	row, err := toRow(m)
	if err != nil {
		return err
	}
	result, err := tx.NamedExecContext(ctx, `UPDATE matches SET status = :status, bo_type = :bo_type, times = :times
        WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	if err := checkAffectedRows(result, tournament.NotFoundf("match %s", m.ID)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM scores WHERE match_id = ?", m.ID); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}
	return s.insertScores(ctx, tx, m.Scores)
}

func (s *TournamentStore) DeleteStageMatches(ctx context.Context, tx *sqlx.Tx, stageID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE stage_id = ?", stageID)
	return err
}

// CountStartedMatches counts the matches of a stage that are ongoing or completed.
func (s *TournamentStore) CountStartedMatches(ctx context.Context, q sqlx.ExtContext, stageID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, s.ext(q), &count,
		"SELECT COUNT(*) FROM matches WHERE stage_id = ? AND status != ?", stageID, tournament.MatchScheduled)
	return count, err
}
