package repository

import (
	"context"
	"encoding/json"

	"boostd/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OutcomeRepository struct {
	db *pgxpool.Pool
}

func NewOutcomeRepository(db *pgxpool.Pool) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// Create сохраняет итог сессии в историю
func (r *OutcomeRepository) Create(ctx context.Context, rec *domain.GameOutcomeRecord) error {
	detailsJSON, err := json.Marshal(rec.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO boost_game_outcomes
			(session_id, user_id, boost_id, game_type, state, result, interaction_count, time_taken_millis, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (session_id) DO UPDATE SET
			state = EXCLUDED.state,
			result = EXCLUDED.result,
			details = EXCLUDED.details
		 RETURNING id, created_at`,
		rec.SessionID,
		rec.UserID,
		rec.BoostID,
		rec.GameType,
		rec.State,
		rec.Result,
		rec.InteractionCount,
		rec.TimeTakenMillis,
		detailsJSON,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// GetByUser возвращает последние сессии пользователя
func (r *OutcomeRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*domain.GameOutcomeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, user_id, boost_id, game_type, state, result,
				interaction_count, time_taken_millis, details, created_at
		 FROM boost_game_outcomes
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// OutcomeStats - сводка по категориям результата
type OutcomeStats struct {
	UserID   string `json:"user_id"`
	Total    int    `json:"total"`
	Redeemed int    `json:"redeemed"`
	Pending  int    `json:"pending"`
	Failed   int    `json:"failed"`
}

func (r *OutcomeRepository) StatsByUser(ctx context.Context, userID string) (*OutcomeStats, error) {
	stats := &OutcomeStats{UserID: userID}
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE result = 'REDEEMED'),
			COUNT(*) FILTER (WHERE result = 'PENDING'),
			COUNT(*) FILTER (WHERE result = 'FAILED')
		 FROM boost_game_outcomes
		 WHERE user_id = $1`,
		userID,
	).Scan(&stats.Total, &stats.Redeemed, &stats.Pending, &stats.Failed)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanOutcomes(rows pgx.Rows) ([]*domain.GameOutcomeRecord, error) {
	var result []*domain.GameOutcomeRecord
	for rows.Next() {
		var (
			rec         domain.GameOutcomeRecord
			detailsJSON []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.UserID, &rec.BoostID, &rec.GameType,
			&rec.State, &rec.Result, &rec.InteractionCount, &rec.TimeTakenMillis,
			&detailsJSON, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &rec.Details)
		}
		result = append(result, &rec)
	}
	return result, rows.Err()
}
