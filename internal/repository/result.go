package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rocketscienceinc/marble-board/internal/entity"
)

const defaultLeaderboardLimit = 20

type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result) error
	Leaderboard(ctx context.Context, limit int) ([]*entity.Result, error)
}

type resultRepository struct {
	conn *sql.DB
}

func NewResultRepository(conn *sql.DB) ResultRepository {
	return &resultRepository{
		conn: conn,
	}
}

func (that *resultRepository) Save(ctx context.Context, result *entity.Result) error {
	query := `INSERT INTO results (player_id, game_id, layout, status, remaining, moves, elapsed)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		result.PlayerID, result.GameID, result.Layout, string(result.Status),
		result.Remaining, result.Moves, result.Elapsed,
	)
	if err != nil {
		return fmt.Errorf("can't save result: %w", err)
	}

	return nil
}

// Leaderboard lists won games, fastest first, then fewest moves.
func (that *resultRepository) Leaderboard(ctx context.Context, limit int) ([]*entity.Result, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	query := `SELECT player_id, game_id, layout, status, remaining, moves, elapsed
	          FROM results
	          WHERE status = ?
	          ORDER BY elapsed ASC, moves ASC, finished_at ASC, id ASC
	          LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, string(entity.StatusWon), limit)
	if err != nil {
		return nil, fmt.Errorf("can't query leaderboard: %w", err)
	}
	defer rows.Close()

	results := make([]*entity.Result, 0, limit)
	for rows.Next() {
		var (
			result entity.Result
			status string
		)

		if err = rows.Scan(&result.PlayerID, &result.GameID, &result.Layout, &status,
			&result.Remaining, &result.Moves, &result.Elapsed); err != nil {
			return nil, fmt.Errorf("can't scan result: %w", err)
		}

		result.Status = entity.Status(status)
		results = append(results, &result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read leaderboard: %w", err)
	}

	return results, nil
}
