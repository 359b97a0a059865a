package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talx-hub/gopher-points/internal/model/board"
	"github.com/talx-hub/gopher-points/internal/model/ledger"
)

type BoardRepository struct {
	DB
}

func NewBoardRepository(pool connectionPool, log *slog.Logger) *BoardRepository {
	return &BoardRepository{
		DB{
			pool: pool,
			log:  log,
		},
	}
}

// Window population: credit sums over completed transactions inside [from,
// to), active+verified users only, positive sums only. Ordering is points
// descending with the case-sensitive username tie-break, which makes the
// top-N slice deterministic.
const windowTotalsQuery = `
	SELECT u.id_user, u.username, SUM(t.amount) AS points
	  FROM transactions t
	  JOIN users u ON u.id_user = t.id_user
	 WHERE t.direction = 'credit'
	   AND t.status_tx = $1
	   AND t.created_at >= $2 AND t.created_at < $3
	   AND u.is_active AND u.is_verified
	 GROUP BY u.id_user, u.username
	HAVING SUM(t.amount) > 0
	 ORDER BY points DESC, u.username ASC`

const allTimeTotalsQuery = `
	SELECT id_user, username, balance AS points
	  FROM users
	 WHERE is_active AND is_verified AND balance > 0
	 ORDER BY points DESC, username ASC`

func (r *BoardRepository) TopWindow(ctx context.Context,
	from, to time.Time, limit int,
) ([]board.Row, error) {
	return r.top(ctx,
		windowTotalsQuery+` LIMIT $4`,
		string(ledger.StatusCompleted), from, to, limit)
}

// TopAllTime ranks the cached balance directly, not a ledger recomputation.
func (r *BoardRepository) TopAllTime(ctx context.Context, limit int,
) ([]board.Row, error) {
	return r.top(ctx, allTimeTotalsQuery+` LIMIT $1`, limit)
}

func (r *BoardRepository) top(ctx context.Context, query string, args ...any,
) ([]board.Row, error) {
	topLogic := func() ([]board.Row, error) {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query leaderboard: %w", err)
		}
		defer rows.Close()

		var result []board.Row
		for rows.Next() {
			var row board.Row
			if err = rows.Scan(&row.UserID, &row.Username, &row.Points); err != nil {
				return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
			}
			result = append(result, row)
		}
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
		}
		return result, nil
	}

	return WithRetry[[]board.Row](topLogic, 0)
}

// UserWindowRank reports one user's tie-broken position and the participant
// count inside a window. Ranked is false when the user has no positive
// credit sum there.
func (r *BoardRepository) UserWindowRank(ctx context.Context,
	userID string, from, to time.Time,
) (board.UserRank, error) {
	query := fmt.Sprintf(`
		WITH totals AS (%s),
		ranked AS (
			SELECT id_user, points,
			       ROW_NUMBER() OVER (ORDER BY points DESC, username ASC) AS position
			  FROM totals
		)
		SELECT position, points, (SELECT COUNT(*) FROM totals)
		  FROM ranked WHERE id_user = $4`, windowTotalsQuery)

	return r.userRank(ctx, query,
		string(ledger.StatusCompleted), from, to, userID)
}

func (r *BoardRepository) UserAllTimeRank(ctx context.Context, userID string,
) (board.UserRank, error) {
	query := fmt.Sprintf(`
		WITH totals AS (%s),
		ranked AS (
			SELECT id_user, points,
			       ROW_NUMBER() OVER (ORDER BY points DESC, username ASC) AS position
			  FROM totals
		)
		SELECT position, points, (SELECT COUNT(*) FROM totals)
		  FROM ranked WHERE id_user = $1`, allTimeTotalsQuery)

	return r.userRank(ctx, query, userID)
}

func (r *BoardRepository) userRank(ctx context.Context, query string, args ...any,
) (board.UserRank, error) {
	rankLogic := func() (board.UserRank, error) {
		var rank board.UserRank
		err := r.pool.QueryRow(ctx, query, args...).
			Scan(&rank.Rank, &rank.Points, &rank.Participants)
		if errors.Is(err, pgx.ErrNoRows) {
			// user absent from the window: report the participant count only
			var total int
			countQuery := fmt.Sprintf(
				`SELECT COUNT(*) FROM (%s) totals`, windowTotalsQuery)
			countArgs := args[:len(args)-1]
			if len(args) == 1 { // all-time variant
				countQuery = fmt.Sprintf(
					`SELECT COUNT(*) FROM (%s) totals`, allTimeTotalsQuery)
				countArgs = nil
			}
			if err = r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
				return board.UserRank{}, fmt.Errorf("failed to count participants: %w", err)
			}
			return board.UserRank{Ranked: false, Participants: total}, nil
		}
		if err != nil {
			return board.UserRank{}, fmt.Errorf("failed to query user rank: %w", err)
		}
		rank.Ranked = true
		return rank, nil
	}

	return WithRetry[board.UserRank](rankLogic, 0)
}
