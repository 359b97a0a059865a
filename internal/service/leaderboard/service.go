// Package leaderboard ranks users over daily, monthly and all-time windows.
// Read-only: it never touches balances and tolerates running concurrently
// with ledger mutations.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talx-hub/gopher-points/internal/model/board"
	"github.com/talx-hub/gopher-points/internal/serviceerrs"
)

type Repo interface {
	TopWindow(ctx context.Context, from, to time.Time, limit int) ([]board.Row, error)
	TopAllTime(ctx context.Context, limit int) ([]board.Row, error)
	UserWindowRank(ctx context.Context, userID string, from, to time.Time) (board.UserRank, error)
	UserAllTimeRank(ctx context.Context, userID string) (board.UserRank, error)
}

type Service struct {
	boards Repo
	loc    *time.Location
	now    func() time.Time
	size   int
	log    *slog.Logger
}

func New(boards Repo, loc *time.Location, size int, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if size <= 0 {
		size = 10
	}
	return &Service{
		boards: boards,
		loc:    loc,
		now:    time.Now,
		size:   size,
		log:    log,
	}
}

// Location reports the calendar zone the boards are computed in. Callers
// resolving a date string must parse it in this zone, or the window picked
// by dayWindow shifts to a neighbouring day in negative-offset zones.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Daily ranks credit sums inside one calendar day; zero day means today.
func (s *Service) Daily(ctx context.Context, day time.Time,
) ([]board.Entry, error) {
	if day.IsZero() {
		day = s.now()
	}
	from, to := dayWindow(day, s.loc)
	rows, err := s.boards.TopWindow(ctx, from, to, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily leaderboard: %w", err)
	}
	return rank(rows), nil
}

// Monthly ranks credit sums inside one calendar month; zero means this month.
func (s *Service) Monthly(ctx context.Context, month time.Time,
) ([]board.Entry, error) {
	if month.IsZero() {
		month = s.now()
	}
	from, to := monthWindow(month, s.loc)
	rows, err := s.boards.TopWindow(ctx, from, to, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly leaderboard: %w", err)
	}
	return rank(rows), nil
}

// AllTime ranks the cached balances directly.
func (s *Service) AllTime(ctx context.Context) ([]board.Entry, error) {
	rows, err := s.boards.TopAllTime(ctx, s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to build all-time leaderboard: %w", err)
	}
	return rank(rows), nil
}

// UserRank reports one user's position and the participant count in a
// window. A user with zero points in the window gets Ranked == false.
func (s *Service) UserRank(ctx context.Context,
	userID string, window board.Window,
) (board.UserRank, error) {
	var (
		rank board.UserRank
		err  error
	)
	switch window {
	case board.WindowDaily:
		from, to := dayWindow(s.now(), s.loc)
		rank, err = s.boards.UserWindowRank(ctx, userID, from, to)
	case board.WindowMonthly:
		from, to := monthWindow(s.now(), s.loc)
		rank, err = s.boards.UserWindowRank(ctx, userID, from, to)
	case board.WindowAllTime:
		rank, err = s.boards.UserAllTimeRank(ctx, userID)
	default:
		return board.UserRank{}, &serviceerrs.ValidationError{
			Field:  "window",
			Reason: "must be one of daily, monthly, alltime",
		}
	}
	if err != nil {
		return board.UserRank{}, fmt.Errorf("failed to rank user: %w", err)
	}

	rank.Window = window
	return rank, nil
}

// rank assigns dense 1..N positions over the already tie-broken order and
// the badge for each final position. Users tied on points are never
// reported with the same rank: the username tie-break decides.
func rank(rows []board.Row) []board.Entry {
	entries := make([]board.Entry, len(rows))
	for i, row := range rows {
		position := i + 1
		entries[i] = board.Entry{
			Rank:     position,
			UserID:   row.UserID,
			Username: row.Username,
			Points:   row.Points,
			Badge:    board.BadgeFor(position),
		}
	}
	return entries
}

func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func monthWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
