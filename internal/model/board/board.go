package board

// Window selects the aggregation period of a leaderboard query.
type Window string

const (
	WindowDaily   Window = "daily"
	WindowMonthly Window = "monthly"
	WindowAllTime Window = "alltime"
)

// Row is one user's aggregated points inside a window, before ranking.
type Row struct {
	UserID   string
	Username string
	Points   int64
}

// Entry is a ranked leaderboard line as exposed to clients.
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	Badge    string `json:"badge"`
}

// UserRank is an individual position within a window. Ranked is false when
// the user has no positive points in the window.
type UserRank struct {
	Window       Window `json:"window"`
	Ranked       bool   `json:"ranked"`
	Rank         int    `json:"rank,omitempty"`
	Points       int64  `json:"points,omitempty"`
	Participants int    `json:"participants"`
}

// BadgeFor maps a final tie-broken position to its badge.
func BadgeFor(rank int) string {
	switch {
	case rank == 1:
		return "Gold"
	case rank == 2:
		return "Silver"
	case rank == 3:
		return "Bronze"
	case rank <= 5:
		return "Top 5"
	case rank <= 10:
		return "Top 10"
	default:
		return "Participant"
	}
}
