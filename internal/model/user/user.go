package user

import "time"

type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	Balance    int64     `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}

// Eligible reports whether the account may take part in the rewards
// programme: only active and verified users earn, spend and rank.
func (u *User) Eligible() bool {
	return u.IsActive && u.IsVerified
}
