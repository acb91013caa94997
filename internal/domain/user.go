package domain

import "time"

// GuestName is shown for players that never picked a username.
const GuestName = "guest"

type User struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Email     *string   `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Identity is what the external identity provider resolved for a request.
type Identity struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// IsRegistered reports whether the identity belongs to a signed-up user.
func (i *Identity) IsRegistered() bool {
	return i != nil && i.UserID != "" && !i.IsAnonymous
}

// DisplayName falls back to GuestName when no username is known.
func (i *Identity) DisplayName() string {
	if i == nil || i.Username == "" {
		return GuestName
	}
	return i.Username
}
