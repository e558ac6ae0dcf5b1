package types

import (
	"github.com/lib/pq"
)

// AccessToken maps an opaque token to a user and the workspaces it may touch.
// Who mints tokens is the surrounding platform's business, the pipeline only
// trusts the resolved claims.
type AccessToken struct {
	ID        int64          `json:"id" db:"id"`
	Token     string         `json:"token" db:"token"`
	UserID    string         `json:"user_id" db:"user_id"`
	SpaceIDs  pq.StringArray `json:"space_ids" db:"space_ids"`
	ExpiresAt int64          `json:"expires_at" db:"expires_at"`
	CreatedAt int64          `json:"created_at" db:"created_at"`
}

func (t AccessToken) HasSpace(spaceID string) bool {
	for _, v := range t.SpaceIDs {
		if v == spaceID {
			return true
		}
	}
	return false
}
