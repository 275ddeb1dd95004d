package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchlistEntry is a single (user, IPO) star. Existence of the row
// means "starred"; unstarring deletes it. The pair (UserID, CIK) is
// unique in storage, so add and remove are idempotent.
type WatchlistEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	CIK       string    `json:"cik"`
	CreatedAt time.Time `json:"created_at"`
}
