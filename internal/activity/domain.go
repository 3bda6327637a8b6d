package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only audit record of a user action.
type Entry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Username  string
	Action    string
	Details   string
	Timestamp time.Time
	IP        string
	UserAgent string
}

// Filter narrows activity listings.
type Filter struct {
	Username string
	Action   string
	From     time.Time
	To       time.Time
	Page     int
	PerPage  int
}
