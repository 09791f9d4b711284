package domain

import "time"

// User represents a registered account. Experts can be asked questions,
// admins can promote users to experts.
type User struct {
	ID           int64
	Name         string
	PasswordHash string
	Expert       bool
	Admin        bool
	CreatedAt    time.Time
}
