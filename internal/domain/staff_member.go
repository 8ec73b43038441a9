package domain

import "time"

// StaffMember is a support staff account able to obtain API tokens.
type StaffMember struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
