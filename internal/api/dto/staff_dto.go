package dto

import "time"

// RegisterStaffRequest payload.
type RegisterStaffRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// LoginStaffRequest payload.
type LoginStaffRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StaffResponse describes an authenticated staff member.
type StaffResponse struct {
	StaffID     string `json:"staff_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// StaffSessionResponse returns an issued token.
type StaffSessionResponse struct {
	StaffID     string    `json:"staff_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
