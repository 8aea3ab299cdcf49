package domain

import "time"

// User is the authenticated user snapshot returned by the auth endpoints.
type User struct {
	ID        int       `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	StudentID string    `json:"student_id" yaml:"student_id"`
	Nickname  string    `json:"nickname" yaml:"nickname"`
	Email     string    `json:"email" yaml:"email"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// TokenPair carries the credentials minted by the backend on login or
// registration.
type TokenPair struct {
	Access  string `json:"access" yaml:"access"`
	Refresh string `json:"refresh" yaml:"refresh"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	StudentID       string `json:"student_id"`
	Email           string `json:"email"`
	Nickname        string `json:"nickname"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

// AuthResponse is the body returned by both login and registration.
type AuthResponse struct {
	Message string    `json:"message"`
	User    User      `json:"user"`
	Tokens  TokenPair `json:"tokens"`
}
