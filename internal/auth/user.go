package auth

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// PendingOTP is a not-yet-consumed verification code attached to a user.
// The digest and the expiry always travel together: a user either has a
// pending code or has none.
type PendingOTP struct {
	Hash      string
	ExpiresAt time.Time
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	City         string
	Country      string
	Role         string
	OTP          *PendingOTP
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is the client-facing view of a user with the password hash and OTP
// material excluded.
type Profile struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	City    string `json:"city"`
	Country string `json:"country"`
	IsAdmin bool   `json:"isAdmin"`
}

func (u *User) Sanitized() Profile {
	return Profile{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		City:    u.City,
		Country: u.Country,
		IsAdmin: u.IsAdmin(),
	}
}
