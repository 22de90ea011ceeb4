package domain

import "time"

// User is the profile record as returned by the backend. It is stored
// wholesale from server responses and never assembled client-side.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	Avatar      string    `json:"avatar"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	Ward        string    `json:"ward"`
	FullName    string    `json:"full_name"`
	FullAddress string    `json:"full_address"`
	DateJoined  time.Time `json:"date_joined"`
}

// DisplayName returns the best available name for greeting the user.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
