package user

import "time"

const (
	EventUserRegistered      = "UserRegistered"
	EventUserLoggedIn        = "UserLoggedIn"
	EventUserLoggedOut       = "UserLoggedOut"
	EventUserPasswordChanged = "UserPasswordChanged"
	EventUserProfileUpdated  = "UserProfileUpdated"
)

// UserRegistered is emitted when a new user is registered
type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserLoggedIn is emitted when a session starts
type UserLoggedIn struct {
	UserID   string    `json:"user_id"`
	Upgraded bool      `json:"password_upgraded,omitempty"`
	LoggedAt time.Time `json:"logged_at"`
}

// UserLoggedOut is emitted when a session ends
type UserLoggedOut struct {
	UserID   string    `json:"user_id"`
	LoggedAt time.Time `json:"logged_at"`
}

// UserPasswordChanged is emitted after a password update
type UserPasswordChanged struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// UserProfileUpdated is emitted after phone, name, avatar or address changes
type UserProfileUpdated struct {
	UserID    string    `json:"user_id"`
	Field     string    `json:"field"`
	UpdatedAt time.Time `json:"updated_at"`
}
