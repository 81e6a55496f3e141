package types

import "time"

// Role is the closed set of authorization roles a user can hold.
type Role string

const (
	RoleTenant Role = "TENANT"
	RoleOwner  Role = "OWNER"
	RoleBoth   Role = "BOTH"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleTenant, RoleOwner, RoleBoth, RoleAdmin:
		return true
	}
	return false
}

// UserPreferences captures a tenant's soft matching preferences.
type UserPreferences struct {
	PreferredGender   string  `json:"preferredGender,omitempty"`
	PreferredReligion string  `json:"preferredReligion,omitempty"`
	BudgetMin         float64 `json:"budgetMin,omitempty"`
	BudgetMax         float64 `json:"budgetMax,omitempty"`
	StayDuration      string  `json:"stayDuration,omitempty"`
	SmokingTolerance  string  `json:"smokingTolerance,omitempty"`
	AlcoholTolerance  string  `json:"alcoholTolerance,omitempty"`
}

// User represents an account in the marketplace.
type User struct {
	// ID is the opaque unique identifier of the user.
	ID string `json:"id"`

	// Name is the user's display name.
	Name string `json:"name"`

	// Email is unique across all users, compared case-insensitively.
	Email string `json:"email"`

	Phone string `json:"phone,omitempty"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// Role indicates the user's authorization level.
	Role Role `json:"role"`

	Gender          string           `json:"gender,omitempty"`
	Religion        string           `json:"religion,omitempty"`
	Languages       []string         `json:"languages,omitempty"`
	Occupation      string           `json:"occupation,omitempty"`
	CityCurrent     string           `json:"cityCurrent,omitempty"`
	PreferredCities []string         `json:"preferredCities,omitempty"`
	WorkSchedule    string           `json:"workSchedule,omitempty"`
	Preferences     *UserPreferences `json:"preferences,omitempty"`

	// RatingAvg and RatingCount are derived from feedback records and
	// maintained by the feedback aggregator; never set directly.
	RatingAvg   float64 `json:"ratingAvg"`
	RatingCount int     `json:"ratingCount"`

	IsPhoneVerified bool `json:"isPhoneVerified"`
	IsIDVerified    bool `json:"isIdVerified"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicUser is the trimmed user shape embedded in auth responses.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Public returns the trimmed representation of the user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
