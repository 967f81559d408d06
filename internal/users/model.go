package users

import "time"

// Roles a user can hold.
const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleCandidate = "candidate"
)

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Role            string    `json:"role"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	Bio             string    `json:"bio"`
	Skills          string    `json:"skills"`
	ExperienceYears int       `json:"experienceYears"`
	CurrentPosition string    `json:"currentPosition"`
	IsVerified      bool      `json:"isVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Identity is what a verified token tells us about the caller.
type Identity struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// ProfileUpdate carries the editable profile fields; nil fields are left
// unchanged.
type ProfileUpdate struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	Bio             *string `json:"bio"`
	Skills          *string `json:"skills"`
	ExperienceYears *int    `json:"experienceYears"`
	CurrentPosition *string `json:"currentPosition"`
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleRecruiter, RoleCandidate:
		return true
	}
	return false
}
