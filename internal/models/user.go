package models

import (
	"strconv"
	"strings"
	"time"
)

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// User is a devTinder profile. The same shape serves the authenticated
// identity, chat participants and discovery candidates; candidates carry a
// presence summary (isOnline/lastSeen) alongside the public profile fields.
type User struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`

	Age             int             `json:"age,omitempty"`
	Gender          string          `json:"gender,omitempty"`
	Bio             string          `json:"bio,omitempty"`
	Skills          []string        `json:"skills,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel,omitempty"`
	Location        string          `json:"location,omitempty"`
	LookingFor      string          `json:"lookingFor,omitempty"`
	PhotoURL        string          `json:"photoUrl,omitempty"`

	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// FullName returns the display name for the user.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Presence returns the user's presence summary.
func (u *User) Presence() Presence {
	return Presence{IsOnline: u.IsOnline, LastSeen: u.LastSeen}
}

// ProfileUpdate carries the editable profile fields for PUT /users/profile.
// Nil/empty fields are omitted and left unchanged server-side.
type ProfileUpdate struct {
	FirstName       string          `json:"firstName,omitempty"`
	LastName        string          `json:"lastName,omitempty"`
	Age             int             `json:"age,omitempty"`
	Gender          string          `json:"gender,omitempty"`
	Bio             string          `json:"bio,omitempty"`
	Skills          []string        `json:"skills,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel,omitempty"`
	Location        string          `json:"location,omitempty"`
	LookingFor      string          `json:"lookingFor,omitempty"`
}

// FilterOptions narrows the discovery batch. Every field is optional; the
// zero value means unfiltered.
type FilterOptions struct {
	MinAge          int             `json:"minAge,omitempty"`
	MaxAge          int             `json:"maxAge,omitempty"`
	Skills          []string        `json:"skills,omitempty"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel,omitempty"`
	Location        string          `json:"location,omitempty"`
	LookingFor      string          `json:"lookingFor,omitempty"`
}

// IsZero reports whether no filter is set.
func (f FilterOptions) IsZero() bool {
	return f.MinAge == 0 && f.MaxAge == 0 && len(f.Skills) == 0 &&
		f.ExperienceLevel == "" && f.Location == "" && f.LookingFor == ""
}

// Query renders the filters as query parameters for GET /users/potential-matches.
func (f FilterOptions) Query() map[string]string {
	q := make(map[string]string)
	if f.MinAge > 0 {
		q["minAge"] = strconv.Itoa(f.MinAge)
	}
	if f.MaxAge > 0 {
		q["maxAge"] = strconv.Itoa(f.MaxAge)
	}
	if len(f.Skills) > 0 {
		q["skills"] = strings.Join(f.Skills, ",")
	}
	if f.ExperienceLevel != "" {
		q["experienceLevel"] = string(f.ExperienceLevel)
	}
	if f.Location != "" {
		q["location"] = f.Location
	}
	if f.LookingFor != "" {
		q["lookingFor"] = f.LookingFor
	}
	return q
}

type SwipeAction string

const (
	SwipeLike SwipeAction = "like"
	SwipePass SwipeAction = "pass"
)

// SwipeResult is the server's answer to POST /matches/swipe.
type SwipeResult struct {
	IsMatch     bool  `json:"isMatch"`
	MatchedUser *User `json:"matchedUser,omitempty"`
}
