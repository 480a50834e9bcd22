package types

import (
	"fmt"
	"time"
)

// ProfileID is the fixed identifier of the single farmer profile row.
// Onboarding always writes this ID, so re-submission overwrites.
const ProfileID = 1

// UserProfile is the farmer profile collected during onboarding.
type UserProfile struct {
	ID                 int       `json:"id"`
	Name               string    `json:"name"`
	Age                int       `json:"age"`
	LandArea           float64   `json:"land_area"` // acres
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	PreferredLanguage  string    `json:"preferred_language"` // display name, e.g. "Hindi"
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
	LastActive         time.Time `json:"last_active"`
}

// Location is a pair of decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location returns the profile coordinates.
func (p *UserProfile) Location() Location {
	return Location{Latitude: p.Latitude, Longitude: p.Longitude}
}

// ContextString renders the profile as the user_context line sent with each
// chat request.
func (p *UserProfile) ContextString() string {
	return fmt.Sprintf(
		"Farmer Name: %s; Age: %d; Land Area(acres): %s; Location(lat,lon): %s, %s; Preferred Language: %s",
		p.Name, p.Age, formatDecimal(p.LandArea), formatDecimal(p.Latitude), formatDecimal(p.Longitude), p.PreferredLanguage,
	)
}
