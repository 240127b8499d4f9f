package models

import (
	"time"
)

type Event struct {
	ID               string `json:"id"`
	OrganizationID   string `json:"organization_id"`
	LocationID       string `json:"location_id,omitempty"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Contact          string `json:"contact,omitempty"`
	CoverImageURL    string `json:"cover_image_url,omitempty"`
	CoverImageHash   string `json:"cover_image_hash,omitempty"`
	PosterImageURL   string `json:"poster_image_url,omitempty"`
	PosterImageHash  string `json:"poster_image_hash,omitempty"`
	ProfileImageURL  string `json:"profile_image_url,omitempty"`
	ProfileImageHash string `json:"profile_image_hash,omitempty"`
	AttendeeLimit    int    `json:"attendee_limit"` // <= 0 means unlimited
}

type EventDuration struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	Start   time.Time `json:"start"`
	Finish  time.Time `json:"finish"`
}

type Location struct {
	ID                         string `json:"id"`
	Name                       string `json:"name"`
	GoogleMapURL               string `json:"google_map_url"`
	Description                string `json:"description,omitempty"`
	TravelInformationImageURL  string `json:"travel_information_image_url,omitempty"`
	TravelInformationImageHash string `json:"travel_information_image_hash,omitempty"`
}

type Feedback struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id"`
	Feedback string `json:"feedback"`
}
