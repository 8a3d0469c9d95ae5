package domain

import "time"

type Business struct {
	ID          string
	Name        string
	Slug        string // unique, never changes after creation
	PlaceID     string // Google place id, feeds the write-review link
	Location    *string
	Description *string
	OwnerID     *string
	CreatedAt   time.Time
}

// NewBusiness is the write model accepted by repositories. CreatedAt is
// optional; zero means "now" and is only set explicitly by the migration.
type NewBusiness struct {
	Name        string
	Slug        string
	PlaceID     string
	Location    *string
	Description *string
	OwnerID     *string
	CreatedAt   time.Time
}

// User is the authenticated principal resolved by the auth middleware.
type User struct {
	ID    string
	Admin bool
}

// ReviewLinks are the two URLs a customer needs: our review page and Google's.
type ReviewLinks struct {
	ReviewURL       string `json:"review_url"`
	GoogleReviewURL string `json:"google_review_url"`
}
