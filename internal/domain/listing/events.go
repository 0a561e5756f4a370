package listing

import "time"

const (
	EventListingSubmitted     = "ListingSubmitted"
	EventListingStatusChanged = "ListingStatusChanged"
)

type ListingSubmitted struct {
	ListingID   string    `json:"listing_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ListingStatusChanged struct {
	ListingID string    `json:"listing_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}
