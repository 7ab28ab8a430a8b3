package models

import "net/url"

// Listing-creation form field names. The backend reads image_urls positionally.
const (
	FieldItemTitle       = "item_title"
	FieldItemDescription = "item_description"
	FieldStartingBid     = "starting_bid"
	FieldEndTime         = "end_time"
	FieldItemCondition   = "item_condition"
	FieldCategory        = "category"
	FieldImageURLs       = "image_urls"
	FieldImages          = "images"
)

// ListingCategories are the categories the listing pages offer.
var ListingCategories = []string{"Electronics", "Fashion", "Home", "Collectibles", "Other"}

// ListingSubmission is what the listing form posts. Images is only populated
// when binaries go to the server directly instead of hidden image_urls.
type ListingSubmission struct {
	Fields url.Values
	Images []FileHandle
}

// SubmitResult is the server's answer to a listing submission
type SubmitResult struct {
	StatusCode int
	Location   string
}
