package events

// Push channel event names.
const (
	PlaceBid    = "place_bid"
	NewBid      = "new_bid"
	UpdatePrice = "update_price"
	BidError    = "bid_error"
)

// Event payload types shared between the bid view and the push channel transports

// PlaceBidPayload is the outbound bid-placement intent
type PlaceBidPayload struct {
	AuctionID string  `json:"auction_id"`
	BidAmount float64 `json:"bid_amount"`
}

// NewBidPayload is broadcast once a bid has been accepted
type NewBidPayload struct {
	AuctionID  string  `json:"auction_id"`
	BidAmount  float64 `json:"bid_amount"`
	BidderID   string  `json:"bidder_id"`
	BidderName string  `json:"bidder_name"`
	Timestamp  string  `json:"timestamp"`
}

// UpdatePricePayload corrects the displayed price without a history entry
type UpdatePricePayload struct {
	AuctionID    string  `json:"auction_id"`
	CurrentPrice float64 `json:"current_price"`
}

// BidErrorPayload carries a server-side rejection message
type BidErrorPayload struct {
	Message string `json:"message"`
}
