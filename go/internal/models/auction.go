package models

import "time"

// AuctionPage holds the values a page hands to the client through its markup.
type AuctionPage struct {
	CloudName       string
	UploadPreset    string
	ViewerID        string
	AuctionID       string
	EndTime         time.Time
	CurrentPriceCts int64
	MinBidCts       int64
}

// HasAuction reports whether the page describes a single auction.
func (p AuctionPage) HasAuction() bool {
	return p.AuctionID != "" && !p.EndTime.IsZero()
}
