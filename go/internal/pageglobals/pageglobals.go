// Package pageglobals reads the values a page hands to the client through
// data-* attributes in its markup.
package pageglobals

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mcdev12/gavel/go/internal/bidsync"
	"github.com/mcdev12/gavel/go/internal/models"
)

const (
	AttrCloudName    = "data-cloud-name"
	AttrUploadPreset = "data-upload-preset"
	AttrUserID       = "data-user-id"
	AttrAuctionID    = "data-auction-id"
	AttrEndTime      = "data-end-time"
	AttrCurrentPrice = "data-current-price"
	AttrMinBid       = "data-min-bid"
)

var (
	ErrNoAuction  = errors.New("page does not describe an auction")
	ErrBadEndTime = errors.New("invalid end time")
	ErrBadAmount  = errors.New("invalid amount")
)

var endTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// Parse collects every known data attribute. The first occurrence of an
// attribute wins.
func Parse(r io.Reader) (models.AuctionPage, error) {
	attrs, err := collect(r)
	if err != nil {
		return models.AuctionPage{}, err
	}

	page := models.AuctionPage{
		CloudName:    attrs[AttrCloudName],
		UploadPreset: attrs[AttrUploadPreset],
		ViewerID:     attrs[AttrUserID],
		AuctionID:    attrs[AttrAuctionID],
	}

	if v := attrs[AttrEndTime]; v != "" {
		t, err := ParseEndTime(v)
		if err != nil {
			return page, err
		}
		page.EndTime = t
	}
	if v := attrs[AttrCurrentPrice]; v != "" {
		cents, err := parseCents(v)
		if err != nil {
			return page, fmt.Errorf("%s: %w", AttrCurrentPrice, err)
		}
		page.CurrentPriceCts = cents
	}
	if v := attrs[AttrMinBid]; v != "" {
		cents, err := parseCents(v)
		if err != nil {
			return page, fmt.Errorf("%s: %w", AttrMinBid, err)
		}
		page.MinBidCts = cents
	}
	return page, nil
}

// ParseAuction is Parse for the detail view, which needs an auction id and end time.
func ParseAuction(markup []byte) (models.AuctionPage, error) {
	page, err := Parse(bytes.NewReader(markup))
	if err != nil {
		return page, err
	}
	if !page.HasAuction() {
		return page, ErrNoAuction
	}
	return page, nil
}

// ParseEndTime accepts RFC 3339 or a zone-less ISO timestamp, read as UTC.
func ParseEndTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range endTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadEndTime, v)
}

func parseCents(v string) (int64, error) {
	cents, err := bidsync.ParseWireAmount(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadAmount, v)
	}
	return cents, nil
}

func collect(r io.Reader) (map[string]string, error) {
	attrs := make(map[string]string)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return attrs, nil
			}
			return nil, fmt.Errorf("tokenize page: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			for _, a := range z.Token().Attr {
				if !strings.HasPrefix(a.Key, "data-") {
					continue
				}
				if _, seen := attrs[a.Key]; !seen {
					attrs[a.Key] = a.Val
				}
			}
		}
	}
}
