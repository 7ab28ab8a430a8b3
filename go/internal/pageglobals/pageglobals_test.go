package pageglobals

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const detailPage = `<!doctype html>
<html><body data-user-id="u-42">
<div id="auction" data-auction-id="665f1a" data-end-time="2024-05-01T18:30:00"
     data-current-price="42.50" data-min-bid="42.51"></div>
<form id="bid-form"><input type="number" name="bid_amount" min="42.51"></form>
<div data-auction-id="other"></div>
</body></html>`

func TestParseAuction(t *testing.T) {
	page, err := ParseAuction([]byte(detailPage))
	if err != nil {
		t.Fatalf("ParseAuction: %v", err)
	}
	if page.AuctionID != "665f1a" || page.ViewerID != "u-42" {
		t.Fatalf("page = %+v", page)
	}
	if want := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC); !page.EndTime.Equal(want) {
		t.Fatalf("end = %v, want %v", page.EndTime, want)
	}
	if page.CurrentPriceCts != 4250 || page.MinBidCts != 4251 {
		t.Fatalf("price = %d min = %d", page.CurrentPriceCts, page.MinBidCts)
	}
}

func TestParseCreatePage(t *testing.T) {
	markup := `<form id="auction-form" data-cloud-name="demo" data-upload-preset="unsigned_auction"><input type="file" name="images" multiple></form>`
	page, err := Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	if page.CloudName != "demo" || page.UploadPreset != "unsigned_auction" || page.HasAuction() {
		t.Fatalf("page = %+v", page)
	}
	if _, err := ParseAuction([]byte(markup)); !errors.Is(err, ErrNoAuction) {
		t.Fatalf("err = %v, want ErrNoAuction", err)
	}
}

func TestParseEndTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T18:30:00Z", time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)},
		{"2024-05-01T20:30:00+02:00", time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)},
		{"2024-05-01 18:30:00.250000", time.Date(2024, 5, 1, 18, 30, 0, 250000000, time.UTC)},
		{"2024-05-01T18:30", time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseEndTime(tt.in)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ParseEndTime(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseEndTime("tomorrow"); !errors.Is(err, ErrBadEndTime) {
		t.Errorf("err = %v, want ErrBadEndTime", err)
	}
}

func TestParseRejectsBadPrice(t *testing.T) {
	_, err := Parse(strings.NewReader(`<div data-current-price="lots"></div>`))
	if !errors.Is(err, ErrBadAmount) {
		t.Fatalf("err = %v, want ErrBadAmount", err)
	}
}
