// Package bidsync keeps the auction detail view in step with the push
// channel: it sends bid intents and applies confirmed bids and price changes.
package bidsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/eventloop"
	"github.com/mcdev12/gavel/go/internal/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/pushchannel"
)

var (
	ErrBelowMinimum = errors.New("bid below minimum")
	ErrAuctionEnded = errors.New("auction ended")
)

const (
	invalidAmountMsg = "Please enter a valid bid amount"
	decimalsMsg      = "Bids can have at most two decimal places"
	endedMsg         = "This auction has ended"
	sendFailedMsg    = "Could not send your bid. Please try again."
)

// LocalTimeLayout is how history entries show the bid time
const LocalTimeLayout = "3:04:05 PM"

// Notifier shows messages to the user
type Notifier interface {
	Warn(text string)
	Error(text string)
}

// HistoryEntry is one confirmed bid, newest first in Display.History
type HistoryEntry struct {
	BidderID   string
	BidderName string
	AmountCts  int64
	Amount     string
	At         time.Time
	LocalTime  string
	Own        bool
}

// Display is what the detail view shows
type Display struct {
	PriceCts          int64
	Price             string
	MinBidCts         int64
	MinBid            string
	History           []HistoryEntry
	BidControlVisible bool
}

// Sync owns the bid display for one auction. All methods except the push
// handlers run on the scheduler goroutine; handlers post their work to it.
type Sync struct {
	sched    eventloop.Scheduler
	channel  pushchannel.Channel
	notifier Notifier
	page     models.AuctionPage
	clock    clockwork.Clock
	loc      *time.Location
	policy   *bluemonday.Policy

	priceCts          int64
	minCts            int64
	history           []HistoryEntry
	bidControlVisible bool
	onChange          []func()
}

// Option configures a Sync
type Option func(*Sync)

// WithClock sets the clock used when an event carries no usable timestamp
func WithClock(clock clockwork.Clock) Option {
	return func(s *Sync) { s.clock = clock }
}

// WithLocation sets the zone history times are shown in
func WithLocation(loc *time.Location) Option {
	return func(s *Sync) { s.loc = loc }
}

// New subscribes to the auction's events on channel.
func New(sched eventloop.Scheduler, channel pushchannel.Channel, notifier Notifier, page models.AuctionPage, opts ...Option) *Sync {
	s := &Sync{
		sched:             sched,
		channel:           channel,
		notifier:          notifier,
		page:              page,
		clock:             clockwork.NewRealClock(),
		loc:               time.Local,
		policy:            bluemonday.StrictPolicy(),
		priceCts:          page.CurrentPriceCts,
		minCts:            page.MinBidCts,
		bidControlVisible: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minCts <= 0 {
		s.minCts = s.priceCts + 1
	}

	channel.On(events.NewBid, func(data json.RawMessage) {
		s.sched.Post(func() { s.handleNewBid(data) })
	})
	channel.On(events.UpdatePrice, func(data json.RawMessage) {
		s.sched.Post(func() { s.handleUpdatePrice(data) })
	})
	channel.On(events.BidError, func(data json.RawMessage) {
		s.sched.Post(func() { s.handleBidError(data) })
	})
	return s
}

// OnChange registers fn to run after the display changes
func (s *Sync) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// PlaceBid validates input and emits a bid intent. The display only changes
// when the server confirms the bid.
func (s *Sync) PlaceBid(input string) error {
	amount, err := ParseAmount(input)
	if err != nil {
		if errors.Is(err, ErrTooManyDecimals) {
			s.warn(decimalsMsg)
		} else {
			s.warn(invalidAmountMsg)
		}
		return err
	}
	if !s.bidControlVisible {
		s.warn(endedMsg)
		return ErrAuctionEnded
	}
	if amount < s.minCts {
		s.warn("Bid must be at least " + FormatCents(s.minCts))
		return fmt.Errorf("%w: %s < %s", ErrBelowMinimum, FormatCents(amount), FormatCents(s.minCts))
	}

	payload := events.PlaceBidPayload{
		AuctionID: s.page.AuctionID,
		BidAmount: CentsToFloat(amount),
	}
	if err := s.channel.Emit(events.PlaceBid, payload); err != nil {
		log.Error().Err(err).Str("auction_id", s.page.AuctionID).Msg("failed to emit bid")
		if s.notifier != nil {
			s.notifier.Error(sendFailedMsg)
		}
		return fmt.Errorf("emit %s: %w", events.PlaceBid, err)
	}

	log.Info().
		Str("auction_id", s.page.AuctionID).
		Str("amount", FormatCents(amount)).
		Msg("bid placed")
	return nil
}

func (s *Sync) handleNewBid(data json.RawMessage) {
	var p events.NewBidPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("malformed new_bid payload")
		return
	}
	if p.AuctionID != s.page.AuctionID {
		log.Debug().Str("auction_id", p.AuctionID).Msg("ignoring bid for another auction")
		return
	}

	cents, err := CentsFromFloat(p.BidAmount)
	if err != nil {
		log.Warn().Err(err).Str("auction_id", p.AuctionID).Msg("malformed new_bid payload")
		return
	}
	s.setPrice(cents)

	at := s.parseTimestamp(p.Timestamp)
	entry := HistoryEntry{
		BidderID:   p.BidderID,
		BidderName: s.plainText(p.BidderName),
		AmountCts:  cents,
		Amount:     FormatCents(cents),
		At:         at,
		LocalTime:  at.In(s.loc).Format(LocalTimeLayout),
		Own:        s.page.ViewerID != "" && p.BidderID == s.page.ViewerID,
	}
	s.history = append([]HistoryEntry{entry}, s.history...)

	log.Debug().
		Str("auction_id", p.AuctionID).
		Str("bidder_id", p.BidderID).
		Str("amount", entry.Amount).
		Bool("own", entry.Own).
		Msg("new bid applied")
	s.changed()
}

func (s *Sync) handleUpdatePrice(data json.RawMessage) {
	var p events.UpdatePricePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("malformed update_price payload")
		return
	}
	if p.AuctionID != s.page.AuctionID {
		return
	}
	cents, err := CentsFromFloat(p.CurrentPrice)
	if err != nil {
		log.Warn().Err(err).Str("auction_id", p.AuctionID).Msg("malformed update_price payload")
		return
	}
	s.setPrice(cents)
	s.changed()
}

func (s *Sync) handleBidError(data json.RawMessage) {
	var p events.BidErrorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Msg("malformed bid_error payload")
		return
	}
	msg := s.plainText(p.Message)
	log.Info().Str("message", msg).Msg("bid rejected by server")
	if s.notifier != nil && msg != "" {
		s.notifier.Error(msg)
	}
}

func (s *Sync) setPrice(cents int64) {
	s.priceCts = cents
	s.minCts = cents + 1
}

// HideBidControl removes the bid control once the auction is over
func (s *Sync) HideBidControl() {
	if !s.bidControlVisible {
		return
	}
	s.bidControlVisible = false
	s.changed()
}

// Display returns a snapshot of the view state
func (s *Sync) Display() Display {
	return Display{
		PriceCts:          s.priceCts,
		Price:             FormatCents(s.priceCts),
		MinBidCts:         s.minCts,
		MinBid:            FormatCents(s.minCts),
		History:           append([]HistoryEntry(nil), s.history...),
		BidControlVisible: s.bidControlVisible,
	}
}

// timestamps come as ISO 8601, sometimes without a zone (UTC)
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (s *Sync) parseTimestamp(v string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return s.clock.Now()
}

// plainText strips any markup from server-supplied text
func (s *Sync) plainText(v string) string {
	return html.UnescapeString(s.policy.Sanitize(v))
}

func (s *Sync) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *Sync) warn(text string) {
	if s.notifier != nil {
		s.notifier.Warn(text)
	}
}
