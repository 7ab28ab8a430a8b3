package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/bidsync"
	"github.com/mcdev12/gavel/go/internal/countdown"
	"github.com/mcdev12/gavel/go/internal/flash"
	"github.com/mcdev12/gavel/go/internal/models"
)

// MaxHistoryRows bounds how many bids the history panel shows
const MaxHistoryRows = 10

// BidDeps wires a BidModel
type BidDeps struct {
	Sched *Scheduler
	Board *flash.Board
	Page  models.AuctionPage
	Sync  *bidsync.Sync
	Timer *countdown.Timer
}

// BidModel is the live auction detail screen
type BidModel struct {
	deps  BidDeps
	keys  bidKeys
	input textinput.Model
}

func NewBidModel(deps BidDeps) *BidModel {
	input := textinput.New()
	input.Prompt = "Your bid: "
	input.Placeholder = deps.Sync.Display().MinBid
	input.CharLimit = 16
	input.Focus()

	return &BidModel{
		deps:  deps,
		keys:  defaultBidKeys,
		input: input,
	}
}

func (m *BidModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.deps.Sched.Wait())
}

func (m *BidModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskMsg:
		msg()
		m.input.Placeholder = m.deps.Sync.Display().MinBid
		return m, m.deps.Sched.Wait()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Bid):
			m.placeBid()
			return m, nil
		}
	}

	if !m.deps.Sync.Display().BidControlVisible {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *BidModel) placeBid() {
	if !m.deps.Sync.Display().BidControlVisible {
		return
	}
	err := m.deps.Sync.PlaceBid(m.input.Value())
	switch {
	case err == nil:
		m.input.SetValue("")
	case errors.Is(err, bidsync.ErrInvalidAmount), errors.Is(err, bidsync.ErrBelowMinimum):
		// warning already on the board
	default:
		log.Warn().Err(err).Msg("bid not sent")
	}
}

func (m *BidModel) View() string {
	d := m.deps.Sync.Display()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Auction " + m.deps.Page.AuctionID))
	b.WriteString("\n\n")

	summary := []string{
		labelStyle.Render("Current price  ") + priceStyle.Render(d.Price),
		labelStyle.Render("Minimum bid    ") + valueStyle.Render(d.MinBid),
		labelStyle.Render("Time left      ") + m.viewCountdown(),
	}
	b.WriteString(sectionStyle.Render(strings.Join(summary, "\n")))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(viewHistory(d.History)))
	b.WriteString("\n")

	if d.BidControlVisible {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if f := renderFlash(m.deps.Board); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(helpLine(m.keys.Bid, m.keys.Quit))
	return b.String()
}

func (m *BidModel) viewCountdown() string {
	text := m.deps.Timer.Text()
	if m.deps.Timer.Ended() {
		return endedStyle.Render(text)
	}
	if text == "" {
		text = countdown.Format(m.deps.Timer.Remaining())
	}
	return valueStyle.Render(text)
}

func viewHistory(history []bidsync.HistoryEntry) string {
	if len(history) == 0 {
		return mutedStyle.Render("No bids yet")
	}
	lines := []string{labelStyle.Render("Bid history")}
	for i, h := range history {
		if i == MaxHistoryRows {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("… %d more", len(history)-MaxHistoryRows)))
			break
		}
		line := fmt.Sprintf("%-10s %-20s %10s", h.LocalTime, h.BidderName, h.Amount)
		if h.Own {
			line = ownBidStyle.Render(line + "  (you)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
