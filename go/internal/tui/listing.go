package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/clients/listing_client"
	"github.com/mcdev12/gavel/go/internal/flash"
	"github.com/mcdev12/gavel/go/internal/listing"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/preview"
	"github.com/mcdev12/gavel/go/internal/staging"
)

// ListingDeps wires a ListingModel
type ListingDeps struct {
	Sched      *Scheduler
	Board      *flash.Board
	Store      *staging.Store
	Renderer   *preview.Renderer
	Form       *listing.Form
	Controller *listing.Controller
	SiteURL    string
	OpenFile   func(path string) (models.FileHandle, error)
}

const stagedAtLayout = "15:04:05"

type formField struct {
	key   string
	label string
}

var listingFields = []formField{
	{models.FieldItemTitle, "Title"},
	{models.FieldItemDescription, "Description"},
	{models.FieldStartingBid, "Starting bid"},
	{models.FieldEndTime, "End time"},
	{models.FieldItemCondition, "Condition"},
	{models.FieldCategory, "Category"},
}

// ListingModel is the listing-creation screen. The last input is the image
// path field that stands in for the native file picker.
type ListingModel struct {
	ctx       context.Context
	deps      ListingDeps
	keys      listingKeys
	inputs    []textinput.Model
	focus     int
	selected  int
	created   string
	auctionID string
}

func NewListingModel(ctx context.Context, deps ListingDeps) *ListingModel {
	if deps.OpenFile == nil {
		deps.OpenFile = func(path string) (models.FileHandle, error) {
			return staging.OpenDiskFile(path)
		}
	}

	inputs := make([]textinput.Model, 0, len(listingFields)+1)
	for i, f := range listingFields {
		inp := textinput.New()
		inp.Prompt = f.label + ": "
		inp.SetValue(deps.Form.Get(f.key))
		if f.key == models.FieldCategory {
			inp.Placeholder = strings.Join(models.ListingCategories, " | ")
		}
		if f.key == models.FieldEndTime {
			inp.Placeholder = "2006-01-02T15:04"
		}
		if i == 0 {
			inp.Focus()
		}
		inputs = append(inputs, inp)
	}
	picker := textinput.New()
	picker.Prompt = "Add image: "
	picker.Placeholder = "path/to/photo.jpg"
	inputs = append(inputs, picker)

	m := &ListingModel{
		ctx:    ctx,
		deps:   deps,
		keys:   defaultListingKeys,
		inputs: inputs,
	}
	deps.Controller.OnSettle(m.settled)
	return m
}

// StagePaths opens and stages files as one picker batch. Call it from the
// update goroutine or before the program starts.
func (m *ListingModel) StagePaths(paths []string) {
	var batch []models.FileHandle
	for _, p := range paths {
		f, err := m.deps.OpenFile(p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("could not open image")
			m.deps.Board.Warn(fmt.Sprintf("Could not open %s", p))
			continue
		}
		batch = append(batch, f)
	}
	if _, err := m.deps.Store.AddCandidates(batch); err != nil {
		log.Debug().Err(err).Msg("batch rejected")
	}
}

func (m *ListingModel) settled(o listing.Outcome) {
	if o.State != listing.StateSubmitted || o.Err != nil {
		return
	}
	m.created = strings.TrimRight(m.deps.SiteURL, "/") + o.Location
	if id, ok := listing_client.AuctionIDFromLocation(o.Location); ok {
		m.auctionID = id
		log.Info().Str("auction_id", id).Msg("auction created")
	}
	m.deps.Board.Success("Auction created successfully")
}

func (m *ListingModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.deps.Sched.Wait())
}

func (m *ListingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskMsg:
		msg()
		m.clampSelection()
		return m, m.deps.Sched.Wait()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextField):
			m.moveFocus(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevField):
			m.moveFocus(-1)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.selected--
			m.clampSelection()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.selected++
			m.clampSelection()
			return m, nil
		case key.Matches(msg, m.keys.Remove):
			m.removeSelected()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			m.submit()
			return m, nil
		case key.Matches(msg, m.keys.Stage):
			if m.focus == len(m.inputs)-1 {
				m.stageInput()
			} else {
				m.moveFocus(1)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *ListingModel) moveFocus(dir int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + dir + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m *ListingModel) stageInput() {
	picker := &m.inputs[len(m.inputs)-1]
	paths := strings.Fields(picker.Value())
	if len(paths) == 0 {
		return
	}
	m.StagePaths(paths)
	picker.SetValue("")
}

func (m *ListingModel) removeSelected() {
	elems := m.deps.Renderer.Elements()
	if m.selected < 0 || m.selected >= len(elems) {
		return
	}
	m.deps.Renderer.RemoveClicked(elems[m.selected].ID)
	m.clampSelection()
}

func (m *ListingModel) submit() {
	if !m.deps.Form.SubmitEnabled() {
		return
	}
	for i, f := range listingFields {
		m.deps.Form.Set(f.key, strings.TrimSpace(m.inputs[i].Value()))
	}
	err := m.deps.Controller.Submit(m.ctx)
	if err != nil && !errors.Is(err, listing.ErrNoImages) {
		log.Debug().Err(err).Msg("submit ignored")
	}
}

func (m *ListingModel) clampSelection() {
	n := len(m.deps.Renderer.Elements())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *ListingModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create auction listing"))
	b.WriteString("\n\n")

	fields := make([]string, 0, len(m.inputs))
	for _, in := range m.inputs {
		fields = append(fields, in.View())
	}
	b.WriteString(sectionStyle.Render(strings.Join(fields, "\n")))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(m.viewPreviews()))
	b.WriteString("\n")

	b.WriteString(m.viewStatus())
	b.WriteString("\n")
	if f := renderFlash(m.deps.Board); f != "" {
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString(helpLine(m.keys.NextField, m.keys.Stage, m.keys.Up, m.keys.Remove, m.keys.Submit, m.keys.Quit))
	return b.String()
}

func (m *ListingModel) viewPreviews() string {
	elems := m.deps.Renderer.Elements()
	policy := m.deps.Store.Policy()
	header := labelStyle.Render(fmt.Sprintf("Images %d/%d", len(elems), policy.MaxFiles))
	if len(elems) == 0 {
		return header + "\n" + mutedStyle.Render("no images staged")
	}

	lines := []string{header}
	for i, e := range elems {
		status := mutedStyle.Render("decoding…")
		if e.Status == preview.StatusReady {
			status = fmt.Sprintf("%s %dx%d → %dx%d", e.Thumbnail.Format,
				e.Thumbnail.Width, e.Thumbnail.Height, e.Thumbnail.ThumbWidth, e.Thumbnail.ThumbHeight)
		}
		line := fmt.Sprintf("%s  %s  added %s  %s", e.Name, humanize.IBytes(uint64(e.Size)),
			e.StagedAt.Format(stagedAtLayout), status)
		if i == m.selected {
			line = selectStyle.Render("› " + line + "  [×]")
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *ListingModel) viewStatus() string {
	ctrl := m.deps.Controller
	switch {
	case m.deps.Form.Busy():
		return valueStyle.Render("Uploading images…")
	case m.auctionID != "":
		return priceStyle.Render(fmt.Sprintf("Auction %s created: %s  (bidwatch %s)", m.auctionID, m.created, m.auctionID))
	case m.created != "":
		return priceStyle.Render("Listing created: " + m.created)
	case ctrl.State() == listing.StateFailed:
		return endedStyle.Render("Last attempt failed; fix and resubmit")
	case m.deps.Form.HasImageURLs():
		return mutedStyle.Render(fmt.Sprintf("%d image URLs attached", len(m.deps.Form.ImageURLs())))
	default:
		return ""
	}
}
