// Package listing drives the listing-creation form: it intercepts submit,
// uploads staged images when needed and hands the form to the server.
package listing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/gavel/go/internal/eventloop"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/staging"
)

// State of the submission flow
type State int

const (
	StateIdle State = iota
	StateUploading
	StateSubmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is reported once an asynchronous submit settles
type Outcome struct {
	State    State
	Err      error
	Location string
}

// Notifier shows messages to the user
type Notifier interface {
	Warn(text string)
	Error(text string)
}

// Config wires a Controller
type Config struct {
	Strategy  Strategy
	Uploader  Uploader
	Submitter Submitter
	// MaxConcurrentUploads bounds the fan-out. Zero means one goroutine per file.
	MaxConcurrentUploads int
}

// Controller owns the submit flow. All methods run on the scheduler goroutine.
type Controller struct {
	sched    eventloop.Scheduler
	store    *staging.Store
	form     *Form
	notifier Notifier
	cfg      Config
	state    State
	inFlight bool
	// set once the server accepted the listing
	done     bool
	onSettle []func(Outcome)
}

func NewController(sched eventloop.Scheduler, store *staging.Store, form *Form, notifier Notifier, cfg Config) (*Controller, error) {
	if cfg.Strategy == StrategyStagedUpload && cfg.Uploader == nil {
		return nil, ErrNoUploader
	}
	c := &Controller{
		sched:    sched,
		store:    store,
		form:     form,
		notifier: notifier,
		cfg:      cfg,
	}
	store.OnAdded(func(models.StagedFile) { c.invalidateUploads() })
	store.OnRemoved(func(models.StagedFile) { c.invalidateUploads() })
	return c, nil
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Form() *Form { return c.form }

// OnSettle registers fn to run when an upload or submission completes
func (c *Controller) OnSettle(fn func(Outcome)) {
	c.onSettle = append(c.onSettle, fn)
}

// Submit handles a submit request. A nil error means work was started;
// the result arrives through OnSettle.
func (c *Controller) Submit(ctx context.Context) error {
	if c.done {
		return ErrAlreadySubmitted
	}
	if c.state == StateUploading {
		return ErrUploadInProgress
	}
	if c.inFlight {
		return ErrSubmitInProgress
	}

	// URLs from an earlier successful upload: let the form go through as is.
	if c.form.HasImageURLs() {
		log.Info().Int("image_urls", len(c.form.ImageURLs())).Msg("resubmitting listing with existing image urls")
		c.state = StateSubmitted
		c.submitNative(ctx, nil)
		return nil
	}

	files := c.store.Files()
	if len(files) == 0 {
		c.warn(noImagesMessage)
		c.state = StateIdle
		return ErrNoImages
	}

	if c.cfg.Strategy == StrategyLocalPreview {
		images := make([]models.FileHandle, len(files))
		for i, f := range files {
			images[i] = f.Payload
		}
		c.state = StateSubmitted
		c.submitNative(ctx, images)
		return nil
	}

	c.state = StateUploading
	c.form.setUploading(true)
	log.Info().Int("files", len(files)).Msg("uploading listing images")

	go func() {
		urls, err := uploadAll(ctx, c.cfg.Uploader, files, c.cfg.MaxConcurrentUploads)
		c.sched.Post(func() { c.finishUpload(ctx, urls, err) })
	}()
	return nil
}

func (c *Controller) finishUpload(ctx context.Context, urls []string, err error) {
	c.form.setUploading(false)

	if err != nil {
		log.Error().Err(err).Msg("image upload failed")
		c.state = StateFailed
		c.alert(uploadFailedMessage)
		c.settle(Outcome{State: StateFailed, Err: err})
		return
	}

	c.form.clearImageURLs()
	for _, u := range urls {
		c.form.appendImageURL(u)
	}
	c.form.Picker().Detach()
	c.state = StateSubmitted

	log.Info().Int("image_urls", len(urls)).Msg("images uploaded, submitting listing")
	c.submitNative(ctx, nil)
}

func (c *Controller) submitNative(ctx context.Context, images []models.FileHandle) {
	if c.cfg.Submitter == nil {
		c.finishSubmit(models.SubmitResult{}, nil)
		return
	}

	sub := models.ListingSubmission{
		Fields: c.form.Values(),
		Images: images,
	}
	c.inFlight = true
	c.form.submitEnabled = false

	go func() {
		res, err := c.cfg.Submitter.SubmitListing(ctx, sub)
		c.sched.Post(func() { c.finishSubmit(res, err) })
	}()
}

func (c *Controller) finishSubmit(res models.SubmitResult, err error) {
	c.inFlight = false

	if err != nil {
		c.form.submitEnabled = true
		log.Error().Err(err).Msg("listing submission failed")
		c.state = StateFailed
		c.alert(submitFailedMessage)
		c.settle(Outcome{State: StateFailed, Err: err})
		return
	}

	log.Info().
		Int("status", res.StatusCode).
		Str("location", res.Location).
		Msg("listing submitted")
	c.done = true
	c.state = StateSubmitted
	c.form.submitEnabled = false
	c.releaseStaged()
	c.settle(Outcome{State: StateSubmitted, Location: res.Location})
}

// releaseStaged drops every staged file once the listing exists.
func (c *Controller) releaseStaged() {
	for _, f := range c.store.Files() {
		c.store.Remove(f.ID)
	}
}

// invalidateUploads drops hidden URLs that no longer match the staged set.
func (c *Controller) invalidateUploads() {
	if c.done || c.state == StateUploading || !c.form.HasImageURLs() {
		return
	}
	log.Debug().Msg("staging changed, discarding uploaded image urls")
	c.form.clearImageURLs()
	c.form.Picker().Attach()
	if c.state == StateSubmitted && !c.inFlight {
		c.state = StateIdle
	}
}

func (c *Controller) settle(o Outcome) {
	for _, fn := range c.onSettle {
		fn(o)
	}
}

func (c *Controller) warn(text string) {
	if c.notifier != nil {
		c.notifier.Warn(text)
	}
}

func (c *Controller) alert(text string) {
	if c.notifier != nil {
		c.notifier.Error(text)
	}
}

// uploadAll uploads every file concurrently. Results keep the input order;
// the first failure cancels the rest.
func uploadAll(ctx context.Context, uploader Uploader, files []models.StagedFile, limit int) ([]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	urls := make([]string, len(files))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			u, err := uploader.Upload(gctx, f.Payload)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name(), err)
			}
			if u == "" {
				return fmt.Errorf("upload %s: %w", f.Name(), ErrNoURL)
			}
			log.Debug().
				Str("staged_id", f.ID.String()).
				Str("file", f.Name()).
				Str("url", u).
				Msg("image uploaded")
			urls[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
