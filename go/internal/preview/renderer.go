// Package preview projects staged files into thumbnails with a removal control.
package preview

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/eventloop"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/staging"
)

// Status of a preview element
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
)

// Element is one rendered preview
type Element struct {
	ID        uuid.UUID
	Name      string
	Size      int64
	StagedAt  time.Time
	Status    Status
	Thumbnail Thumbnail
}

// Notifier shows decode problems to the user
type Notifier interface {
	Warn(text string)
}

// DecodeFunc turns a payload into a thumbnail
type DecodeFunc func(f models.FileHandle, maxEdge int) (Thumbnail, error)

// Renderer keeps one preview per staged file. Decoding runs off the UI
// goroutine; results are posted back and dropped if the file was removed
// in the meantime.
type Renderer struct {
	sched    eventloop.Scheduler
	store    *staging.Store
	notifier Notifier
	decode   DecodeFunc
	maxEdge  int

	ready    map[uuid.UUID]Thumbnail
	pending  map[uuid.UUID]bool
	onChange []func()
}

// Option configures a Renderer
type Option func(*Renderer)

// WithDecoder replaces the image decoder
func WithDecoder(fn DecodeFunc) Option {
	return func(r *Renderer) { r.decode = fn }
}

// WithMaxEdge bounds thumbnails to edge pixels
func WithMaxEdge(edge int) Option {
	return func(r *Renderer) { r.maxEdge = edge }
}

// NewRenderer attaches a renderer to store. Every file the store admits from
// now on gets a preview.
func NewRenderer(sched eventloop.Scheduler, store *staging.Store, notifier Notifier, opts ...Option) *Renderer {
	r := &Renderer{
		sched:    sched,
		store:    store,
		notifier: notifier,
		decode:   Decode,
		maxEdge:  DefaultMaxEdge,
		ready:    make(map[uuid.UUID]Thumbnail),
		pending:  make(map[uuid.UUID]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	store.OnAdded(r.render)
	store.OnRemoved(r.forget)
	return r
}

// OnChange registers fn to run after the projection changes
func (r *Renderer) OnChange(fn func()) {
	r.onChange = append(r.onChange, fn)
}

func (r *Renderer) render(file models.StagedFile) {
	r.pending[file.ID] = true

	go func(id uuid.UUID, payload models.FileHandle) {
		thumb, err := r.decode(payload, r.maxEdge)
		r.sched.Post(func() { r.finish(id, payload.Name(), thumb, err) })
	}(file.ID, file.Payload)
}

func (r *Renderer) finish(id uuid.UUID, name string, thumb Thumbnail, err error) {
	delete(r.pending, id)

	if !r.store.Contains(id) {
		log.Debug().
			Str("staged_id", id.String()).
			Str("file", name).
			Msg("discarding preview for removed file")
		return
	}

	if err != nil {
		log.Warn().Err(err).Str("staged_id", id.String()).Str("file", name).Msg("preview decode failed")
		if r.notifier != nil {
			r.notifier.Warn(fmt.Sprintf("Could not read image %s", name))
		}
		// the store hook drops the pending entry and fires onChange
		r.store.Remove(id)
		return
	}

	r.ready[id] = thumb
	r.changed()
}

func (r *Renderer) forget(file models.StagedFile) {
	delete(r.ready, file.ID)
	delete(r.pending, file.ID)
	r.changed()
}

// RemoveClicked is the removal control on a preview.
func (r *Renderer) RemoveClicked(id uuid.UUID) bool {
	return r.store.Remove(id)
}

// Elements projects the staging collection into previews, in collection
// order. Files whose decode has not finished are reported as pending.
func (r *Renderer) Elements() []Element {
	files := r.store.Files()
	out := make([]Element, 0, len(files))
	for _, f := range files {
		el := Element{
			ID:       f.ID,
			Name:     f.Name(),
			Size:     f.Size(),
			StagedAt: f.StagedAt,
			Status:   StatusPending,
		}
		if thumb, ok := r.ready[f.ID]; ok {
			el.Status = StatusReady
			el.Thumbnail = thumb
		}
		out = append(out, el)
	}
	return out
}

// Pending reports how many decodes are still in flight for staged files
func (r *Renderer) Pending() int {
	return len(r.pending)
}

func (r *Renderer) changed() {
	for _, fn := range r.onChange {
		fn()
	}
}
