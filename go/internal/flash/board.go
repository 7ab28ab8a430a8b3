// Package flash holds the user-visible messages (warnings, errors, confirmations)
// raised by the listing and bid views.
package flash

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/eventloop"
)

// DefaultTTL is how long a message stays up before it is dismissed automatically.
const DefaultTTL = 5 * time.Second

// Level is the category of a flash message
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a single flash message
type Message struct {
	ID        int
	Level     Level
	Text      string
	CreatedAt time.Time
}

// Board is the on-screen message list. Methods must be called from the
// scheduler goroutine; expiry is posted back to it.
type Board struct {
	sched    eventloop.Scheduler
	clock    clockwork.Clock
	ttl      time.Duration
	nextID   int
	messages []Message
	timers   map[int]clockwork.Timer
}

// Option configures a Board
type Option func(*Board)

// WithTTL overrides DefaultTTL. A non-positive ttl disables auto-dismissal.
func WithTTL(ttl time.Duration) Option {
	return func(b *Board) { b.ttl = ttl }
}

// WithClock injects the clock used for expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(b *Board) { b.clock = clock }
}

// NewBoard creates an empty board
func NewBoard(sched eventloop.Scheduler, opts ...Option) *Board {
	b := &Board{
		sched:  sched,
		clock:  clockwork.NewRealClock(),
		ttl:    DefaultTTL,
		timers: make(map[int]clockwork.Timer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Info(text string)    { b.push(LevelInfo, text) }
func (b *Board) Success(text string) { b.push(LevelSuccess, text) }
func (b *Board) Warn(text string)    { b.push(LevelWarning, text) }
func (b *Board) Error(text string)   { b.push(LevelError, text) }

func (b *Board) push(level Level, text string) {
	b.nextID++
	msg := Message{
		ID:        b.nextID,
		Level:     level,
		Text:      text,
		CreatedAt: b.clock.Now(),
	}
	b.messages = append(b.messages, msg)

	log.Debug().
		Int("flash_id", msg.ID).
		Str("level", string(level)).
		Str("text", text).
		Msg("flash message raised")

	if b.ttl > 0 {
		id := msg.ID
		b.timers[id] = b.clock.AfterFunc(b.ttl, func() {
			b.sched.Post(func() { b.Dismiss(id) })
		})
	}
}

// Dismiss removes a message. It reports whether the message was still showing.
func (b *Board) Dismiss(id int) bool {
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	for i, m := range b.messages {
		if m.ID == id {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Messages returns the visible messages, oldest first.
func (b *Board) Messages() []Message {
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}
