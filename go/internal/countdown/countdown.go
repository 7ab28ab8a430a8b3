// Package countdown shows the time left on an auction and closes bidding
// when it runs out.
package countdown

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/eventloop"
)

const (
	Interval  = time.Second
	EndedText = "Auction ended"
)

// Format renders remaining time. Days are omitted when zero, hours when days
// and hours are both zero. Negative durations render as EndedText.
func Format(remaining time.Duration) string {
	if remaining < 0 {
		return EndedText
	}

	total := int64(remaining / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	default:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

// BidControl is hidden once the auction ends
type BidControl interface {
	HideBidControl()
}

// Timer recomputes the remaining time on every tick. Tick and the accessors
// run on the scheduler goroutine.
type Timer struct {
	sched   eventloop.Scheduler
	clock   clockwork.Clock
	end     time.Time
	control BidControl

	text    string
	ended   bool
	stopped chan struct{}
	onTick  []func(text string)
}

func NewTimer(sched eventloop.Scheduler, clock clockwork.Clock, end time.Time, control BidControl) *Timer {
	return &Timer{
		sched:   sched,
		clock:   clock,
		end:     end,
		control: control,
		stopped: make(chan struct{}),
	}
}

// OnTick registers fn to run with the new text after every tick
func (t *Timer) OnTick(fn func(text string)) {
	t.onTick = append(t.onTick, fn)
}

// Start ticks once immediately and then every Interval until ctx is done or
// the auction ends.
func (t *Timer) Start(ctx context.Context) {
	t.sched.Post(t.Tick)

	ticker := t.clock.NewTicker(Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopped:
				return
			case <-ticker.Chan():
				t.sched.Post(t.Tick)
			}
		}
	}()
}

// Tick recomputes the display. Ticks after the end are no-ops.
func (t *Timer) Tick() {
	if t.ended {
		return
	}

	remaining := t.end.Sub(t.clock.Now())
	t.text = Format(remaining)

	if remaining < 0 {
		t.ended = true
		close(t.stopped)
		if t.control != nil {
			t.control.HideBidControl()
		}
		log.Info().Time("end_time", t.end).Msg("auction ended")
	}

	for _, fn := range t.onTick {
		fn(t.text)
	}
}

func (t *Timer) Text() string { return t.text }

func (t *Timer) Ended() bool { return t.ended }

// Remaining returns the time left, negative once ended
func (t *Timer) Remaining() time.Duration {
	return t.end.Sub(t.clock.Now())
}
