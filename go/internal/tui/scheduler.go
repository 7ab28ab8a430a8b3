// Package tui holds the terminal front ends for the listing form and the
// live bid view.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// taskMsg carries a scheduled task into the bubbletea update loop
type taskMsg func()

// Scheduler runs posted tasks on the bubbletea update goroutine, so
// component state is only ever touched from Update.
type Scheduler struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewScheduler(buffer int) *Scheduler {
	if buffer <= 0 {
		buffer = 256
	}
	return &Scheduler{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues a task. After Close it drops the task instead of blocking.
func (s *Scheduler) Post(task func()) {
	select {
	case s.tasks <- task:
	case <-s.done:
	}
}

// Close releases goroutines blocked in Post or Wait. Call it once the
// program has quit.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Wait returns a command that delivers the next task
func (s *Scheduler) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case task := <-s.tasks:
			return taskMsg(task)
		case <-s.done:
			return nil
		}
	}
}
