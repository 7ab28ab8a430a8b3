// Package staging keeps the ordered collection of files the user has picked
// for a listing, independent of the native picker's own state.
package staging

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Notifier shows validation warnings to the user
type Notifier interface {
	Warn(text string)
}

// Picker is the native file-picker control
type Picker interface {
	Clear()
}

// Rejection records a candidate that was skipped
type Rejection struct {
	Name string
	Err  error
}

// AddResult reports what happened to a batch
type AddResult struct {
	Added    []models.StagedFile
	Rejected []Rejection
}

// Store is the staging collection. It is not safe for concurrent use; call it
// from the scheduler goroutine only.
type Store struct {
	policy   Policy
	notifier Notifier
	picker   Picker
	clock    clockwork.Clock
	files    []models.StagedFile

	onAdded   []func(models.StagedFile)
	onRemoved []func(models.StagedFile)
}

// NewStore creates an empty collection. picker may be nil.
func NewStore(policy Policy, notifier Notifier, picker Picker) *Store {
	if policy.MaxFiles <= 0 {
		policy.MaxFiles = DefaultMaxFiles
	}
	return &Store{
		policy:   policy,
		notifier: notifier,
		picker:   picker,
		clock:    clockwork.NewRealClock(),
	}
}

// SetClock overrides the clock used for StagedAt
func (s *Store) SetClock(clock clockwork.Clock) {
	s.clock = clock
}

// Policy returns the limits in force
func (s *Store) Policy() Policy {
	return s.policy
}

// OnAdded registers fn to run for every admitted file
func (s *Store) OnAdded(fn func(models.StagedFile)) {
	s.onAdded = append(s.onAdded, fn)
}

// OnRemoved registers fn to run for every removed file
func (s *Store) OnRemoved(fn func(models.StagedFile)) {
	s.onRemoved = append(s.onRemoved, fn)
}

// AddCandidates validates and appends a batch of picked files. A batch that
// would exceed MaxFiles is rejected as a whole with ErrTooManyFiles. Other
// rejections skip only the offending file and are listed in the result.
func (s *Store) AddCandidates(candidates []models.FileHandle) (AddResult, error) {
	var result AddResult
	if len(candidates) == 0 {
		return result, nil
	}

	if len(s.files)+len(candidates) > s.policy.MaxFiles {
		s.warn(s.policy.tooManyMessage())
		log.Info().
			Int("staged", len(s.files)).
			Int("candidates", len(candidates)).
			Int("max_files", s.policy.MaxFiles).
			Msg("rejected batch over file limit")
		return result, fmt.Errorf("%w: %d staged, %d picked, max %d",
			ErrTooManyFiles, len(s.files), len(candidates), s.policy.MaxFiles)
	}

	for _, c := range candidates {
		if err := s.policy.Check(c); err != nil {
			switch {
			case errors.Is(err, ErrTypeNotAllowed):
				s.warn(s.policy.typeMessage())
			case errors.Is(err, ErrTooLarge):
				s.warn(s.policy.sizeMessage())
			}
			log.Info().Err(err).Str("file", c.Name()).Msg("rejected candidate")
			result.Rejected = append(result.Rejected, Rejection{Name: c.Name(), Err: err})
			continue
		}

		if s.hasDuplicate(c) {
			log.Debug().
				Str("file", c.Name()).
				Int64("size", c.Size()).
				Msg("skipping duplicate")
			result.Rejected = append(result.Rejected, Rejection{Name: c.Name(), Err: ErrDuplicate})
			continue
		}

		file := models.StagedFile{
			ID:       uuid.New(),
			Payload:  c,
			StagedAt: s.clock.Now(),
		}
		s.files = append(s.files, file)
		result.Added = append(result.Added, file)

		log.Debug().
			Str("staged_id", file.ID.String()).
			Str("file", c.Name()).
			Int64("size", c.Size()).
			Msg("file staged")

		for _, fn := range s.onAdded {
			fn(file)
		}
	}

	return result, nil
}

func (s *Store) hasDuplicate(c models.FileHandle) bool {
	for _, f := range s.files {
		if f.Name() == c.Name() && f.Size() == c.Size() {
			return true
		}
	}
	return false
}

// Remove deletes the entry with id, if any. Emptying the collection clears
// the native picker so re-picking the same file is validated again.
func (s *Store) Remove(id uuid.UUID) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	removed := s.files[idx]
	s.files = append(s.files[:idx], s.files[idx+1:]...)

	log.Debug().
		Str("staged_id", id.String()).
		Str("file", removed.Name()).
		Int("remaining", len(s.files)).
		Msg("file unstaged")

	if len(s.files) == 0 && s.picker != nil {
		s.picker.Clear()
	}

	for _, fn := range s.onRemoved {
		fn(removed)
	}
	return true
}

// Get returns the entry with id
func (s *Store) Get(id uuid.UUID) (models.StagedFile, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.StagedFile{}, false
	}
	return s.files[idx], true
}

// Contains reports whether id is still staged
func (s *Store) Contains(id uuid.UUID) bool {
	return s.indexOf(id) >= 0
}

// Files returns a copy of the collection in submission order
func (s *Store) Files() []models.StagedFile {
	out := make([]models.StagedFile, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of staged files
func (s *Store) Len() int {
	return len(s.files)
}

func (s *Store) indexOf(id uuid.UUID) int {
	for i, f := range s.files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) warn(text string) {
	if s.notifier != nil {
		s.notifier.Warn(text)
	}
}
