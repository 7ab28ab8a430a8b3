package staging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/gavel/go/internal/models"
)

type recordingNotifier struct {
	warnings []string
}

func (n *recordingNotifier) Warn(text string) { n.warnings = append(n.warnings, text) }

type fakePicker struct {
	cleared int
}

func (p *fakePicker) Clear() { p.cleared++ }

func jpeg(name string, size int) models.FileHandle {
	return NewMemoryFile(name, bytes.Repeat([]byte{0xff}, size), "image/jpeg")
}

func newTestStore() (*Store, *recordingNotifier, *fakePicker) {
	n := &recordingNotifier{}
	p := &fakePicker{}
	return NewStore(DefaultPolicy(), n, p), n, p
}

func TestAddCandidatesAdmitsInOrder(t *testing.T) {
	s, n, _ := newTestStore()

	res, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 10), jpeg("b.jpg", 20), jpeg("c.jpg", 30)})
	if err != nil {
		t.Fatalf("AddCandidates: %v", err)
	}
	if len(res.Added) != 3 || s.Len() != 3 {
		t.Fatalf("added=%d len=%d, want 3", len(res.Added), s.Len())
	}
	if len(n.warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", n.warnings)
	}

	for i, want := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if got := s.Files()[i].Name(); got != want {
			t.Errorf("file %d = %s, want %s", i, got, want)
		}
	}

	seen := map[uuid.UUID]bool{}
	for _, f := range s.Files() {
		if seen[f.ID] {
			t.Fatalf("id %s reused", f.ID)
		}
		seen[f.ID] = true
	}
}

func TestStagedAtComesFromClock(t *testing.T) {
	s, _, _ := newTestStore()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	s.SetClock(clock)

	if _, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 10)}); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Minute)
	if _, err := s.AddCandidates([]models.FileHandle{jpeg("b.jpg", 10)}); err != nil {
		t.Fatal(err)
	}

	files := s.Files()
	if !files[0].StagedAt.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("a.jpg staged at %s", files[0].StagedAt)
	}
	if got := files[1].StagedAt.Sub(files[0].StagedAt); got != time.Minute {
		t.Errorf("gap = %s, want 1m", got)
	}
}

func TestAddCandidatesRejectsWholeBatchOverLimit(t *testing.T) {
	s, n, _ := newTestStore()
	if _, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 1), jpeg("b.jpg", 2), jpeg("c.jpg", 3)}); err != nil {
		t.Fatalf("first batch: %v", err)
	}

	res, err := s.AddCandidates([]models.FileHandle{jpeg("d.jpg", 4), jpeg("e.jpg", 5), jpeg("f.jpg", 6)})
	if !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("err = %v, want ErrTooManyFiles", err)
	}
	if len(res.Added) != 0 {
		t.Fatalf("over-limit batch admitted %d files", len(res.Added))
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	if len(n.warnings) != 1 || n.warnings[0] != "You can upload a maximum of 5 images" {
		t.Fatalf("warnings = %v", n.warnings)
	}
}

func TestAddCandidatesNeverExceedsMax(t *testing.T) {
	s, _, _ := newTestStore()
	for round := 0; round < 10; round++ {
		batch := make([]models.FileHandle, 0, round%4+1)
		for i := 0; i < cap(batch); i++ {
			batch = append(batch, jpeg(fmt.Sprintf("r%d-%d.jpg", round, i), 100+i))
		}
		before := s.Len()
		res, err := s.AddCandidates(batch)
		if err != nil && len(res.Added) != 0 {
			t.Fatalf("round %d: rejected batch admitted files", round)
		}
		if err != nil && s.Len() != before {
			t.Fatalf("round %d: rejected batch changed collection", round)
		}
		if s.Len() > DefaultMaxFiles {
			t.Fatalf("round %d: len %d exceeds max", round, s.Len())
		}
	}
}

func TestAddCandidatesSkipsInvalidFilesOnly(t *testing.T) {
	tests := []struct {
		name        string
		candidate   models.FileHandle
		wantErr     error
		wantWarning string
	}{
		{
			name:        "pdf rejected",
			candidate:   NewMemoryFile("doc.pdf", []byte("%PDF-1.4"), "application/pdf"),
			wantErr:     ErrTypeNotAllowed,
			wantWarning: "Only JPG/PNG/WebP/GIF formats are allowed.",
		},
		{
			name:        "bmp rejected in strict mode",
			candidate:   NewMemoryFile("pic.bmp", []byte("BM"), "image/bmp"),
			wantErr:     ErrTypeNotAllowed,
			wantWarning: "Only JPG/PNG/WebP/GIF formats are allowed.",
		},
		{
			name:        "oversized rejected",
			candidate:   jpeg("big.jpg", DefaultMaxBytes+1),
			wantErr:     ErrTooLarge,
			wantWarning: "Each file must be under 5 MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, n, _ := newTestStore()
			res, err := s.AddCandidates([]models.FileHandle{jpeg("ok1.jpg", 1), tt.candidate, jpeg("ok2.jpg", 2)})
			if err != nil {
				t.Fatalf("AddCandidates: %v", err)
			}
			if s.Len() != 2 {
				t.Fatalf("len = %d, want 2", s.Len())
			}
			if len(res.Rejected) != 1 || !errors.Is(res.Rejected[0].Err, tt.wantErr) {
				t.Fatalf("rejected = %+v, want one %v", res.Rejected, tt.wantErr)
			}
			if len(n.warnings) != 1 || n.warnings[0] != tt.wantWarning {
				t.Fatalf("warnings = %v, want %q", n.warnings, tt.wantWarning)
			}
		})
	}
}

func TestPermissivePolicyAcceptsAnyImage(t *testing.T) {
	policy := DefaultPolicy()
	policy.Permissive = true
	s := NewStore(policy, &recordingNotifier{}, nil)

	res, err := s.AddCandidates([]models.FileHandle{
		NewMemoryFile("pic.bmp", []byte("BM"), "image/bmp"),
		NewMemoryFile("notes.txt", []byte("hi"), "text/plain; charset=utf-8"),
	})
	if err != nil {
		t.Fatalf("AddCandidates: %v", err)
	}
	if len(res.Added) != 1 || res.Added[0].Name() != "pic.bmp" {
		t.Fatalf("added = %+v", res.Added)
	}
}

func TestDuplicateIsSilentNoOp(t *testing.T) {
	s, n, _ := newTestStore()
	if _, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 10)}); err != nil {
		t.Fatal(err)
	}

	res, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 10)})
	if err != nil {
		t.Fatalf("AddCandidates: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
	if len(res.Rejected) != 1 || !errors.Is(res.Rejected[0].Err, ErrDuplicate) {
		t.Fatalf("rejected = %+v", res.Rejected)
	}
	if len(n.warnings) != 0 {
		t.Fatalf("duplicate produced warnings: %v", n.warnings)
	}

	// same name, different size is a different file
	if _, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 11)}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
}

func TestDuplicateWithinOneBatch(t *testing.T) {
	s, _, _ := newTestStore()
	res, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 10), jpeg("a.jpg", 10)})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || s.Len() != 1 {
		t.Fatalf("added=%d len=%d, want 1", len(res.Added), s.Len())
	}
}

func TestRemoveKeepsOrderAndIdentity(t *testing.T) {
	s, _, p := newTestStore()
	res, _ := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 1), jpeg("b.jpg", 2), jpeg("c.jpg", 3)})
	a, b, c := res.Added[0], res.Added[1], res.Added[2]

	if !s.Remove(b.ID) {
		t.Fatal("Remove(b) = false")
	}
	files := s.Files()
	if len(files) != 2 || files[0].ID != a.ID || files[1].ID != c.ID {
		t.Fatalf("files after removal = %+v", files)
	}
	if p.cleared != 0 {
		t.Fatalf("picker cleared with files remaining")
	}

	if s.Remove(b.ID) {
		t.Fatal("second Remove(b) = true, want no-op")
	}
	if s.Remove(uuid.New()) {
		t.Fatal("Remove(unknown) = true")
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
}

func TestRemovingLastEntryClearsPicker(t *testing.T) {
	s, _, p := newTestStore()
	res, _ := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 1), jpeg("b.jpg", 2)})

	s.Remove(res.Added[0].ID)
	s.Remove(res.Added[1].ID)
	if p.cleared != 1 {
		t.Fatalf("picker cleared %d times, want 1", p.cleared)
	}

	// the same file may be picked again after clearing
	res2, err := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 1)})
	if err != nil || len(res2.Added) != 1 {
		t.Fatalf("re-adding after clear: added=%d err=%v", len(res2.Added), err)
	}
}

func TestObserversFire(t *testing.T) {
	s, _, _ := newTestStore()
	var added, removed []string
	s.OnAdded(func(f models.StagedFile) { added = append(added, f.Name()) })
	s.OnRemoved(func(f models.StagedFile) { removed = append(removed, f.Name()) })

	res, _ := s.AddCandidates([]models.FileHandle{jpeg("a.jpg", 1), jpeg("b.jpg", 2)})
	s.Remove(res.Added[0].ID)

	if fmt.Sprint(added) != "[a.jpg b.jpg]" || fmt.Sprint(removed) != "[a.jpg]" {
		t.Fatalf("added=%v removed=%v", added, removed)
	}
}

func TestOpenDiskFileSniffsContent(t *testing.T) {
	dir := t.TempDir()
	// PNG signature under a misleading extension
	path := filepath.Join(dir, "photo.jpg")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := OpenDiskFile(path)
	if err != nil {
		t.Fatalf("OpenDiskFile: %v", err)
	}
	if f.MIMEType() != "image/png" {
		t.Fatalf("mime = %q, want image/png", f.MIMEType())
	}
	if f.Size() != int64(len(png)) || f.Name() != "photo.jpg" {
		t.Fatalf("name=%s size=%d", f.Name(), f.Size())
	}

	if _, err := OpenDiskFile(dir); err == nil {
		t.Fatal("OpenDiskFile(dir) succeeded")
	}
}
