package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/gavel/go/internal/eventloop"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/mcdev12/gavel/go/internal/staging"
)

type warnings struct{ got []string }

func (w *warnings) Warn(text string) { w.got = append(w.got, text) }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// signalingScheduler reports every task it enqueues.
type signalingScheduler struct {
	*eventloop.Loop
	posted chan struct{}
}

func (s *signalingScheduler) Post(task func()) {
	s.Loop.Post(task)
	s.posted <- struct{}{}
}

func startLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	loop := eventloop.NewLoop(64)
	go loop.Run(ctx)
	return loop
}

func call(t *testing.T, loop *eventloop.Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loop.Call(ctx, fn); err != nil {
		t.Fatalf("loop call: %v", err)
	}
}

// waitFor polls cond on the loop until it holds.
func waitFor(t *testing.T, loop *eventloop.Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var ok bool
		call(t, loop, func() { ok = cond() })
		if ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDecodeBoundsThumbnail(t *testing.T) {
	f := staging.NewMemoryFile("wide.png", pngBytes(t, 600, 300), "")
	thumb, err := Decode(f, 150)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if thumb.Width != 600 || thumb.Height != 300 {
		t.Fatalf("source = %dx%d", thumb.Width, thumb.Height)
	}
	if thumb.ThumbWidth != 150 || thumb.ThumbHeight != 75 {
		t.Fatalf("thumb = %dx%d, want 150x75", thumb.ThumbWidth, thumb.ThumbHeight)
	}
	if thumb.Format != "png" {
		t.Fatalf("format = %s", thumb.Format)
	}
	if !strings.HasPrefix(thumb.DataURL(), "data:image/png;base64,") {
		t.Fatalf("data url = %.40s", thumb.DataURL())
	}
}

func TestDecodeDoesNotUpscale(t *testing.T) {
	thumb, err := Decode(staging.NewMemoryFile("tiny.png", pngBytes(t, 20, 40), ""), 150)
	if err != nil {
		t.Fatal(err)
	}
	if thumb.ThumbWidth != 20 || thumb.ThumbHeight != 40 {
		t.Fatalf("thumb = %dx%d, want 20x40", thumb.ThumbWidth, thumb.ThumbHeight)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(staging.NewMemoryFile("bad.jpg", []byte("not an image"), "image/jpeg"), 150)
	if err == nil {
		t.Fatal("Decode succeeded on garbage")
	}
}

func TestRendererProjectsInCollectionOrder(t *testing.T) {
	loop := startLoop(t)
	w := &warnings{}
	a := staging.NewMemoryFile("a.png", pngBytes(t, 10, 10), "")
	b := staging.NewMemoryFile("b.png", pngBytes(t, 12, 12), "")
	var (
		store *staging.Store
		r     *Renderer
	)
	call(t, loop, func() {
		store = staging.NewStore(staging.DefaultPolicy(), w, nil)
		r = NewRenderer(loop, store, w)
		_, err := store.AddCandidates([]models.FileHandle{a, b})
		if err != nil {
			t.Errorf("AddCandidates: %v", err)
		}
	})

	waitFor(t, loop, func() bool { return r.Pending() == 0 })

	var els []Element
	call(t, loop, func() { els = r.Elements() })
	if len(els) != 2 || els[0].Name != "a.png" || els[1].Name != "b.png" {
		t.Fatalf("elements = %+v", els)
	}
	for _, el := range els {
		if el.Status != StatusReady {
			t.Fatalf("%s status = %s", el.Name, el.Status)
		}
	}

	call(t, loop, func() {
		if !r.RemoveClicked(els[0].ID) {
			t.Error("RemoveClicked returned false")
		}
		els = r.Elements()
	})
	if len(els) != 1 || els[0].Name != "b.png" {
		t.Fatalf("elements after removal = %+v", els)
	}
}

func TestLateDecodeDoesNotResurrectRemovedFile(t *testing.T) {
	loop := startLoop(t)
	release := make(chan struct{})
	slow := func(f models.FileHandle, maxEdge int) (Thumbnail, error) {
		<-release
		return Thumbnail{Width: 1, Height: 1}, nil
	}
	sched := &signalingScheduler{Loop: loop, posted: make(chan struct{}, 1)}

	var (
		store   *staging.Store
		r       *Renderer
		changes int
	)
	call(t, loop, func() {
		store = staging.NewStore(staging.DefaultPolicy(), &warnings{}, nil)
		r = NewRenderer(sched, store, &warnings{}, WithDecoder(slow))
		r.OnChange(func() { changes++ })
		res, _ := store.AddCandidates([]models.FileHandle{staging.NewMemoryFile("a.png", []byte{1}, "image/png")})
		r.RemoveClicked(res.Added[0].ID)
	})

	close(release)
	<-sched.posted

	call(t, loop, func() {
		if n := len(r.Elements()); n != 0 {
			t.Errorf("elements = %d, want 0", n)
		}
		if len(r.ready) != 0 {
			t.Errorf("late decode cached a preview for a removed file")
		}
		if changes != 1 {
			t.Errorf("changes = %d, want 1 (the removal)", changes)
		}
	})
}

func TestDecodeFailureUnstagesFile(t *testing.T) {
	loop := startLoop(t)
	w := &warnings{}
	failing := func(f models.FileHandle, maxEdge int) (Thumbnail, error) {
		return Thumbnail{}, errors.New("corrupt")
	}

	var store *staging.Store
	call(t, loop, func() {
		store = staging.NewStore(staging.DefaultPolicy(), w, nil)
		NewRenderer(loop, store, w, WithDecoder(failing))
		store.AddCandidates([]models.FileHandle{staging.NewMemoryFile("broken.png", []byte{1}, "image/png")})
	})

	waitFor(t, loop, func() bool { return store.Len() == 0 })
	call(t, loop, func() {
		if len(w.got) != 1 || w.got[0] != "Could not read image broken.png" {
			t.Errorf("warnings = %v", w.got)
		}
	})
}
