package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/mcdev12/gavel/go/internal/models"
)

// DefaultMaxEdge bounds the thumbnail's longest side, in pixels.
const DefaultMaxEdge = 150

// Thumbnail is a decoded, downscaled preview of a staged image.
type Thumbnail struct {
	Format      string
	Width       int
	Height      int
	ThumbWidth  int
	ThumbHeight int
	PNG         []byte
}

// DataURL returns the thumbnail as an inline image source.
func (t Thumbnail) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(t.PNG)
}

// Decode reads the file payload and renders a thumbnail whose longest side is
// at most maxEdge pixels. Smaller images are not upscaled.
func Decode(f models.FileHandle, maxEdge int) (Thumbnail, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}

	rc, err := f.Open()
	if err != nil {
		return Thumbnail{}, fmt.Errorf("open %s: %w", f.Name(), err)
	}
	defer rc.Close()

	src, format, err := image.Decode(rc)
	if err != nil {
		return Thumbnail{}, fmt.Errorf("decode %s: %w", f.Name(), err)
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Thumbnail{}, fmt.Errorf("encode thumbnail for %s: %w", f.Name(), err)
	}

	return Thumbnail{
		Format:      format,
		Width:       b.Dx(),
		Height:      b.Dy(),
		ThumbWidth:  w,
		ThumbHeight: h,
		PNG:         buf.Bytes(),
	}, nil
}

func fit(w, h, maxEdge int) (int, int) {
	if w <= maxEdge && h <= maxEdge {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return maxEdge, max(h*maxEdge/w, 1)
	}
	return max(w*maxEdge/h, 1), maxEdge
}
