package staging

import (
	"fmt"
	"mime"
	"strings"

	"github.com/mcdev12/gavel/go/internal/models"
)

const (
	DefaultMaxFiles = 5
	DefaultMaxBytes = 5 * 1024 * 1024
)

// DefaultAllowedTypes are the image formats the listing form accepts.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Policy holds the selection limits.
type Policy struct {
	MaxFiles     int
	MaxBytes     int64
	AllowedTypes []string
	// Permissive accepts any image/* type instead of AllowedTypes.
	Permissive bool
}

// DefaultPolicy returns the standard limits: 5 files, 5 MiB each, JPEG/PNG/WEBP/GIF.
func DefaultPolicy() Policy {
	return Policy{
		MaxFiles:     DefaultMaxFiles,
		MaxBytes:     DefaultMaxBytes,
		AllowedTypes: DefaultAllowedTypes,
	}
}

// TypeAllowed reports whether mimeType passes the policy.
func (p Policy) TypeAllowed(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	if p.Permissive {
		return strings.HasPrefix(mediaType, "image/")
	}
	for _, t := range p.AllowedTypes {
		if mediaType == t {
			return true
		}
	}
	return false
}

// Check validates a single candidate against type and size.
func (p Policy) Check(f models.FileHandle) error {
	if !p.TypeAllowed(f.MIMEType()) {
		return fmt.Errorf("%w: %s is %q", ErrTypeNotAllowed, f.Name(), f.MIMEType())
	}
	if p.MaxBytes > 0 && f.Size() > p.MaxBytes {
		return fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, f.Name(), f.Size())
	}
	return nil
}

func (p Policy) tooManyMessage() string {
	return fmt.Sprintf("You can upload a maximum of %d images", p.MaxFiles)
}

func (p Policy) typeMessage() string {
	if p.Permissive {
		return "Only image files are allowed."
	}
	return "Only JPG/PNG/WebP/GIF formats are allowed."
}

func (p Policy) sizeMessage() string {
	return fmt.Sprintf("Each file must be under %d MB.", p.MaxBytes/(1024*1024))
}
