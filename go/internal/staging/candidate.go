package staging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// DiskFile is a file picked from the local filesystem. Its MIME type is
// sniffed from content, not taken from the extension.
type DiskFile struct {
	path     string
	name     string
	size     int64
	mimeType string
}

// OpenDiskFile stats and sniffs path.
func OpenDiskFile(path string) (*DiskFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect content type of %s: %w", path, err)
	}

	return &DiskFile{
		path:     path,
		name:     filepath.Base(path),
		size:     info.Size(),
		mimeType: mt.String(),
	}, nil
}

func (f *DiskFile) Name() string     { return f.name }
func (f *DiskFile) Size() int64      { return f.size }
func (f *DiskFile) MIMEType() string { return f.mimeType }
func (f *DiskFile) Path() string     { return f.path }

func (f *DiskFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is an in-memory blob.
type MemoryFile struct {
	name     string
	data     []byte
	mimeType string
}

// NewMemoryFile wraps data. An empty mimeType is sniffed from data.
func NewMemoryFile(name string, data []byte, mimeType string) *MemoryFile {
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return &MemoryFile{name: name, data: data, mimeType: mimeType}
}

func (f *MemoryFile) Name() string     { return f.name }
func (f *MemoryFile) Size() int64      { return int64(len(f.data)) }
func (f *MemoryFile) MIMEType() string { return f.mimeType }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
