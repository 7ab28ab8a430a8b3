package models

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// FileHandle is a raw file the user picked: a blob plus its name, size and MIME type.
type FileHandle interface {
	Name() string
	Size() int64
	MIMEType() string
	Open() (io.ReadCloser, error)
}

// StagedFile is a file admitted into the staging collection.
type StagedFile struct {
	ID       uuid.UUID
	Payload  FileHandle
	StagedAt time.Time
}

// Name returns the payload file name.
func (f StagedFile) Name() string {
	return f.Payload.Name()
}

// Size returns the payload size in bytes.
func (f StagedFile) Size() int64 {
	return f.Payload.Size()
}
