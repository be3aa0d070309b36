package transfer

import (
	"io"
	"os"
	"path/filepath"
	"time"
)

// File is the receiver-side handle the engine writes transferred data
// into.  *os.File satisfies it.
type File interface {
	io.Writer
	Truncate(size int64) error
	Sync() error
	Close() error
}

// Sink creates and finalizes received files.  The engine holds a Sink
// for the duration of a session only.
type Sink interface {
	Create(name string) (File, error)
	Chtimes(name string, mtime time.Time) error
	Remove(name string) error
}

// DirSink is a Sink rooted at a directory.  File names from YMODEM
// block 0 are stripped to their base name so a hostile sender cannot
// escape the directory.
type DirSink struct {
	Dir string
}

func (d DirSink) path(name string) string {
	return filepath.Join(d.Dir, filepath.Base(name))
}

func (d DirSink) Create(name string) (File, error) {
	return os.Create(d.path(name))
}

func (d DirSink) Chtimes(name string, mtime time.Time) error {
	return os.Chtimes(d.path(name), mtime, mtime)
}

func (d DirSink) Remove(name string) error {
	return os.Remove(d.path(name))
}

// FileInfo is the sender-side metadata for one outgoing file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// SendFile pairs outgoing file metadata with its content.
type SendFile struct {
	Info FileInfo
	Data io.Reader
}
