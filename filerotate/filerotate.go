// Package filerotate implements an append-only file that switches to
// a new file every day, e.g. log/2024-05-01.txt, log/2024-05-02.txt.
package filerotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Config struct {
	Dir string
	// optional, prepended to file name
	Prefix string
	// called after a file is closed, either because of rotation or Close()
	DidClose func(path string, didRotate bool)
	// for tests, defaults to time.Now
	Now func() time.Time
}

type File struct {
	sync.Mutex

	// Path is the path of the current file, empty before first write
	Path string

	config Config
	day    string
	file   *os.File
}

// NewDaily creates a file rotating daily in config.Dir.
// The file is opened lazily on first write so that a program
// that doesn't log doesn't create empty files.
func NewDaily(config *Config) (*File, error) {
	if config == nil {
		return nil, fmt.Errorf("must provide config")
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("must provide config.Dir")
	}
	f := &File{
		config: *config,
	}
	if f.config.Now == nil {
		f.config.Now = time.Now
	}
	return f, nil
}

func (f *File) pathForDay(day string) string {
	return filepath.Join(f.config.Dir, f.config.Prefix+day+".txt")
}

func (f *File) close(didRotate bool) error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	if err == nil && f.config.DidClose != nil {
		f.config.DidClose(f.Path, didRotate)
	}
	return err
}

func (f *File) open(day string) error {
	f.day = day
	f.Path = f.pathForDay(day)
	err := os.MkdirAll(f.config.Dir, 0755)
	if err != nil {
		return err
	}
	f.file, err = os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	return err
}

func (f *File) reopenIfNeeded() error {
	day := f.config.Now().UTC().Format("2006-01-02")
	if f.file != nil && day == f.day {
		return nil
	}
	if err := f.close(f.file != nil); err != nil {
		return err
	}
	return f.open(day)
}

// Write writes data to a file for current day
func (f *File) Write(d []byte) (int, error) {
	f.Lock()
	defer f.Unlock()

	if err := f.reopenIfNeeded(); err != nil {
		return 0, err
	}
	return f.file.Write(d)
}

// Sync flushes current file to disk
func (f *File) Sync() error {
	f.Lock()
	defer f.Unlock()

	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

func (f *File) Close() error {
	f.Lock()
	defer f.Unlock()

	return f.close(false)
}
