package flatstore

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/kjk/weatherlog/atomicfile"
	"github.com/kjk/weatherlog/log"
	"github.com/kjk/weatherlog/record"
	"github.com/kjk/weatherlog/u"
)

// DefaultPath is where the store lives when not configured
const DefaultPath = "data/store.txt"

// IOError is returned for any file system failure
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s '%s' failed with '%s'", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type Store struct {
	Path string
}

func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		Path: path,
	}
}

func (s *Store) ioErr(op string, err error) error {
	return &IOError{Op: op, Path: s.Path, Err: err}
}

// Exists returns true if the store file was created
func (s *Store) Exists() bool {
	return u.FileExists(s.Path)
}

// Initialize creates an empty store, discarding existing records
func (s *Store) Initialize() error {
	if err := u.EnsureParentDir(s.Path); err != nil {
		return s.ioErr("mkdir", err)
	}
	if err := atomicfile.WriteFile(s.Path, nil, 0644); err != nil {
		return s.ioErr("truncate", err)
	}
	log.Verbosef("flatstore: initialized '%s'\n", s.Path)
	return nil
}

// returns number of bytes in the file before the write
func appendToFileRobust(path string, data []byte) (int64, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return 0, err
	}
	var offset int64
	if st, err := file.Stat(); err == nil {
		offset = st.Size()
	}
	// a single write so that the line is not split by concurrent appends
	_, err = file.Write(data)
	if err != nil {
		file.Close()
		return 0, err
	}
	err = file.Sync()
	if err != nil {
		file.Close()
		return 0, err
	}
	return offset, file.Close()
}

// Append adds a record at the end. The store file is created
// if it doesn't exist.
func (s *Store) Append(rec record.Record) error {
	if err := u.EnsureParentDir(s.Path); err != nil {
		return s.ioErr("mkdir", err)
	}
	line := record.Encode(rec) + "\n"
	off, err := appendToFileRobust(s.Path, []byte(line))
	if err != nil {
		return s.ioErr("append", err)
	}
	log.Verbosef("flatstore: appended %d bytes at offset %d\n", len(line), off)
	return nil
}

// ParseRecords decodes records from store file content.
// Blank lines are skipped. Stops at first line that fails to decode.
func ParseRecords(d []byte) ([]record.Record, error) {
	scanner := bufio.NewScanner(bytes.NewReader(d))
	// a record is one line but nothing limits how long values are
	scanner.Buffer(make([]byte, 0, 64*1024), len(d)+1)
	var records []record.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		rec, err := record.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d '%s': %w", lineNo, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadAll returns all records in the order they were appended.
// A store that was never created has no records.
func (s *Store) LoadAll() ([]record.Record, error) {
	d, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []record.Record{}, nil
		}
		return nil, s.ioErr("read", err)
	}
	records, err := ParseRecords(d)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", s.Path, err)
	}
	if records == nil {
		records = []record.Record{}
	}
	log.Verbosef("flatstore: loaded %d records from '%s'\n", len(records), s.Path)
	return records, nil
}
