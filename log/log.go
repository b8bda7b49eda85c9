// Package log is a package-level logger writing to daily files.
//
// Regular messages go to <Dir>/log/YYYY-MM-DD.txt, events (a name and
// key/value pairs) go to <Dir>/events/YYYY-MM-DD.txt as toon encoded
// siser entries. Messages are echoed to Output (stderr) if Verbose is set.
// Stdout is never written to because it carries command output.
//
// Before Init() (or with empty Dir) only echoing happens.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kjk/weatherlog/filerotate"
	"github.com/kjk/weatherlog/siser"

	"github.com/toon-format/toon-go"
)

var (
	logFile    *filerotate.File
	eventsFile *filerotate.File
	events     *siser.Writer
	mu         sync.Mutex

	// if true, Logf() and Verbosef() echo to Output
	Verbose bool
	// where messages are echoed, defaults to os.Stderr
	Output io.Writer = os.Stderr
)

type Config struct {
	// directory where log files are stored. Each log type
	// (regular, events) has its own subdirectory
	Dir     string
	Verbose bool
}

// Init initializes the logging system
func Init(config *Config) error {
	Close()
	mu.Lock()
	defer mu.Unlock()

	Verbose = config.Verbose
	if config.Dir == "" {
		return nil
	}
	var err error
	logFile, err = filerotate.NewDaily(&filerotate.Config{Dir: filepath.Join(config.Dir, "log")})
	if err != nil {
		return err
	}
	eventsFile, err = filerotate.NewDaily(&filerotate.Config{Dir: filepath.Join(config.Dir, "events")})
	if err != nil {
		logFile = nil
		return err
	}
	events = siser.NewWriter(eventsFile)
	return nil
}

func closeFile(f **filerotate.File) {
	if *f == nil {
		return
	}
	_ = (*f).Sync()
	_ = (*f).Close()
	*f = nil
}

// Close flushes and closes log files. Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	closeFile(&logFile)
	closeFile(&eventsFile)
	events = nil
}

func writeLog(s string) {
	mu.Lock()
	f := logFile
	mu.Unlock()
	if f != nil {
		_, _ = f.Write([]byte(s))
	}
}

func echo(s string) {
	if Verbose && Output != nil {
		fmt.Fprint(Output, s)
	}
}

func ensureNewline(s string) string {
	if !strings.HasSuffix(s, "\n") {
		return s + "\n"
	}
	return s
}

// Logf writes to the log file and, if Verbose, echoes to Output
func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	s = ensureNewline(s)
	echo(s)
	writeLog(s)
}

// Verbosef is like Logf but only logs if Verbose is set
func Verbosef(s string, args ...any) {
	if !Verbose {
		return
	}
	Logf(s, args...)
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		cs = append(cs, frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}

// Errorf logs an error message along with the callstack.
// The callstack only goes to the log file.
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	s = ensureNewline(s)
	echo(s)
	writeLog(s + GetCallstack(2) + "\n")
}

// if err != nil, log and return true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "error is: %v", err) => logs message formatted
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		Errorf("%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	Errorf("%s", s)
	return true
}

// simpleTypeToStr converts simple types to string
// panics if v is of complex type
func simpleTypeToStr(v any) string {
	rt := reflect.TypeOf(v)
	kind := rt.Kind()
	switch kind {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Map, reflect.Chan, reflect.Interface, reflect.Pointer:
		panic(fmt.Sprintf("toStr: value is of kind %v", kind))
	case reflect.String:
		return v.(string)
	}
	return fmt.Sprintf("%v", v)
}

// Event logs an event with key/value pairs, e.g.
// Event("add", "day", "Mon", "high", "21")
func Event(name string, vals ...any) {
	n := len(vals)
	if n%2 != 0 {
		panic(fmt.Sprintf("Event: odd number of vals (%d)", n))
	}
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k := simpleTypeToStr(vals[i])
			m[k] = vals[i+1]
		}
		var err error
		d, err = toon.Marshal(m)
		if err != nil {
			Errorf("Event: toon.Marshal() failed with '%s'", err)
			return
		}
	}
	mu.Lock()
	w := events
	mu.Unlock()
	if w == nil {
		return
	}
	_, _ = w.Write(d, time.Now().UTC(), name)
}

// EventWithDuration logs an event with "durmicro" key
func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}
