// Package tailer follows an append-only log file and emits complete lines,
// surviving rotation, truncation and deletion of the file.
package tailer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/jord/record"
	"github.com/fsnotify/fsnotify"
)

// heartbeatInterval bounds the wait for a filesystem notification. Missed or
// unsupported notifications only delay a read by one heartbeat.
const heartbeatInterval = time.Second

// ResetReason says why the tailer restarted its position within the file.
type ResetReason int

const (
	ResetNewFile ResetReason = iota + 1
	ResetRotation
	ResetTruncation
	ResetDeleted
)

func (r ResetReason) String() string {
	switch r {
	case ResetNewFile:
		return "new_file"
	case ResetRotation:
		return "rotation"
	case ResetTruncation:
		return "truncation"
	case ResetDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event is either a complete line from the file or a reset marker. Partial
// lines flushed at a state transition are emitted as lines carrying
// record.FragmentPrefix.
type Event struct {
	Line  string
	Reset ResetReason
}

func (e Event) IsReset() bool {
	return e.Reset != 0
}

// Tailer follows a single file path. The zero value is not usable; set Path.
type Tailer struct {
	Path string

	// StartAtBeginning reads existing content when the file first appears
	// instead of starting at its end.
	StartAtBeginning bool

	active   bool
	offset   int64
	identity uint64
	partial  []byte
}

// Run tails the file until ctx is cancelled, writing events to out. Sends
// block when out is full, which backpressures the reads. On cancellation any
// buffered partial line is flushed as a fragment and out is closed.
func (t *Tailer) Run(ctx context.Context, out chan<- Event) {
	defer close(out)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logs.Warn(errors.New("creating filesystem watcher failed, falling back to heartbeat only").
			Wrap(err))
	} else {
		defer watcher.Close()

		// watch the directory so a rotated or recreated file is still seen
		if err := watcher.Add(filepath.Dir(t.Path)); err != nil {
			logs.Warn(errors.New("watching log directory failed, falling back to heartbeat only").
				WithTag("path", t.Path).
				Wrap(err))
		}
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if watcher != nil {
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
	}

	t.tick(out)

	for {
		select {
		case <-ctx.Done():
			t.flushPartial(out)
			return

		case ev := <-watchEvents:
			if filepath.Clean(ev.Name) == filepath.Clean(t.Path) {
				t.tick(out)
			}

		case err := <-watchErrors:
			logs.Warn(errors.New("filesystem watcher error").
				WithTag("path", t.Path).
				Wrap(err))

		case <-heartbeat.C:
			t.tick(out)
		}
	}
}

// tick reconciles the tailer state with the file on disk and emits whatever
// became readable. Transient I/O errors skip the tick; the next wake retries.
func (t *Tailer) tick(out chan<- Event) {
	info, err := os.Stat(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			if t.active {
				t.flushPartial(out)
				t.active = false
				t.offset = 0
				t.identity = 0
				out <- Event{Reset: ResetDeleted}
			}
			return
		}

		logs.WithTag("path", t.Path).
			WithTag("error", err.Error()).
			Debug("stat on log file failed, skipping tick")
		return
	}

	if !t.active {
		t.active = true
		t.identity = fileIdentity(info)
		t.partial = nil
		t.offset = info.Size()
		if t.StartAtBeginning {
			t.offset = 0
		}
		out <- Event{Reset: ResetNewFile}
		if info.Size() > t.offset {
			t.read(out, info.Size())
		}
		return
	}

	// rotation: a different file is now behind the same path. Identity 0
	// means the platform gave none, which disables this check.
	if id := fileIdentity(info); id != t.identity && id != 0 && t.identity != 0 {
		t.flushPartial(out)
		t.identity = id
		t.offset = 0
		out <- Event{Reset: ResetRotation}
		t.read(out, info.Size())
		return
	}

	if info.Size() < t.offset {
		t.flushPartial(out)
		t.offset = 0
		out <- Event{Reset: ResetTruncation}
		t.read(out, info.Size())
		return
	}

	if info.Size() > t.offset {
		t.read(out, info.Size())
	}
}

func (t *Tailer) read(out chan<- Event, size int64) {
	f, err := os.Open(t.Path)
	if err != nil {
		logs.WithTag("path", t.Path).
			WithTag("error", err.Error()).
			Debug("opening log file failed, skipping tick")
		return
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		logs.WithTag("path", t.Path).
			WithTag("error", err.Error()).
			Debug("seeking log file failed, skipping tick")
		return
	}

	buf := make([]byte, size-t.offset)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		logs.WithTag("path", t.Path).
			WithTag("error", err.Error()).
			Debug("reading log file failed, skipping tick")
		return
	}
	t.offset += int64(n)

	t.partial = append(t.partial, buf[:n]...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		out <- Event{Line: trimLine(t.partial[:i])}
		t.partial = t.partial[i+1:]
	}
}

// flushPartial emits any buffered partial line as a fragment so downstream
// parsers can discard it.
func (t *Tailer) flushPartial(out chan<- Event) {
	if len(t.partial) == 0 {
		return
	}
	out <- Event{Line: record.FragmentPrefix + string(t.partial)}
	t.partial = nil
}

func trimLine(b []byte) string {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return string(b)
}

// CountLines approximates the number of lines in the file by scanning for
// newlines, counting a final unterminated line as one.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.New("opening file for line count failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	count := 0
	lastByte := byte('\n')
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			lastByte = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.New("reading file for line count failed").
				WithTag("path", path).
				Wrap(err)
		}
	}

	if lastByte != '\n' {
		count++
	}
	return count, nil
}
