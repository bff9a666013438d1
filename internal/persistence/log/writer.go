// Package log is the build journal: zstd-compressed JSON lines, one file
// per UTC hour, split into numbered parts once a part grows past a cap.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DefaultPartBytes caps the uncompressed size of one journal part.
const DefaultPartBytes = 64 << 20

// partWriter appends entries to prefix-YYYY-MM-DD-HH-NNN.jsonl.zst under dir.
type partWriter struct {
	dir      string
	prefix   string
	maxBytes int64

	mu   sync.Mutex
	hour string
	part int
	size int64
	f    *os.File
	enc  *zstd.Encoder
	buf  *bufio.Writer
}

func newPartWriter(dir, prefix string, maxBytes int64) *partWriter {
	if maxBytes <= 0 {
		maxBytes = DefaultPartBytes
	}
	return &partWriter{dir: dir, prefix: prefix, maxBytes: maxBytes}
}

func (w *partWriter) write(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	hour := e.Time.UTC().Format("2006-01-02-15")
	switch {
	case hour != w.hour:
		if err := w.openLocked(hour, 0); err != nil {
			return err
		}
	case w.size > 0 && w.size+int64(len(line)) > w.maxBytes:
		if err := w.openLocked(hour, w.part+1); err != nil {
			return err
		}
	}
	n, err := w.buf.Write(line)
	w.size += int64(n)
	return err
}

// flush pushes buffered lines out as a complete zstd frame.
func (w *partWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *partWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// openLocked switches to the first part at or after part that still has
// room; a reopened hour appends to its last part.
func (w *partWriter) openLocked(hour string, part int) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	var size int64
	for {
		st, err := os.Stat(w.path(hour, part))
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return err
		}
		if st.Size() < w.maxBytes {
			size = st.Size()
			break
		}
		part++
	}
	f, err := os.OpenFile(w.path(hour, part), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f, w.enc = f, enc
	w.buf = bufio.NewWriterSize(enc, 128*1024)
	w.hour, w.part, w.size = hour, part, size
	return nil
}

func (w *partWriter) closeLocked() error {
	var errs []error
	if w.buf != nil {
		errs = append(errs, w.buf.Flush())
	}
	if w.enc != nil {
		errs = append(errs, w.enc.Close())
	}
	if w.f != nil {
		errs = append(errs, w.f.Close())
	}
	w.f, w.enc, w.buf = nil, nil, nil
	w.hour, w.part, w.size = "", 0, 0
	return errors.Join(errs...)
}

func (w *partWriter) path(hour string, part int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s-%03d.jsonl.zst", w.prefix, hour, part))
}
