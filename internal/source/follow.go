package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/atikulmunna/iisfilter/internal/model"
)

const utf8BOM = "\uFEFF"

// Follower reads a file to its end and then waits for appended lines, like
// tail -f. It survives log rotation by reopening the path when it is removed
// or renamed.
//
// The wait happens inside Next, so the caller stays single-threaded.
type Follower struct {
	ctx     context.Context
	path    string
	log     zerolog.Logger
	fsw     *fsnotify.Watcher
	file    *os.File
	br      *bufio.Reader
	partial string // bytes read past the last newline
	first   bool

	// Retries and Interval bound the reopen attempts after rotation.
	Retries  int
	Interval time.Duration
}

// NewFollower opens path and starts watching it. Next returns io.EOF once
// ctx is cancelled.
func NewFollower(ctx context.Context, path string, log zerolog.Logger) (*Follower, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	f := &Follower{
		ctx:      ctx,
		path:     path,
		log:      log,
		fsw:      fsw,
		Retries:  5,
		Interval: time.Second,
	}
	if err := f.open(); err != nil {
		fsw.Close()
		return nil, err
	}
	return f, nil
}

func (f *Follower) open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	if err := f.fsw.Add(f.path); err != nil {
		file.Close()
		return fmt.Errorf("watch %s: %w", f.path, err)
	}
	f.file = file
	f.br = bufio.NewReader(file)
	f.partial = ""
	f.first = true
	return nil
}

// Next returns the next complete line, blocking until one is written.
func (f *Follower) Next() (model.RawLine, error) {
	for {
		chunk, err := f.br.ReadString('\n')
		f.partial += chunk
		if err == nil {
			text := strings.TrimSuffix(strings.TrimSuffix(f.partial, "\n"), "\r")
			f.partial = ""
			if f.first {
				text = strings.TrimPrefix(text, utf8BOM)
				f.first = false
			}
			return model.RawLine{Text: text, Source: f.path}, nil
		}
		if err != io.EOF {
			return model.RawLine{}, fmt.Errorf("read %s: %w", f.path, err)
		}
		if err := f.wait(); err != nil {
			return model.RawLine{}, err
		}
	}
}

// wait blocks until the file changes. It returns io.EOF when following
// should stop.
func (f *Follower) wait() error {
	for {
		select {
		case <-f.ctx.Done():
			return io.EOF

		case ev, ok := <-f.fsw.Events:
			if !ok {
				return io.EOF
			}
			switch {
			case ev.Op&fsnotify.Write != 0:
				return nil
			case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
				f.log.Info().Str("path", f.path).Msg("log file rotated")
				return f.reopen()
			}

		case err, ok := <-f.fsw.Errors:
			if !ok {
				return io.EOF
			}
			f.log.Warn().Err(err).Str("path", f.path).Msg("watcher error")
		}
	}
}

// reopen polls for the path to reappear after rotation.
func (f *Follower) reopen() error {
	f.file.Close()
	_ = f.fsw.Remove(f.path)

	for i := 0; i < f.Retries; i++ {
		select {
		case <-f.ctx.Done():
			return io.EOF
		case <-time.After(f.Interval):
		}
		if _, err := os.Stat(f.path); err != nil {
			continue
		}
		if err := f.open(); err != nil {
			f.log.Warn().Err(err).Msg("reopen failed")
			continue
		}
		f.log.Info().Str("path", f.path).Msg("reconnected to rotated file")
		return nil
	}

	f.log.Warn().Str("path", f.path).Int("retries", f.Retries).Msg("gave up reconnecting")
	return io.EOF
}

// Close stops watching and releases the file.
func (f *Follower) Close() error {
	werr := f.fsw.Close()
	if err := f.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return werr
}
