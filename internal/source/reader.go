// Package source supplies log lines one at a time from files or stdin.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/atikulmunna/iisfilter/internal/model"
)

// StdinName is the source name reported for lines read from stdin.
const StdinName = "-"

var gzipMagic = []byte{0x1f, 0x8b}

// LineSource yields lines until it returns io.EOF.
type LineSource interface {
	Next() (model.RawLine, error)
}

// Reader reads lines from an io.Reader. A leading UTF-8 BOM is dropped and
// UTF-16 input with a BOM is decoded to UTF-8. Lines have no length limit.
type Reader struct {
	br     *bufio.Reader
	name   string
	closer io.Closer
}

// NewReader returns a Reader over r. name is reported as the line source.
func NewReader(r io.Reader, name string) *Reader {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	return &Reader{br: bufio.NewReader(dec), name: name}
}

// Open opens a log file for reading. Gzip-compressed files are decompressed
// transparently.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	br := bufio.NewReader(f)
	magic, _ := br.Peek(len(gzipMagic))
	if !bytes.Equal(magic, gzipMagic) {
		r := NewReader(br, path)
		r.closer = f
		return r, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gzip %s: %w", path, err)
	}
	r := NewReader(zr, path)
	r.closer = closers{zr, f}
	return r, nil
}

// Next returns the next line without its terminator. A final line with no
// newline is still returned.
func (r *Reader) Next() (model.RawLine, error) {
	text, err := r.br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return model.RawLine{}, fmt.Errorf("read %s: %w", r.name, err)
	}
	if err != nil && text == "" {
		return model.RawLine{}, io.EOF
	}
	text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
	return model.RawLine{Text: text, Source: r.name}, nil
}

// Close releases the underlying file, if the Reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for _, c := range cs {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Concat reads several files one after another as a single stream.
type Concat struct {
	paths []string
	next  int
	cur   *Reader
}

// NewConcat returns a LineSource over paths, opened lazily in order.
func NewConcat(paths []string) *Concat {
	return &Concat{paths: paths}
}

func (c *Concat) Next() (model.RawLine, error) {
	for {
		if c.cur == nil {
			if c.next >= len(c.paths) {
				return model.RawLine{}, io.EOF
			}
			r, err := Open(c.paths[c.next])
			c.next++
			if err != nil {
				return model.RawLine{}, err
			}
			c.cur = r
		}

		line, err := c.cur.Next()
		if errors.Is(err, io.EOF) {
			c.cur.Close()
			c.cur = nil
			continue
		}
		return line, err
	}
}

// Close releases the file currently being read.
func (c *Concat) Close() error {
	if c.cur == nil {
		return nil
	}
	err := c.cur.Close()
	c.cur = nil
	return err
}
