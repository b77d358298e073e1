package source

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func drain(t *testing.T, src LineSource) []string {
	t.Helper()
	var lines []string
	for {
		l, err := src.Next()
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, l.Text)
	}
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestReaderLines(t *testing.T) {
	r := NewReader(strings.NewReader("#Fields: date\r\n2013-12-31\nlast"), StdinName)

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "#Fields: date", first.Text)
	assert.Equal(t, StdinName, first.Source)

	assert.Equal(t, []string{"2013-12-31", "last"}, drain(t, r))
}

func TestReaderStripsUTF8BOM(t *testing.T) {
	r := NewReader(strings.NewReader("\uFEFF#Software: IIS\n"), StdinName)
	assert.Equal(t, []string{"#Software: IIS"}, drain(t, r))
}

func TestReaderDecodesUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("#Fields: date time\n2013-12-31 00:00:01\n"))
	require.NoError(t, err)

	r := NewReader(bytes.NewReader(data), StdinName)
	assert.Equal(t, []string{"#Fields: date time", "2013-12-31 00:00:01"}, drain(t, r))
}

func TestReaderLongLine(t *testing.T) {
	long := "2013-12-31 00:00:01 get /" + strings.Repeat("a", 2<<20) + " - 200 0 0 10"
	r := NewReader(strings.NewReader(long+"\r\n/after\n"), StdinName)
	assert.Equal(t, []string{long, "/after"}, drain(t, r))
}

func TestReaderBlankLines(t *testing.T) {
	r := NewReader(strings.NewReader("a\n\n\r\nb\n"), StdinName)
	assert.Equal(t, []string{"a", "", "", "b"}, drain(t, r))
}

func TestOpenPlain(t *testing.T) {
	p := writeFile(t, t.TempDir(), "u_ex131231.log", []byte("#Version: 1.0\nline\n"))

	r, err := Open(p)
	require.NoError(t, err)
	defer r.Close()

	l, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, p, l.Source)
	assert.Equal(t, "#Version: 1.0", l.Text)
}

func TestOpenGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("#Version: 1.0\n2013-12-31 00:00:01\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := writeFile(t, t.TempDir(), "u_ex131231.log.gz", buf.Bytes())

	r, err := Open(p)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"#Version: 1.0", "2013-12-31 00:00:01"}, drain(t, r))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.log"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "missing.log")
}

func TestConcat(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", []byte("a1\na2\n"))
	empty := writeFile(t, dir, "b.log", nil)
	c := writeFile(t, dir, "c.log", []byte("c1\n"))

	src := NewConcat([]string{a, empty, c})
	defer src.Close()

	assert.Equal(t, []string{"a1", "a2", "c1"}, drain(t, src))
}

func TestConcatMissingFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", []byte("a1\n"))

	src := NewConcat([]string{a, filepath.Join(dir, "gone.log")})
	defer src.Close()

	l, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "a1", l.Text)

	_, err = src.Next()
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "w3svc1"), 0o755))
	b := writeFile(t, dir, "u_ex131231.log", nil)
	a := writeFile(t, dir, "u_ex131230.log", nil)
	nested := writeFile(t, filepath.Join(dir, "w3svc1"), "u_ex140101.log", nil)
	writeFile(t, dir, "notes.txt", nil)

	paths, err := Expand([]string{filepath.Join(dir, "*.log"), b})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths)

	paths, err = Expand([]string{filepath.Join(dir, "**", "*.log")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b, nested}, paths)
}

func TestExpandNoMatch(t *testing.T) {
	_, err := Expand([]string{filepath.Join(t.TempDir(), "*.log")})
	assert.True(t, errors.Is(err, ErrNoInput))
}
