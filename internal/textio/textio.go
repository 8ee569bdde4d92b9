// Package textio prepares raw input files for delimited-text parsing.
//
// The readers here wrap an io.Reader without buffering the whole file:
//
//   - Decode: turns a named legacy charset into UTF-8 and drops a leading
//     byte order mark
//   - CountingReader: tracks bytes consumed for progress reporting
//
// Open combines both in the order the importer needs them.
package textio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for charset names that cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// Lookup resolves a charset name. The empty name and any UTF-8 alias map to
// UTF-8 with BOM detection; other names follow the WHATWG label table, so
// "latin1" and "cp1252" both resolve to windows-1252.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode wraps r so that it yields UTF-8 text. A UTF-8 or UTF-16 byte order
// mark overrides the named encoding and is removed from the stream.
func Decode(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// CountingReader counts the bytes read through it. BytesRead is safe to call
// from another goroutine while reads are in progress.
type CountingReader struct {
	r io.Reader
	n atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes consumed from the underlying reader.
func (c *CountingReader) BytesRead() int64 { return c.n.Load() }

// File is an opened input ready for parsing.
type File struct {
	io.Reader
	// Counter sees raw bytes, before decoding.
	Counter *CountingReader
	// Size is the file size in bytes.
	Size   int64
	closer io.Closer
}

// Close closes the underlying file.
func (f *File) Close() error { return f.closer.Close() }

// Open opens path on fs, counting raw bytes and decoding with the named
// charset.
func Open(fs afero.Fs, path, charset string) (*File, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	counter := NewCountingReader(f)
	r, err := Decode(counter, charset)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &File{Reader: r, Counter: counter, Size: info.Size(), closer: f}, nil
}
