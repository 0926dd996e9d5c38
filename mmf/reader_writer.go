// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mmf

import (
	"io"

	"github.com/pkg/errors"
)

// Mapping is a piece of mapped memory, like *MemoryRegion or *shmregion.Region.
type Mapping interface {
	Data() []byte
}

// cursor is a position inside a mapping, shared by readers and writers.
type cursor struct {
	m   Mapping
	pos int64
}

func (c *cursor) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = c.pos + offset
	case io.SeekEnd:
		abs = int64(len(c.m.Data())) + offset
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.Errorf("negative position %d", abs)
	}
	c.pos = abs
	return abs, nil
}

// RegionReader reads from a mapping.
// It holds a reference to the mapping, so the latter can't be gc'ed while the reader is in use.
type RegionReader struct {
	cursor
}

// NewRegionReader returns a reader positioned at the beginning of m.
func NewRegionReader(m Mapping) *RegionReader {
	return &RegionReader{cursor{m: m}}
}

// ReadAt implements io.ReaderAt.
func (r *RegionReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	data := r.m.Data()
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(p, data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Read implements io.Reader.
func (r *RegionReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// RegionWriter writes into a mapping. Writes never grow the mapping.
// It holds a reference to the mapping, so the latter can't be gc'ed while the writer is in use.
type RegionWriter struct {
	cursor
}

// NewRegionWriter returns a writer positioned at the beginning of m.
func NewRegionWriter(m Mapping) *RegionWriter {
	return &RegionWriter{cursor{m: m}}
}

// WriteAt implements io.WriterAt. If p does not fit, the part which fits is written,
// and io.ErrShortWrite is returned.
func (w *RegionWriter) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errors.Errorf("negative offset %d", off)
	}
	data := w.m.Data()
	if off < int64(len(data)) {
		n = copy(data[off:], p)
	}
	if n < len(p) {
		err = io.ErrShortWrite
	}
	return
}

// Write implements io.Writer.
func (w *RegionWriter) Write(p []byte) (int, error) {
	n, err := w.WriteAt(p, w.pos)
	w.pos += int64(n)
	return n, err
}
