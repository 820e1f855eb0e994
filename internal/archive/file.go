package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Archive file layout. All integers are little-endian.
//
//	header (20 bytes):
//	  [4]byte  magic "DPAK"
//	  uint16   format version (currently 1)
//	  uint16   reserved, zero
//	  uint64   index offset, patched on Close
//	  uint32   entry count, patched on Close
//	data blocks:
//	  numeric arrays as raw element data, string elements prefixed with
//	  a uint32 byte length
//	index (at index offset), one record per key:
//	  uint16   key length, followed by the key bytes
//	  uint8    dtype
//	  uint8    rank
//	  uint32   per-axis extent, rank times
//	  uint64   block offset
//	  uint64   block size in bytes
var archiveMagic = [4]byte{'D', 'P', 'A', 'K'}

const (
	archiveVersion    = 1
	headerSize        = 20
	indexOffsetHeader = 8 // byte position of the index offset field
)

// FileWriter writes a dataset archive to a single file. Values passed to
// Write are streamed to disk immediately; reserved arrays are buffered in
// memory until Close, which flushes them and appends the key index.
type FileWriter struct {
	f       *os.File
	path    string
	off     uint64
	order   []string
	entries map[string]*fileEntry
	closed  bool
}

type fileEntry struct {
	dtype    DType
	shape    []int
	arr      *Array // buffered data of reserved entries, nil once flushed
	reserved bool
	offset   uint64
	size     uint64
}

// NewFileWriter creates the archive file at path, truncating any previous
// content. The archive is incomplete until Close succeeds.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	w := &FileWriter{
		f:       f,
		path:    path,
		entries: make(map[string]*fileEntry),
	}
	if err := w.writeHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) writeHeader() error {
	if _, err := w.f.Write(archiveMagic[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, v := range []any{uint16(archiveVersion), uint16(0), uint64(0), uint32(0)} {
		if err := binary.Write(w.f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	w.off = headerSize
	return nil
}

// Path returns the location of the archive file.
func (w *FileWriter) Path() string {
	return w.path
}

// Keys returns the written and reserved keys in operation order.
func (w *FileWriter) Keys() []string {
	keys := make([]string, len(w.order))
	copy(keys, w.order)
	return keys
}

// Reserve implements Writer.
func (w *FileWriter) Reserve(key string, shape []int, dtype DType) error {
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	arr, err := NewArray(dtype, shape)
	if err != nil {
		return fmt.Errorf("reserve %q: %w", key, err)
	}
	w.entries[key] = &fileEntry{dtype: dtype, shape: arr.Shape, arr: arr, reserved: true}
	w.order = append(w.order, key)
	return nil
}

// Fill implements Writer.
func (w *FileWriter) Fill(key string, value any, expr IndexExpression) error {
	if w.closed {
		return ErrClosed
	}
	e, ok := w.entries[key]
	if !ok || !e.reserved {
		return fmt.Errorf("%w: %q", ErrNotReserved, key)
	}
	offset, length, err := expr.Resolve(e.arr.Shape)
	if err != nil {
		return fmt.Errorf("fill %q: %w", key, err)
	}
	if err := e.arr.fillRegion(offset, length, value); err != nil {
		return fmt.Errorf("fill %q: %w", key, err)
	}
	return nil
}

// Write implements Writer. The encoded value goes to disk before Write
// returns, only the index entry is deferred to Close.
func (w *FileWriter) Write(key string, value any) error {
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	arr, err := asArray(value)
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	size, err := encodeBlock(w.f, arr)
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	w.entries[key] = &fileEntry{
		dtype:  arr.DType,
		shape:  arr.Shape,
		offset: w.off,
		size:   size,
	}
	w.off += size
	w.order = append(w.order, key)
	return nil
}

// Close flushes all reserved arrays, writes the key index and patches the
// header so readers can locate it. The writer is unusable afterwards.
func (w *FileWriter) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	for _, key := range w.order {
		e := w.entries[key]
		if !e.reserved {
			continue
		}
		size, err := encodeBlock(w.f, e.arr)
		if err != nil {
			_ = w.f.Close()
			return fmt.Errorf("flush %q: %w", key, err)
		}
		e.offset = w.off
		e.size = size
		e.arr = nil
		w.off += size
	}

	indexOff := w.off
	for _, key := range w.order {
		if err := w.writeIndexEntry(key, w.entries[key]); err != nil {
			_ = w.f.Close()
			return err
		}
	}

	if err := patchHeader(w.f, indexOff, uint32(len(w.order))); err != nil {
		_ = w.f.Close()
		return err
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func (w *FileWriter) writeIndexEntry(key string, e *fileEntry) error {
	if len(key) > 0xffff {
		return fmt.Errorf("write index for %q: key too long", key)
	}
	fields := []any{
		uint16(len(key)),
		[]byte(key),
		uint8(e.dtype),
		uint8(len(e.shape)),
	}
	for _, dim := range e.shape {
		fields = append(fields, uint32(dim))
	}
	fields = append(fields, e.offset, e.size)
	for _, v := range fields {
		if err := binary.Write(w.f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write index for %q: %w", key, err)
		}
	}
	return nil
}

// patchHeader updates the index offset and entry count fields written as
// placeholders by writeHeader.
func patchHeader(f io.WriteSeeker, indexOff uint64, count uint32) error {
	if _, err := f.Seek(indexOffsetHeader, io.SeekStart); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, indexOff); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, count); err != nil {
		return fmt.Errorf("patch header: %w", err)
	}
	return nil
}

// encodeBlock writes the element data of arr and returns the block size
// in bytes.
func encodeBlock(w io.Writer, arr *Array) (uint64, error) {
	if arr.DType != Str {
		if err := binary.Write(w, binary.LittleEndian, arr.Data); err != nil {
			return 0, err
		}
		return uint64(arr.Len() * arr.DType.elemSize()), nil
	}
	var size uint64
	for _, s := range arr.Data.([]string) {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
			return 0, err
		}
		if _, err := io.WriteString(w, s); err != nil {
			return 0, err
		}
		size += 4 + uint64(len(s))
	}
	return size, nil
}
