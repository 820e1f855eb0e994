package archive

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader opens archives produced by FileWriter and decodes arrays on
// demand.
type Reader struct {
	f       *os.File
	entries map[string]indexEntry
	keys    []string
	closed  bool
}

type indexEntry struct {
	dtype  DType
	shape  []int
	offset uint64
	size   uint64
}

// OpenReader opens the archive at path and loads its key index.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	r := &Reader{f: f, entries: make(map[string]indexEntry)}
	if err := r.readIndex(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readIndex() error {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r.f, header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(header[:4], archiveMagic[:]) {
		return fmt.Errorf("not a dataset archive: bad magic %q", header[:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:6]); v != archiveVersion {
		return fmt.Errorf("unsupported archive version %d", v)
	}
	indexOff := binary.LittleEndian.Uint64(header[8:16])
	count := binary.LittleEndian.Uint32(header[16:20])
	if indexOff == 0 {
		return fmt.Errorf("archive has no index, writer was not closed")
	}

	if _, err := r.f.Seek(int64(indexOff), io.SeekStart); err != nil {
		return fmt.Errorf("seek index: %w", err)
	}
	br := bufio.NewReader(r.f)
	for i := uint32(0); i < count; i++ {
		key, e, err := readIndexEntry(br)
		if err != nil {
			return fmt.Errorf("read index entry %d: %w", i, err)
		}
		if _, ok := r.entries[key]; ok {
			return fmt.Errorf("duplicate key %q in index", key)
		}
		r.entries[key] = e
		r.keys = append(r.keys, key)
	}
	return nil
}

func readIndexEntry(br *bufio.Reader) (string, indexEntry, error) {
	var keyLen uint16
	if err := binary.Read(br, binary.LittleEndian, &keyLen); err != nil {
		return "", indexEntry{}, err
	}
	keyBytes := make([]byte, keyLen)
	if _, err := io.ReadFull(br, keyBytes); err != nil {
		return "", indexEntry{}, err
	}
	var dtype, rank uint8
	if err := binary.Read(br, binary.LittleEndian, &dtype); err != nil {
		return "", indexEntry{}, err
	}
	if err := binary.Read(br, binary.LittleEndian, &rank); err != nil {
		return "", indexEntry{}, err
	}
	e := indexEntry{dtype: DType(dtype)}
	for k := 0; k < int(rank); k++ {
		var dim uint32
		if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
			return "", indexEntry{}, err
		}
		e.shape = append(e.shape, int(dim))
	}
	if err := binary.Read(br, binary.LittleEndian, &e.offset); err != nil {
		return "", indexEntry{}, err
	}
	if err := binary.Read(br, binary.LittleEndian, &e.size); err != nil {
		return "", indexEntry{}, err
	}
	return string(keyBytes), e, nil
}

// Keys returns all keys in the order they were written.
func (r *Reader) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Shape returns the shape and element type stored under key.
func (r *Reader) Shape(key string) ([]int, DType, bool) {
	e, ok := r.entries[key]
	if !ok {
		return nil, 0, false
	}
	return append([]int(nil), e.shape...), e.dtype, true
}

// Array reads and decodes the array stored under key.
func (r *Reader) Array(key string) (*Array, error) {
	if r.closed {
		return nil, ErrClosed
	}
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("no such key %q", key)
	}
	if _, err := r.f.Seek(int64(e.offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %q: %w", key, err)
	}
	arr, err := decodeBlock(io.LimitReader(r.f, int64(e.size)), e.dtype, e.shape)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return arr, nil
}

// ScalarString reads the scalar string stored under key.
func (r *Reader) ScalarString(key string) (string, error) {
	arr, err := r.Array(key)
	if err != nil {
		return "", err
	}
	s, ok := arr.ScalarString()
	if !ok {
		return "", fmt.Errorf("%q is not a scalar string", key)
	}
	return s, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.f.Close()
}

// decodeBlock reads the element data of one array.
func decodeBlock(src io.Reader, dtype DType, shape []int) (*Array, error) {
	arr, err := NewArray(dtype, shape)
	if err != nil {
		return nil, err
	}
	if dtype != Str {
		if err := binary.Read(src, binary.LittleEndian, arr.Data); err != nil {
			return nil, err
		}
		return arr, nil
	}
	br := bufio.NewReader(src)
	dst := arr.Data.([]string)
	for i := range dst {
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, err
		}
		dst[i] = string(buf)
	}
	return arr, nil
}
