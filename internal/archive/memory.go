package archive

import (
	"fmt"
	"sort"
)

// MemoryWriter is a Writer that keeps all arrays in memory. It backs unit
// tests and dry runs where no archive file should be produced.
type MemoryWriter struct {
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	arr      *Array
	reserved bool
}

// NewMemoryWriter returns an empty in-memory writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{entries: make(map[string]*memoryEntry)}
}

// Reserve implements Writer.
func (w *MemoryWriter) Reserve(key string, shape []int, dtype DType) error {
	if _, ok := w.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	arr, err := NewArray(dtype, shape)
	if err != nil {
		return fmt.Errorf("reserve %q: %w", key, err)
	}
	w.entries[key] = &memoryEntry{arr: arr, reserved: true}
	return nil
}

// Fill implements Writer.
func (w *MemoryWriter) Fill(key string, value any, expr IndexExpression) error {
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

// Write implements Writer.
func (w *MemoryWriter) Write(key string, value any) error {
	if _, ok := w.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrKeyExists, key)
	}
	arr, err := asArray(value)
	if err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	w.entries[key] = &memoryEntry{arr: arr}
	return nil
}

// Array returns the array stored under key.
func (w *MemoryWriter) Array(key string) (*Array, bool) {
	e, ok := w.entries[key]
	if !ok {
		return nil, false
	}
	return e.arr, true
}

// Keys returns all keys in sorted order.
func (w *MemoryWriter) Keys() []string {
	keys := make([]string, 0, len(w.entries))
	for k := range w.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
