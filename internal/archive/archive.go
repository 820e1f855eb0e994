// Package archive implements the key-addressed array store that dataset
// builds write into. A Writer exposes two storage modes: Reserve declares
// a fixed-shape array up front that callbacks fill region by region as
// subjects are processed, and Write stores a complete value in a single
// call. MemoryWriter keeps everything in memory for tests and dry runs,
// FileWriter streams to a single archive file on disk that Reader can
// open again.
package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyExists is returned when a key is reserved or written twice.
	ErrKeyExists = errors.New("key already exists")
	// ErrNotReserved is returned by Fill for keys without a reservation.
	ErrNotReserved = errors.New("key not reserved")
	// ErrOutOfBounds is returned when an index expression does not fit
	// the target array.
	ErrOutOfBounds = errors.New("index out of bounds")
	// ErrTypeMismatch is returned when a value does not match the element
	// type or extent of its target.
	ErrTypeMismatch = errors.New("value type mismatch")
	// ErrClosed is returned for operations on a closed writer or reader.
	ErrClosed = errors.New("archive closed")
)

// Writer is the storage target of dataset callbacks. Implementations are
// not safe for concurrent use; a dataset build drives its writer from a
// single goroutine.
type Writer interface {
	// Reserve allocates an array of the given shape and element type
	// under key, to be populated by later Fill calls. Each key can be
	// reserved at most once.
	Reserve(key string, shape []int, dtype DType) error
	// Fill copies value into the region of the reserved array addressed
	// by expr. The value must be a scalar when the region holds a single
	// element, or a flat slice of exactly the region's length.
	Fill(key string, value any, expr IndexExpression) error
	// Write stores a complete value under key. Accepted forms are a
	// prepared *Array, a scalar string, or a flat 1-D slice of a
	// supported element type.
	Write(key string, value any) error
}

// DType identifies the element type of an array.
type DType uint8

const (
	Uint8 DType = iota + 1
	Uint16
	Int32
	Int64
	Float32
	Float64
	Str
)

// String returns the lowercase name of the element type.
func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Str:
		return "str"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// elemSize returns the encoded size of one element in bytes. Str elements
// are length-prefixed and have no fixed size, reported as 0.
func (d DType) elemSize() int {
	switch d {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

// Array is a dense row-major array with a fixed element type. Data holds
// the flat backing slice; its concrete type is determined by DType:
// []uint8, []uint16, []int32, []int64, []float32, []float64 or []string.
// A nil or empty shape denotes a scalar holding exactly one element.
type Array struct {
	DType DType
	Shape []int
	Data  any
}

// NewArray allocates a zero-valued array of the given type and shape.
func NewArray(dtype DType, shape []int) (*Array, error) {
	n := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		n *= dim
	}
	a := &Array{DType: dtype, Shape: append([]int(nil), shape...)}
	switch dtype {
	case Uint8:
		a.Data = make([]uint8, n)
	case Uint16:
		a.Data = make([]uint16, n)
	case Int32:
		a.Data = make([]int32, n)
	case Int64:
		a.Data = make([]int64, n)
	case Float32:
		a.Data = make([]float32, n)
	case Float64:
		a.Data = make([]float64, n)
	case Str:
		a.Data = make([]string, n)
	default:
		return nil, fmt.Errorf("unknown dtype %v", dtype)
	}
	return a, nil
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	n := 1
	for _, dim := range a.Shape {
		n *= dim
	}
	return n
}

// ScalarString returns the value of a scalar string array.
func (a *Array) ScalarString() (string, bool) {
	s, ok := a.Data.([]string)
	if !ok || a.Len() != 1 {
		return "", false
	}
	return s[0], true
}

// check verifies that Data matches DType and Shape.
func (a *Array) check() error {
	want := a.Len()
	got := -1
	switch d := a.Data.(type) {
	case []uint8:
		if a.DType == Uint8 {
			got = len(d)
		}
	case []uint16:
		if a.DType == Uint16 {
			got = len(d)
		}
	case []int32:
		if a.DType == Int32 {
			got = len(d)
		}
	case []int64:
		if a.DType == Int64 {
			got = len(d)
		}
	case []float32:
		if a.DType == Float32 {
			got = len(d)
		}
	case []float64:
		if a.DType == Float64 {
			got = len(d)
		}
	case []string:
		if a.DType == Str {
			got = len(d)
		}
	}
	if got < 0 {
		return fmt.Errorf("%w: %v array backed by %T", ErrTypeMismatch, a.DType, a.Data)
	}
	if got != want {
		return fmt.Errorf("%w: backing has %d elements, shape %v wants %d", ErrTypeMismatch, got, a.Shape, want)
	}
	return nil
}

// fillRegion copies value into the flat element range [offset, offset+length).
func (a *Array) fillRegion(offset, length int, value any) error {
	switch dst := a.Data.(type) {
	case []uint8:
		return fillTyped(dst, offset, length, value)
	case []uint16:
		return fillTyped(dst, offset, length, value)
	case []int32:
		return fillTyped(dst, offset, length, value)
	case []int64:
		return fillTyped(dst, offset, length, value)
	case []float32:
		return fillTyped(dst, offset, length, value)
	case []float64:
		return fillTyped(dst, offset, length, value)
	case []string:
		return fillTyped(dst, offset, length, value)
	default:
		return fmt.Errorf("%w: array backed by %T", ErrTypeMismatch, a.Data)
	}
}

func fillTyped[T any](dst []T, offset, length int, value any) error {
	if v, ok := value.(T); ok {
		if length != 1 {
			return fmt.Errorf("%w: scalar fill into region of %d elements", ErrTypeMismatch, length)
		}
		dst[offset] = v
		return nil
	}
	if v, ok := value.([]T); ok {
		if len(v) != length {
			return fmt.Errorf("%w: value has %d elements, region wants %d", ErrTypeMismatch, len(v), length)
		}
		copy(dst[offset:offset+length], v)
		return nil
	}
	var zero T
	return fmt.Errorf("%w: cannot fill %T region with %T", ErrTypeMismatch, zero, value)
}

// asArray normalizes the value forms accepted by Write.
func asArray(value any) (*Array, error) {
	switch v := value.(type) {
	case *Array:
		if v == nil {
			return nil, fmt.Errorf("%w: nil array", ErrTypeMismatch)
		}
		if err := v.check(); err != nil {
			return nil, err
		}
		return v, nil
	case string:
		return &Array{DType: Str, Data: []string{v}}, nil
	case []string:
		return sliceArray(Str, v)
	case []uint8:
		return sliceArray(Uint8, v)
	case []uint16:
		return sliceArray(Uint16, v)
	case []int32:
		return sliceArray(Int32, v)
	case []int64:
		return sliceArray(Int64, v)
	case []float32:
		return sliceArray(Float32, v)
	case []float64:
		return sliceArray(Float64, v)
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrTypeMismatch, value)
	}
}

func sliceArray[T any](dtype DType, v []T) (*Array, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty %T value", ErrTypeMismatch, v)
	}
	return &Array{DType: dtype, Shape: []int{len(v)}, Data: v}, nil
}
