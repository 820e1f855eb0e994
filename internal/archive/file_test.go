package archive

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dpk")

	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	// streamed values
	if err := w.Write("meta/file_root", "/data"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write("meta/sequence_names", []string{"t1w", "t2w"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	voxels, err := NewArray(Uint16, []int{1, 2, 2, 2})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	for i, v := range []uint16{10, 20, 30, 40, 50, 60, 70, 80} {
		voxels.Data.([]uint16)[i] = v
	}
	if err := w.Write("data/sequences/0", voxels); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// reserved values, filled out of order
	if err := w.Reserve("meta/subjects", []int{2}, Str); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := w.Reserve("meta/spacing", []int{2, 3}, Float64); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := w.Fill("meta/subjects", "s02", At(1)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := w.Fill("meta/subjects", "s01", At(0)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := w.Fill("meta/spacing", []float64{1, 1, 3.5}, At(0)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if err := w.Fill("meta/spacing", []float64{0.5, 0.5, 2}, At(1)); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = r.Close() }()

	wantKeys := []string{"meta/file_root", "meta/sequence_names", "data/sequences/0", "meta/subjects", "meta/spacing"}
	if got := r.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("Keys() = %v, want %v", got, wantKeys)
	}

	if s, err := r.ScalarString("meta/file_root"); err != nil || s != "/data" {
		t.Errorf("file_root = %q, %v", s, err)
	}

	names, err := r.Array("meta/sequence_names")
	if err != nil {
		t.Fatalf("Array(names): %v", err)
	}
	if got := names.Data.([]string); !reflect.DeepEqual(got, []string{"t1w", "t2w"}) {
		t.Errorf("names = %v", got)
	}

	data, err := r.Array("data/sequences/0")
	if err != nil {
		t.Fatalf("Array(data): %v", err)
	}
	if !reflect.DeepEqual(data.Shape, []int{1, 2, 2, 2}) {
		t.Errorf("data shape = %v", data.Shape)
	}
	if got := data.Data.([]uint16); !reflect.DeepEqual(got, voxels.Data.([]uint16)) {
		t.Errorf("data = %v", got)
	}

	spacing, err := r.Array("meta/spacing")
	if err != nil {
		t.Fatalf("Array(spacing): %v", err)
	}
	wantSpacing := []float64{1, 1, 3.5, 0.5, 0.5, 2}
	if got := spacing.Data.([]float64); !reflect.DeepEqual(got, wantSpacing) {
		t.Errorf("spacing = %v, want %v", got, wantSpacing)
	}

	subjects, err := r.Array("meta/subjects")
	if err != nil {
		t.Fatalf("Array(subjects): %v", err)
	}
	if got := subjects.Data.([]string); !reflect.DeepEqual(got, []string{"s01", "s02"}) {
		t.Errorf("subjects = %v", got)
	}

	shape, dtype, ok := r.Shape("meta/spacing")
	if !ok || dtype != Float64 || !reflect.DeepEqual(shape, []int{2, 3}) {
		t.Errorf("Shape(spacing) = %v, %v, %v", shape, dtype, ok)
	}
}

func TestFileWriter_UseAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dpk")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := w.Write("k", "v"); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after close = %v, want ErrClosed", err)
	}
	if err := w.Reserve("k", []int{1}, Str); !errors.Is(err, ErrClosed) {
		t.Errorf("Reserve after close = %v, want ErrClosed", err)
	}
	if err := w.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
}

func TestOpenReader_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.dpk")
	if err := os.WriteFile(path, []byte("not an archive at all"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := OpenReader(path); err == nil {
		t.Error("OpenReader on junk should return error")
	}
}

func TestOpenReader_UnclosedArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dpk")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := w.Write("k", "v"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// no Close: the header still holds the placeholder index offset

	if _, err := OpenReader(path); err == nil {
		t.Error("OpenReader on unclosed archive should return error")
	}
}
