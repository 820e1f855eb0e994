package dataset

import (
	"reflect"
	"testing"

	"github.com/mrsinham/dicompack/internal/archive"
)

func TestWritePreviewCallback(t *testing.T) {
	w := archive.NewMemoryWriter()
	cb := NewWritePreviewCallback(w, 64)

	// 2 sequences, 3 slices of 8x8; the middle slice of sequence 0 is a
	// flat value so the stretched thumbnail stays flat too
	shape := []int{2, 3, 8, 8}
	arr, err := archive.NewArray(archive.Uint16, shape)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	voxels := arr.Data.([]uint16)
	plane := 8 * 8
	for i := 0; i < plane; i++ {
		voxels[plane+i] = 500 // sequence 0, slice 1
	}

	err = cb.OnSubjectEnd(&SubjectEndEvent{
		SubjectIndex: 0,
		SubjectCount: 2,
		Subject:      "s01",
		Images:       arr,
	})
	if err != nil {
		t.Fatalf("OnSubjectEnd: %v", err)
	}

	preview, ok := w.Array("data/previews/0")
	if !ok {
		t.Fatal("data/previews/0 not written")
	}
	// source is smaller than the edge bound, so the size is kept
	if !reflect.DeepEqual(preview.Shape, []int{8, 8}) {
		t.Errorf("preview shape = %v, want [8 8]", preview.Shape)
	}
	pix := preview.Data.([]uint8)
	for i, v := range pix {
		if v != pix[0] {
			t.Errorf("flat slice should yield a flat preview, pix[%d] = %d vs %d", i, v, pix[0])
			break
		}
	}
}

func TestWritePreviewCallback_Downscales(t *testing.T) {
	w := archive.NewMemoryWriter()
	cb := NewWritePreviewCallback(w, 16)

	arr, err := archive.NewArray(archive.Uint16, []int{1, 1, 32, 64})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	err = cb.OnSubjectEnd(&SubjectEndEvent{SubjectIndex: 0, SubjectCount: 1, Images: arr})
	if err != nil {
		t.Fatalf("OnSubjectEnd: %v", err)
	}

	preview, _ := w.Array("data/previews/0")
	if !reflect.DeepEqual(preview.Shape, []int{8, 16}) {
		t.Errorf("preview shape = %v, want [8 16]", preview.Shape)
	}
}

func TestThumbSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{64, 64, 128, 64, 64},
		{256, 256, 128, 128, 128},
		{256, 64, 128, 128, 32},
		{64, 256, 128, 32, 128},
		{1000, 2, 128, 128, 1},
	}
	for _, tc := range tests {
		gotW, gotH := thumbSize(tc.w, tc.h, tc.max)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Errorf("thumbSize(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tc.w, tc.h, tc.max, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}
