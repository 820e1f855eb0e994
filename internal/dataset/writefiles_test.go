package dataset

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/util"
)

func TestWriteFilesCallback(t *testing.T) {
	w := archive.NewMemoryWriter()
	cb := NewWriteFilesCallback(w)

	start := &StartEvent{
		Subjects: []SubjectFiles{
			{
				Subject:   "s01",
				Sequences: map[string]string{"t1w": "/data/s01/t1w.dcm", "t2w": "/data/s01/t2w.dcm"},
				GTs:       map[string]string{"seg": "/data/s01/seg.dcm"},
			},
			{
				Subject:   "s02",
				Sequences: map[string]string{"t1w": "/data/s02/t1w.dcm", "t2w": "/data/s02/t2w.dcm"},
				GTs:       map[string]string{"seg": "/data/s02/seg.dcm"},
			},
		},
		SequenceNames: []string{"t1w", "t2w"},
		GTNames:       []string{"seg"},
		HasGT:         true,
	}
	if err := cb.OnStart(start); err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	root, _ := w.Array("meta/file_root")
	if s, _ := root.ScalarString(); s != "/data" {
		t.Errorf("file_root = %q, want /data", s)
	}

	for i, subject := range start.Subjects {
		for si, name := range start.SequenceNames {
			err := cb.OnImageFile(&ImageFileEvent{
				SubjectIndex:  i,
				SequenceIndex: si,
				Path:          subject.Sequences[name],
			})
			if err != nil {
				t.Fatalf("OnImageFile(%d, %d): %v", i, si, err)
			}
		}
		if err := cb.OnGTFile(&GTFileEvent{SubjectIndex: i, GTIndex: 0, Path: subject.GTs["seg"]}); err != nil {
			t.Fatalf("OnGTFile(%d): %v", i, err)
		}
	}

	files, _ := w.Array("meta/sequence_files")
	if !reflect.DeepEqual(files.Shape, []int{2, 2}) {
		t.Fatalf("sequence_files shape = %v", files.Shape)
	}
	wantFiles := []string{"s01/t1w.dcm", "s01/t2w.dcm", "s02/t1w.dcm", "s02/t2w.dcm"}
	if got := files.Data.([]string); !reflect.DeepEqual(got, wantFiles) {
		t.Errorf("sequence_files = %v, want %v", got, wantFiles)
	}

	gts, _ := w.Array("meta/gt_files")
	if !reflect.DeepEqual(gts.Shape, []int{2, 1}) {
		t.Fatalf("gt_files shape = %v", gts.Shape)
	}
	wantGTs := []string{"s01/seg.dcm", "s02/seg.dcm"}
	if got := gts.Data.([]string); !reflect.DeepEqual(got, wantGTs) {
		t.Errorf("gt_files = %v, want %v", got, wantGTs)
	}
}

func TestWriteFilesCallback_SharedDirectory(t *testing.T) {
	w := archive.NewMemoryWriter()
	cb := NewWriteFilesCallback(w)

	err := cb.OnStart(&StartEvent{
		Subjects: []SubjectFiles{{
			Subject:   "s01",
			Sequences: map[string]string{"a": "/a/b/c.txt", "b": "/a/b/d.txt"},
		}},
		SequenceNames: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	root, _ := w.Array("meta/file_root")
	if s, _ := root.ScalarString(); s != "/a/b" {
		t.Errorf("file_root = %q, want /a/b", s)
	}

	_ = cb.OnImageFile(&ImageFileEvent{SubjectIndex: 0, SequenceIndex: 0, Path: "/a/b/c.txt"})
	_ = cb.OnImageFile(&ImageFileEvent{SubjectIndex: 0, SequenceIndex: 1, Path: "/a/b/d.txt"})

	files, _ := w.Array("meta/sequence_files")
	want := []string{"c.txt", "d.txt"}
	if got := files.Data.([]string); !reflect.DeepEqual(got, want) {
		t.Errorf("sequence_files = %v, want %v", got, want)
	}
}

func TestWriteFilesCallback_NoGT(t *testing.T) {
	w := archive.NewMemoryWriter()
	cb := NewWriteFilesCallback(w)

	err := cb.OnStart(&StartEvent{
		Subjects: []SubjectFiles{{
			Subject:   "s01",
			Sequences: map[string]string{"t1w": "/data/s01/t1w.dcm"},
		}, {
			Subject:   "s02",
			Sequences: map[string]string{"t1w": "/data/s02/t1w.dcm"},
		}},
		SequenceNames: []string{"t1w"},
	})
	if err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	if _, ok := w.Array("meta/gt_files"); ok {
		t.Error("meta/gt_files should not be reserved without ground truth")
	}
}

func TestWriteFilesCallback_FileOutsideRoot(t *testing.T) {
	w := archive.NewMemoryWriter()
	cb := NewWriteFilesCallback(w)

	err := cb.OnStart(&StartEvent{
		Subjects: []SubjectFiles{{
			Subject:   "s01",
			Sequences: map[string]string{"a": "/data/s01/a.dcm", "b": "/data/s01/b.dcm"},
		}},
		SequenceNames: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("OnStart: %v", err)
	}

	// a path the root computation never saw
	err = cb.OnImageFile(&ImageFileEvent{SubjectIndex: 0, SequenceIndex: 0, Path: "/elsewhere/a.dcm"})
	if !errors.Is(err, util.ErrOutsideRoot) {
		t.Errorf("outside-root error = %v, want ErrOutsideRoot", err)
	}
}
