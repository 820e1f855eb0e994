package dataset

import (
	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/volume"
)

// SubjectFiles describes one subject: its identifier and the files of its
// named sequences and ground truths. The maps are keyed by the names
// listed in the build's SequenceNames and GTNames.
type SubjectFiles struct {
	Subject   string
	Sequences map[string]string
	GTs       map[string]string
}

// Paths returns the subject's files in deterministic order: sequence
// files in sequence-name order, then ground-truth files in gt-name order.
func (s SubjectFiles) Paths(sequenceNames, gtNames []string) []string {
	out := make([]string, 0, len(sequenceNames)+len(gtNames))
	for _, name := range sequenceNames {
		out = append(out, s.Sequences[name])
	}
	for _, name := range gtNames {
		out = append(out, s.GTs[name])
	}
	return out
}

// StartEvent opens a build. It carries everything callbacks need for
// up-front reservations: the full subject list and the ordered name lists.
type StartEvent struct {
	Subjects      []SubjectFiles
	SequenceNames []string
	GTNames       []string
	HasGT         bool
}

// SubjectStartEvent fires when the driver begins a subject, before any of
// its file events.
type SubjectStartEvent struct {
	SubjectIndex int
	SubjectCount int
	Subject      string
}

// ImageFileEvent fires once per sequence file, after the file was loaded.
type ImageFileEvent struct {
	SubjectIndex  int
	SubjectCount  int
	Subject       string
	SequenceIndex int
	SequenceName  string
	Path          string
	Image         volume.Image
}

// GTFileEvent fires once per ground-truth file.
type GTFileEvent struct {
	SubjectIndex int
	SubjectCount int
	Subject      string
	GTIndex      int
	GTName       string
	Path         string
	Image        volume.Image
}

// SubjectEndEvent closes a subject. Images holds the subject's sequences
// stacked into one array of shape (sequences, slices, rows, columns);
// Labels holds the ground truths stacked the same way, nil when the build
// has none.
type SubjectEndEvent struct {
	SubjectIndex int
	SubjectCount int
	Subject      string
	Images       *archive.Array
	Labels       *archive.Array
	HasGT        bool
}

// EndEvent closes the build after the last subject.
type EndEvent struct {
	SubjectCount int
}
