package dataset

// Archive keys. Per-subject voxel arrays live under the data/ prefix with
// a zero-padded subject index appended, everything else is a metadata
// array written once per build.
const (
	KeySequences = "data/sequences"
	KeyGTs       = "data/gts"
	KeyPreviews  = "data/previews"

	KeySubjects       = "meta/subjects"
	KeyShapes         = "meta/shapes"
	KeyDirections     = "meta/directions"
	KeySpacing        = "meta/spacing"
	KeySequenceNames  = "meta/sequence_names"
	KeyGTNames        = "meta/gt_names"
	KeySequenceFiles  = "meta/sequence_files"
	KeyGTFiles        = "meta/gt_files"
	KeyFileRoot       = "meta/file_root"
	KeyIntensityStats = "meta/intensity_stats"
	KeyBuildID        = "meta/build_id"
	KeyCreated        = "meta/created"
	KeyTool           = "meta/tool"
)
