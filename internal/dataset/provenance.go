package dataset

import (
	"time"

	"github.com/google/uuid"

	"github.com/mrsinham/dicompack/internal/archive"
)

// WriteProvenanceCallback stamps the archive with how it was produced:
// a build identifier at meta/build_id, the creation time at meta/created
// and the producing tool at meta/tool.
type WriteProvenanceCallback struct {
	NopCallback
	writer  archive.Writer
	buildID string
	tool    string
	now     func() time.Time
}

// NewWriteProvenanceCallback returns a callback writing into w. An empty
// buildID is replaced with a random UUID.
func NewWriteProvenanceCallback(w archive.Writer, buildID, tool string) *WriteProvenanceCallback {
	if buildID == "" {
		buildID = uuid.NewString()
	}
	return &WriteProvenanceCallback{
		writer:  w,
		buildID: buildID,
		tool:    tool,
		now:     time.Now,
	}
}

// BuildID returns the identifier the archive will be stamped with.
func (c *WriteProvenanceCallback) BuildID() string {
	return c.buildID
}

// OnStart implements Callback.
func (c *WriteProvenanceCallback) OnStart(*StartEvent) error {
	if err := c.writer.Write(KeyBuildID, c.buildID); err != nil {
		return err
	}
	if err := c.writer.Write(KeyCreated, c.now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return c.writer.Write(KeyTool, c.tool)
}
