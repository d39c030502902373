package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// SourceID derives a name-based (v5) UUID from the cleaned path, so re-embedding the same file
// yields the same passage ids.
func SourceID(absolutePath string) string {
	u := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(filepath.Clean(absolutePath))))
	return "file:" + u.String()
}

// PassageID identifies passage index of a source.
func PassageID(sourceID string, index int) string {
	return fmt.Sprintf("%s#%d", sourceID, index)
}
