package blob

import (
	"rostercore/internal/infra/blob/fs"
)

// NewFilesystem constructs a filesystem-backed blob.Store rooted at the
// provided path. The return type is the interface so call sites never touch
// the driver package.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
