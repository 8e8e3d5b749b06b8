// Package blob abstracts file storage for uploaded pictures and documents
// behind a path+URL contract.
package blob

// Store persists opaque blobs under generated paths.
type Store interface {
	// Save writes data under dir with a generated file name carrying ext and
	// returns the storage path.
	Save(data []byte, dir, ext string) (string, error)
	Exists(path string) bool
	// Delete removes a blob. Deleting a missing path is a no-op.
	Delete(path string) error
	// URL returns the public URL for a stored path.
	URL(path string) string
}
