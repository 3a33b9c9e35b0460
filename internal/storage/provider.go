// Package storage defines the workshop file-system abstraction. The workshop
// holds composited animation artifacts and, in watch mode, diagram sources.
package storage

import "time"

// FileInfo is a lightweight representation returned by list operations.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for workshop file operations. All paths are
// relative to the workshop root.
type Provider interface {
	// List returns metadata for every file under dir with the given extension.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
