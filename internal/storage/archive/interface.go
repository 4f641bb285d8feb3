// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Storage defines the interface for run snapshot backends
type Storage interface {
	// Write stores data at the given path, replacing what was there
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Backends
const (
	BackendNone    = ""
	BackendLocalFS = "localfs"
	BackendS3      = "s3"
)

// Config selects and configures a backend
type Config struct {
	Backend string
	Path    string
	S3      S3Config
}

// New creates the configured backend. BackendNone returns nil storage.
func New(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendLocalFS:
		fs, err := NewLocalFS(cfg.Path)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		return fs, nil
	case BackendS3:
		s, err := NewS3(cfg.S3)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		return s, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive backend %q", cfg.Backend))
	}
}
