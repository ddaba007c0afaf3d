package storage

import (
	"context"
	"io"
)

// ImageStorage defines the contract for storing uploaded images. Files are
// grouped under a namespace (e.g. "profile_pics/user@email.com") so that an
// account deletion can drop everything the user ever uploaded in one call.
type ImageStorage interface {
	// SaveImage stores the image under the namespace with an opaque random
	// file name that preserves the original extension. Returns the stored
	// path (or URL for remote backends).
	SaveImage(ctx context.Context, r io.Reader, namespace, fileName string) (string, error)
	// DeleteImage removes a single stored image. Missing files are not an error.
	DeleteImage(ctx context.Context, path string) error
	// DeleteNamespace removes every image under the namespace, best-effort.
	DeleteNamespace(ctx context.Context, namespace string) error
}
