package storage

import "context"

// FileStore persists uploaded files and addresses them by public URL.
type FileStore interface {
	Store(ctx context.Context, data []byte, originalName string) (string, error)
	Delete(ctx context.Context, url string) error
	Exists(ctx context.Context, url string) (bool, error)
}
