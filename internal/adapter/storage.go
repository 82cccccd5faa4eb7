package adapter

import (
	"context"
	"io"
	"time"
)

// FileInfo is the metadata of a remote stored file. DurationMillis is zero
// for files without video metadata and for broken or unprocessed videos.
type FileInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DurationMillis int64     `json:"duration_millis"`
	ThumbnailURL   string    `json:"thumbnail_url"`
	CreatedTime    time.Time `json:"created_time"`
	ModifiedTime   time.Time `json:"modified_time"`
}

// Permission is one sharing grant on a remote file.
type Permission struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Role string `json:"role"`
}

// StorageAdapter is the capability surface of the remote file storage where
// meeting artifacts (recordings, chat transcripts) live.
type StorageAdapter interface {
	// GetFile fetches file metadata including video duration and
	// thumbnail link.
	GetFile(ctx context.Context, fileID string) (*FileInfo, error)

	// StreamFile opens the raw file content. The caller closes the reader.
	StreamFile(ctx context.Context, fileID string) (io.ReadCloser, error)

	// Download fetches the content behind an absolute URL (thumbnails),
	// using the adapter's authenticated client.
	Download(ctx context.Context, url string) ([]byte, error)

	// ListPermissions returns the current sharing grants of a file.
	ListPermissions(ctx context.Context, fileID string) ([]Permission, error)

	// CreatePublicPermission grants anyone-can-read on the file without
	// notifying anybody.
	CreatePublicPermission(ctx context.Context, fileID string) error

	// DeletePermission revokes one sharing grant.
	DeletePermission(ctx context.Context, fileID, permissionID string) error
}
