package googlecal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/univel/meetsync/internal/adapter"
)

// Drive implements adapter.StorageAdapter on Google Drive.
type Drive struct {
	service *drive.Service
	client  *http.Client
}

// GetFile fetches the metadata needed for recording rows. Only the fields the
// reconciler consumes are requested.
func (d *Drive) GetFile(ctx context.Context, fileID string) (*adapter.FileInfo, error) {
	f, err := d.service.Files.Get(fileID).
		SupportsAllDrives(true).
		Fields(googleapi.Field("id, name, videoMediaMetadata(durationMillis), thumbnailLink, createdTime, modifiedTime")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get file metadata: %w", mapError(err))
	}

	info := &adapter.FileInfo{
		ID:           f.Id,
		Name:         f.Name,
		ThumbnailURL: f.ThumbnailLink,
	}
	if f.VideoMediaMetadata != nil {
		info.DurationMillis = f.VideoMediaMetadata.DurationMillis
	}
	info.CreatedTime, _ = time.Parse(time.RFC3339, f.CreatedTime)
	info.ModifiedTime, _ = time.Parse(time.RFC3339, f.ModifiedTime)

	return info, nil
}

// StreamFile opens the raw content of a file.
func (d *Drive) StreamFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := d.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("unable to download file: %w", mapError(err))
	}
	return resp.Body, nil
}

// Download fetches an absolute URL (thumbnail links) with the authenticated
// client.
func (d *Drive) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ListPermissions returns the sharing grants of a file.
func (d *Drive) ListPermissions(ctx context.Context, fileID string) ([]adapter.Permission, error) {
	res, err := d.service.Permissions.List(fileID).
		Fields(googleapi.Field("permissions(id, type, role)")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list permissions: %w", mapError(err))
	}

	perms := make([]adapter.Permission, 0, len(res.Permissions))
	for _, p := range res.Permissions {
		perms = append(perms, adapter.Permission{ID: p.Id, Type: p.Type, Role: p.Role})
	}
	return perms, nil
}

// CreatePublicPermission grants anyone-can-read without sending notification
// emails.
func (d *Drive) CreatePublicPermission(ctx context.Context, fileID string) error {
	_, err := d.service.Permissions.Create(fileID, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).SendNotificationEmail(false).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to create permission: %w", mapError(err))
	}
	return nil
}

// DeletePermission revokes one sharing grant.
func (d *Drive) DeletePermission(ctx context.Context, fileID, permissionID string) error {
	if err := d.service.Permissions.Delete(fileID, permissionID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete permission: %w", mapError(err))
	}
	return nil
}
