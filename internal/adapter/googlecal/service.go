// Package googlecal implements the calendar, storage and reports adapters on
// top of the Google Calendar, Drive and Admin Reports APIs.
package googlecal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/reports/v1"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/univel/meetsync/internal/adapter"
)

// Services bundles the Google API services sharing one impersonated client.
type Services struct {
	Calendar *Calendar
	Drive    *Drive
	Reports  *Reports
}

// NewServices builds the API services from a service-account credentials
// blob, impersonating the calendar owner. calendarID is the calendar all
// meeting events live in.
func NewServices(ctx context.Context, credentialsJSON []byte, calendarOwner, calendarID string) (*Services, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON,
		calendar.CalendarScope,
		calendar.CalendarEventsScope,
		drive.DriveScope,
		drive.DriveFileScope,
		drive.DriveMetadataScope,
		admin.AdminReportsAuditReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}
	cfg.Subject = calendarOwner

	client := cfg.Client(ctx)

	calSvc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}
	reportsSvc, err := admin.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Reports service: %w", err)
	}

	return &Services{
		Calendar: &Calendar{service: calSvc, calendarID: calendarID},
		Drive:    &Drive{service: driveSvc, client: client},
		Reports:  &Reports{service: reportsSvc},
	}, nil
}

// mapError translates Google API status codes onto the adapter sentinels.
func mapError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", adapter.ErrNotFound, err)
		case http.StatusGone:
			return fmt.Errorf("%w: %v", adapter.ErrGone, err)
		}
	}
	return err
}
