package googlecal

import (
	"context"
	"fmt"
	"time"

	admin "google.golang.org/api/admin/reports/v1"

	"github.com/univel/meetsync/internal/adapter"
)

// Reports implements adapter.ReportsAdapter on the Admin Reports API.
type Reports struct {
	service *admin.Service
}

// ListMeetActivities lists call_ended audit records for one meeting code.
func (r *Reports) ListMeetActivities(ctx context.Context, meetingCode string) ([]adapter.Activity, error) {
	var activities []adapter.Activity

	call := r.service.Activities.List("all", "meet").
		EventName("call_ended").
		Filters("meeting_code==" + meetingCode).
		Context(ctx)

	for {
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list meet activities: %w", mapError(err))
		}
		for _, item := range res.Items {
			activities = append(activities, fromGoogleActivity(item)...)
		}
		if res.NextPageToken == "" {
			return activities, nil
		}
		call = call.PageToken(res.NextPageToken)
	}
}

func fromGoogleActivity(item *admin.Activity) []adapter.Activity {
	var out []adapter.Activity

	var actor string
	if item.Actor != nil {
		actor = item.Actor.Email
	}
	var when time.Time
	if item.Id != nil {
		when, _ = time.Parse(time.RFC3339, item.Id.Time)
	}

	for _, ev := range item.Events {
		a := adapter.Activity{ActorEmail: actor, Time: when}
		for _, p := range ev.Parameters {
			switch p.Name {
			case "duration_seconds":
				a.DurationSeconds = p.IntValue
			case "display_name":
				a.DisplayName = p.Value
			case "identifier":
				if a.ActorEmail == "" {
					a.ActorEmail = p.Value
				}
			}
		}
		out = append(out, a)
	}
	return out
}
