package model

// ResponseStatus is the invitation response state of a participant, mirroring
// the calendar provider's attendee response values.
type ResponseStatus string

const (
	ResponseNeedsAction ResponseStatus = "needsAction"
	ResponseAccepted    ResponseStatus = "accepted"
	ResponseDeclined    ResponseStatus = "declined"
	ResponseTentative   ResponseStatus = "tentative"
)

// ReminderMethod is the delivery channel of a reminder.
type ReminderMethod string

const (
	ReminderEmail ReminderMethod = "email"
	ReminderPopup ReminderMethod = "popup"
)

// ReminderUnit is the unit of a reminder's lead time.
type ReminderUnit string

const (
	UnitMinutes ReminderUnit = "minutes"
	UnitHours   ReminderUnit = "hours"
	UnitDays    ReminderUnit = "days"
)

// Meeting is one scheduled conference tied to a course.
//
// RemoteEventID is empty until the first successful synchronization; once set,
// every subsequent save must update (not insert) the remote event.
type Meeting struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	CourseID    int64  `gorm:"index;not null" json:"course_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `json:"description"`
	TimeStart   int64  `gorm:"not null" json:"time_start"`
	TimeEnd     int64  `gorm:"not null" json:"time_end"`
	Notify      bool   `json:"notify"`

	RemoteEventID   string `gorm:"size:255;index" json:"remote_event_id"`
	RemoteEventURI  string `gorm:"size:255" json:"remote_event_uri"`
	RemoteMeetingID string `gorm:"size:255" json:"remote_meeting_id"`
	RemoteRequestID string `gorm:"size:255" json:"remote_request_id"`
	ICalUID         string `gorm:"size:255" json:"ical_uid"`
	JoinURI         string `gorm:"size:255" json:"join_uri"`
	PhoneLabel      string `gorm:"size:255" json:"phone_label"`
	PhonePIN        string `gorm:"size:64" json:"phone_pin"`

	RecordingsLastCheck int64 `json:"recordings_last_check"`
	TimeCreated         int64 `gorm:"not null" json:"time_created"`
	TimeModified        int64 `gorm:"not null" json:"time_modified"`
}

// Participant tracks one enrolled user's invitation state for a meeting.
// Exactly one row exists per (meeting, user) pair.
type Participant struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	MeetingID    int64          `gorm:"index:idx_participant_meeting_user,unique;not null" json:"meeting_id"`
	CourseID     int64          `gorm:"not null" json:"course_id"`
	UserID       int64          `gorm:"index:idx_participant_meeting_user,unique;not null" json:"user_id"`
	Status       ResponseStatus `gorm:"size:32;not null" json:"status"`
	Comment      string         `json:"comment"`
	TimeCreated  int64          `gorm:"not null" json:"time_created"`
	TimeModified int64          `gorm:"not null" json:"time_modified"`
}

// Reminder is one notification rule for a meeting. Reminders are positionally
// ordered by id; saves preserve the identity of the overlapping prefix.
type Reminder struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	MeetingID    int64          `gorm:"index;not null" json:"meeting_id"`
	CourseID     int64          `gorm:"not null" json:"course_id"`
	Method       ReminderMethod `gorm:"size:16;not null" json:"method"`
	Unit         ReminderUnit   `gorm:"size:16;not null" json:"unit"`
	Before       int64          `gorm:"not null" json:"before"`
	TimeCreated  int64          `gorm:"not null" json:"time_created"`
	TimeModified int64          `gorm:"not null" json:"time_modified"`
}

// Minutes normalizes the reminder lead time to minutes.
func (r *Reminder) Minutes() int64 {
	switch r.Unit {
	case UnitHours:
		return r.Before * 60
	case UnitDays:
		return r.Before * 24 * 60
	default:
		return r.Before
	}
}

// Recording is a video artifact discovered as a calendar-event attachment.
//
// Deleted is a soft flag: reconciliation never touches a deleted recording
// again, even if the backing remote file is still attached to the event.
// A RemoteDuration of zero marks a broken or still-transcoding file.
type Recording struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	MeetingID   int64  `gorm:"index;not null" json:"meeting_id"`
	CourseID    int64  `gorm:"not null" json:"course_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `json:"description"`
	Hidden      bool   `json:"hidden"`
	Deleted     bool   `gorm:"index" json:"deleted"`

	RemoteFileID       string `gorm:"size:255;index;not null" json:"remote_file_id"`
	RemoteFileName     string `gorm:"size:255;not null" json:"remote_file_name"`
	RemoteDuration     int64  `json:"remote_duration"`
	RemoteThumbnail    string `json:"remote_thumbnail"`
	RemoteTimeCreated  int64  `json:"remote_time_created"`
	RemoteTimeModified int64  `json:"remote_time_modified"`

	// Chat-log association, set at most once per recording.
	ChatLogFileID   string `gorm:"size:255" json:"chat_log_file_id"`
	ChatLogFileName string `gorm:"size:255" json:"chat_log_file_name"`
	ChatLogStoredID int64  `json:"chat_log_stored_id"`

	TimeCreated  int64 `gorm:"not null" json:"time_created"`
	TimeModified int64 `gorm:"not null" json:"time_modified"`
}

// HasChatLog reports whether a chat log was already associated and fetched.
func (r *Recording) HasChatLog() bool {
	return r.ChatLogFileID != ""
}

// StoredFile is a locally persisted blob, used for fetched chat transcripts.
// Area and ItemID key the file to its owner (e.g. "chatlog" / recording id).
type StoredFile struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Area        string `gorm:"size:64;index:idx_stored_area_item;not null" json:"area"`
	ItemID      int64  `gorm:"index:idx_stored_area_item;not null" json:"item_id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Content     []byte `json:"-"`
	TimeCreated int64  `gorm:"not null" json:"time_created"`
}

// SyncState is the single-row process-wide synchronization cursor: the active
// webhook channel and the incremental sync token. The token only advances
// after a webhook batch has been durably applied.
type SyncState struct {
	ID                int64  `gorm:"primaryKey" json:"id"`
	ChannelID         string `gorm:"size:255" json:"channel_id"`
	ChannelResourceID string `gorm:"size:255" json:"channel_resource_id"`
	ChannelExpiration int64  `json:"channel_expiration"`
	NextSyncToken     string `gorm:"size:255" json:"next_sync_token"`
	TimeModified      int64  `json:"time_modified"`
}
