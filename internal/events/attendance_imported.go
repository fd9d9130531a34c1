package events

import "time"

const AttendanceImportedTopic = "hr.attendance.imported.v1"

// AttendanceImportedEvent is queued once per completed bulk import. It carries
// counts only; the records themselves stay in the attendance table.
type AttendanceImportedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	ImportID     string    `json:"import_id"`
	SourceFile   string    `json:"source_file"`
	RowsRead     int       `json:"rows_read"`
	CreatedCount int       `json:"created_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}
