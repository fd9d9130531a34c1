package events

import "time"

const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

type EmployeeCreatedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeCode string    `json:"employee_code"`
	Email        string    `json:"email"`
	OccurredAt   time.Time `json:"occurred_at"`
}
