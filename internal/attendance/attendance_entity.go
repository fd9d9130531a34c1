package attendance

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLeave   = "Leave"
)

// Attendance is one record per employee per calendar day. The composite
// unique index is what rejects duplicates; there is no lookup beforehand.
type Attendance struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeID uuid.UUID    `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_attendance_employee_date,priority:1"`
	Date       time.Time    `gorm:"column:date;type:date;not null;uniqueIndex:uq_attendance_employee_date,priority:2;index"`
	Status     string       `gorm:"column:status;type:text;not null"`
	InTime     *string      `gorm:"column:in_time;type:text"`
	OutTime    *string      `gorm:"column:out_time;type:text"`
	CreatedAt  time.Time    `gorm:"column:created_at"`
	UpdatedAt  time.Time    `gorm:"column:updated_at"`
	Employee   *EmployeeRef `gorm:"foreignKey:EmployeeID;references:ID;-:migration"`
}

func (Attendance) TableName() string {
	return "attendances"
}

type EmployeeRef struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name"`
	Email      string    `gorm:"column:email"`
	Department string    `gorm:"column:department"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}
