package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusActive = "Active"
	StatusLeft   = "Left"
)

type Employee struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	EmployeeCode      string              `gorm:"column:employee_code;type:varchar(50);not null;uniqueIndex:uq_employee_code"`
	Name              string              `gorm:"column:name;not null"`
	Email             string              `gorm:"column:email;not null;uniqueIndex:uq_employee_email"`
	Phone             *string             `gorm:"column:phone;type:varchar(30)"`
	JoiningDate       *time.Time          `gorm:"column:joining_date;type:date"`
	LeavingDate       *time.Time          `gorm:"column:leaving_date;type:date"`
	Designation       string              `gorm:"column:designation"`
	Department        string              `gorm:"column:department;index"`
	EducationDetails  []map[string]any    `gorm:"column:education_details;type:jsonb;serializer:json"`
	ExperienceDetails []map[string]any    `gorm:"column:experience_details;type:jsonb;serializer:json"`
	CurrentCTC        decimal.NullDecimal `gorm:"column:current_ctc;type:numeric(14,2)"`
	SalaryBreakup     map[string]any      `gorm:"column:salary_breakup;type:jsonb;serializer:json"`
	Status            string              `gorm:"column:status;type:varchar(10);not null;default:Active;index"`
	CreatedAt         time.Time           `gorm:"column:created_at"`
	UpdatedAt         time.Time           `gorm:"column:updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}
