package employee

import "github.com/shopspring/decimal"

type CreateEmployeeRequest struct {
	EmployeeCode      string           `json:"employee_code"`
	Name              string           `json:"name" binding:"required"`
	Email             string           `json:"email" binding:"required,email"`
	Phone             *string          `json:"phone"`
	JoiningDate       string           `json:"joining_date"`
	LeavingDate       string           `json:"leaving_date"`
	Designation       string           `json:"designation"`
	Department        string           `json:"department"`
	EducationDetails  []map[string]any `json:"education_details"`
	ExperienceDetails []map[string]any `json:"experience_details"`
	CurrentCTC        *decimal.Decimal `json:"current_ctc"`
	SalaryBreakup     map[string]any   `json:"salary_breakup"`
	Status            string           `json:"status" binding:"omitempty,oneof=Active Left"`
}

// UpdateEmployeeRequest is a patch: nil fields are left untouched.
type UpdateEmployeeRequest struct {
	EmployeeCode      *string           `json:"employee_code"`
	Name              *string           `json:"name" binding:"omitempty,min=1"`
	Email             *string           `json:"email" binding:"omitempty,email"`
	Phone             *string           `json:"phone"`
	JoiningDate       *string           `json:"joining_date"`
	LeavingDate       *string           `json:"leaving_date"`
	Designation       *string           `json:"designation"`
	Department        *string           `json:"department"`
	EducationDetails  *[]map[string]any `json:"education_details"`
	ExperienceDetails *[]map[string]any `json:"experience_details"`
	CurrentCTC        *decimal.Decimal  `json:"current_ctc"`
	SalaryBreakup     *map[string]any   `json:"salary_breakup"`
	Status            *string           `json:"status" binding:"omitempty,oneof=Active Left"`
}

type EmployeeFilter struct {
	Department string `form:"department"`
	Status     string `form:"status"`
	Search     string `form:"search"`
}

type EmployeeResponse struct {
	ID                string           `json:"id"`
	EmployeeCode      string           `json:"employee_code"`
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	Phone             *string          `json:"phone,omitempty"`
	JoiningDate       *string          `json:"joining_date,omitempty"`
	LeavingDate       *string          `json:"leaving_date,omitempty"`
	Designation       string           `json:"designation,omitempty"`
	Department        string           `json:"department,omitempty"`
	EducationDetails  []map[string]any `json:"education_details"`
	ExperienceDetails []map[string]any `json:"experience_details"`
	CurrentCTC        *decimal.Decimal `json:"current_ctc,omitempty"`
	SalaryBreakup     map[string]any   `json:"salary_breakup,omitempty"`
	Status            string           `json:"status"`
	CreatedAt         string           `json:"created_at"`
	UpdatedAt         string           `json:"updated_at"`
}

type EmployeeOption struct {
	ID           string `json:"id"`
	EmployeeCode string `json:"employee_code"`
	Name         string `json:"name"`
}
