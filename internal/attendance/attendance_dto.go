package attendance

// CreateAttendanceRequest carries raw values; all checks happen in the rule
// engine so that single create and CSV import agree.
type CreateAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
	InTime     *string `json:"in_time"`
	OutTime    *string `json:"out_time"`
}

// UpdateAttendanceRequest is a patch: nil fields are left untouched.
type UpdateAttendanceRequest struct {
	EmployeeID *string `json:"employee_id"`
	Date       *string `json:"date"`
	Status     *string `json:"status"`
	InTime     *string `json:"in_time"`
	OutTime    *string `json:"out_time"`
}

type AttendanceFilter struct {
	EmployeeID string `form:"employee_id"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	Status     string `form:"status"`
}

type EmployeeSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type AttendanceResponse struct {
	ID         string           `json:"id"`
	EmployeeID string           `json:"employee_id"`
	Employee   *EmployeeSummary `json:"employee,omitempty"`
	Date       string           `json:"date"`
	Status     string           `json:"status"`
	InTime     *string          `json:"in_time"`
	OutTime    *string          `json:"out_time"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

type UploadResponse struct {
	Message string               `json:"message"`
	Count   int                  `json:"count"`
	Saved   []AttendanceResponse `json:"saved"`
}
