package attendanceerrors

import (
	"go-hrms/internal/shared/apperror"
	"net/http"
)

const (
	CodeUnknownEmployee     = "UNKNOWN_EMPLOYEE"
	CodeWeekendNotAllowed   = "WEEKEND_NOT_ALLOWED"
	CodeDuplicateAttendance = "DUPLICATE_ATTENDANCE"
)

var (
	ErrUnknownEmployee = apperror.New(
		CodeUnknownEmployee,
		"Employee not found",
		http.StatusBadRequest,
	)
	ErrWeekendNotAllowed = apperror.New(
		CodeWeekendNotAllowed,
		"Cannot mark attendance on weekend",
		http.StatusBadRequest,
	)
	ErrDuplicateAttendance = apperror.New(
		CodeDuplicateAttendance,
		"Attendance already exists for this employee and date",
		http.StatusBadRequest,
	)
	ErrAttendanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"Attendance record not found",
		http.StatusNotFound,
	)

	ErrEmployeeIDRequired = apperror.RequiredField("Employee Id")
	ErrDateRequired       = apperror.RequiredField("Date")
	ErrStatusRequired     = apperror.RequiredField("Status")
	ErrInvalidDate        = apperror.New(
		apperror.CodeInvalidInput,
		"Date is invalid, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"Status must be one of: Present, Absent, Leave",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.InvalidField("Employee Id")
	ErrInvalidDateRange  = apperror.New(
		apperror.CodeInvalidInput,
		"startDate must not be after endDate",
		http.StatusBadRequest,
	)

	ErrCSVRequired = apperror.New(
		apperror.CodeInvalidInput,
		"CSV file is required",
		http.StatusBadRequest,
	)
	ErrUnsupportedFile = apperror.New(
		apperror.CodeInvalidInput,
		"Only CSV files are accepted",
		http.StatusBadRequest,
	)
	ErrFileTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"CSV file is too large",
		http.StatusBadRequest,
	)
	ErrUnreadableUpload = apperror.New(
		apperror.CodeInvalidInput,
		"CSV file could not be read",
		http.StatusBadRequest,
	)
)
