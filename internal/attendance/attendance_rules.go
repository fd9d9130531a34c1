package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	attendanceerrors "go-hrms/internal/attendance/errors"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var acceptedDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// EmployeeDirectory answers whether an employee id is on record.
//
//go:generate mockgen -source=attendance_rules.go -destination=mock/attendance_rules_mock.go -package=mock
type EmployeeDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Candidate is an unvalidated attendance submission, from JSON or a CSV row.
type Candidate struct {
	EmployeeID string
	Date       string
	Status     string
	InTime     *string
	OutTime    *string
}

// RuleEngine decides whether a candidate may become an attendance record and
// persists it when it may. Checks run in a fixed order: input validation,
// employee existence, weekend, then the insert itself.
type RuleEngine struct {
	directory EmployeeDirectory
	repo      Repository
	logger    *zap.Logger
}

func NewRuleEngine(directory EmployeeDirectory, repo Repository, logger ...*zap.Logger) *RuleEngine {
	l := zap.L().Named("attendance.rules")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.rules")
	}
	return &RuleEngine{directory: directory, repo: repo, logger: l}
}

func (e *RuleEngine) Evaluate(ctx context.Context, c Candidate) (*Attendance, error) {
	employeeID := strings.TrimSpace(c.EmployeeID)
	if employeeID == "" {
		return nil, attendanceerrors.ErrEmployeeIDRequired
	}
	date, err := ParseAttendanceDate(c.Date)
	if err != nil {
		return nil, err
	}
	status := strings.TrimSpace(c.Status)
	if status == "" {
		return nil, attendanceerrors.ErrStatusRequired
	}
	if !IsValidStatus(status) {
		return nil, attendanceerrors.ErrInvalidStatus
	}

	// A malformed id can never match a stored employee.
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, attendanceerrors.ErrUnknownEmployee
	}
	exists, err := e.directory.Exists(ctx, empID.String())
	if err != nil {
		return nil, fmt.Errorf("lookup employee %s: %w", empID, err)
	}
	if !exists {
		return nil, attendanceerrors.ErrUnknownEmployee
	}

	if IsWeekend(date) {
		return nil, attendanceerrors.ErrWeekendNotAllowed
	}

	row := &Attendance{
		ID:         uuid.New(),
		EmployeeID: empID,
		Date:       date,
		Status:     status,
		InTime:     c.InTime,
		OutTime:    c.OutTime,
	}
	if err := e.repo.Create(ctx, row); err != nil {
		mapped := mapRepositoryError(err)
		if errors.Is(mapped, attendanceerrors.ErrDuplicateAttendance) {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert attendance: %w", err)
	}

	e.logger.Debug("attendance accepted",
		zap.String("attendance_id", row.ID.String()),
		zap.String("employee_id", row.EmployeeID.String()),
		zap.String("date", row.Date.Format(dateLayout)),
	)
	return row, nil
}

// ParseAttendanceDate reads a calendar date. Timestamps keep the date as
// written; no timezone conversion is applied. The result is midnight UTC.
func ParseAttendanceDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, attendanceerrors.ErrDateRequired
	}
	for _, layout := range acceptedDateLayouts {
		t, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, attendanceerrors.ErrInvalidDate
}

func IsWeekend(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusPresent, StatusAbsent, StatusLeave:
		return true
	default:
		return false
	}
}

// isRejection reports the three rule outcomes a bulk import skips silently.
func isRejection(err error) bool {
	return errors.Is(err, attendanceerrors.ErrUnknownEmployee) ||
		errors.Is(err, attendanceerrors.ErrWeekendNotAllowed) ||
		errors.Is(err, attendanceerrors.ErrDuplicateAttendance)
}

func isValidationFault(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == apperror.CodeInvalidInput
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultCreated
	case errors.Is(err, attendanceerrors.ErrUnknownEmployee):
		return metrics.ResultUnknownEmployee
	case errors.Is(err, attendanceerrors.ErrWeekendNotAllowed):
		return metrics.ResultWeekend
	case errors.Is(err, attendanceerrors.ErrDuplicateAttendance):
		return metrics.ResultDuplicate
	case isValidationFault(err):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
