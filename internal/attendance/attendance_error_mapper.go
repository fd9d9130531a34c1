package attendance

import (
	"errors"
	"strings"

	attendanceerrors "go-hrms/internal/attendance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const constraintEmployeeDate = "uq_attendance_employee_date"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendanceerrors.ErrAttendanceNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return attendanceerrors.ErrDuplicateAttendance
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == constraintEmployeeDate {
			return attendanceerrors.ErrDuplicateAttendance
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, constraintEmployeeDate) {
		return attendanceerrors.ErrDuplicateAttendance
	}

	return err
}
