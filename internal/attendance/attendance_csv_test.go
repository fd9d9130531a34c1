package attendance_test

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"

	"go-hrms/internal/attendance"

	"github.com/stretchr/testify/assert"
)

func readAll(t *testing.T, in string) ([]attendance.Row, []error) {
	t.Helper()
	rr := attendance.NewRowReader(strings.NewReader(in))
	var rows []attendance.Row
	var errs []error
	for {
		row, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return rows, errs
		}
		if err != nil {
			errs = append(errs, err)
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return rows, errs
			}
			continue
		}
		rows = append(rows, row)
	}
}

func TestRowReader_KeysByHeader(t *testing.T) {
	in := "\ufeff employee_id , note,date,status,out_time,in_time\n" +
		"abc,hello,2024-06-10,Present,17:00,09:00\n" +
		"\n" +
		"def,,2024-06-11,Absent,,\n"

	rows, errs := readAll(t, in)

	assert.Empty(t, errs)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, attendance.Row{
			Line: 2, EmployeeID: "abc", Date: "2024-06-10", Status: "Present", InTime: "09:00", OutTime: "17:00",
		}, rows[0])
		assert.Equal(t, "def", rows[1].EmployeeID)
		assert.Equal(t, 4, rows[1].Line)

		c := rows[1].Candidate()
		assert.Nil(t, c.InTime)
		assert.Nil(t, c.OutTime)
	}
}

func TestRowReader_MissingColumnsReadEmpty(t *testing.T) {
	rows, errs := readAll(t, "employee_id,date\nabc,2024-06-10\nshort\n")

	assert.Empty(t, errs)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, "", rows[0].Status)
		assert.Equal(t, "short", rows[1].EmployeeID)
		assert.Equal(t, "", rows[1].Date)
	}
}

func TestRowReader_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "\ufeff", "employee_id,date,status\n"} {
		rows, errs := readAll(t, in)
		assert.Empty(t, rows)
		assert.Empty(t, errs)
	}
}

func TestRowReader_MalformedRecordIsLocal(t *testing.T) {
	in := "employee_id,date,status\n" +
		"abc,2024-06-10,Pre\"sent\n" +
		"def,2024-06-11,Absent\n"

	rows, errs := readAll(t, in)

	assert.Len(t, errs, 1)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, "def", rows[0].EmployeeID)
	}
}

func TestRowReader_MalformedHeader(t *testing.T) {
	rr := attendance.NewRowReader(strings.NewReader("employee\"_id,date\nabc,2024-06-10\n"))

	_, err := rr.Next()

	assert.ErrorIs(t, err, attendance.ErrMalformedHeader)
}
