package attendance

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMalformedHeader means the first record could not be parsed, so no row
// of the file can be keyed.
var ErrMalformedHeader = errors.New("malformed csv header")

const (
	colEmployeeID = "employee_id"
	colDate       = "date"
	colStatus     = "status"
	colInTime     = "in_time"
	colOutTime    = "out_time"
)

// Row is one CSV record keyed by the header. Missing columns read as "".
type Row struct {
	Line       int
	EmployeeID string
	Date       string
	Status     string
	InTime     string
	OutTime    string
}

func (r Row) Candidate() Candidate {
	return Candidate{
		EmployeeID: r.EmployeeID,
		Date:       r.Date,
		Status:     r.Status,
		InTime:     optional(r.InTime),
		OutTime:    optional(r.OutTime),
	}
}

// RowReader yields rows lazily, one record per Next call, in file order.
type RowReader struct {
	br     *bufio.Reader
	cr     *csv.Reader
	header map[string]int
}

func NewRowReader(r io.Reader) *RowReader {
	return &RowReader{br: bufio.NewReader(r)}
}

// Next returns io.EOF once the stream is exhausted. A *csv.ParseError refers
// to a single malformed record; reading may continue after it.
func (rr *RowReader) Next() (Row, error) {
	if rr.cr == nil {
		if err := rr.init(); err != nil {
			return Row{}, err
		}
	}

	rec, err := rr.cr.Read()
	if err != nil {
		return Row{}, err
	}
	line, _ := rr.cr.FieldPos(0)

	return Row{
		Line:       line,
		EmployeeID: rr.field(rec, colEmployeeID),
		Date:       rr.field(rec, colDate),
		Status:     rr.field(rec, colStatus),
		InTime:     rr.field(rec, colInTime),
		OutTime:    rr.field(rec, colOutTime),
	}, nil
}

func (rr *RowReader) init() error {
	if prefix, err := rr.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = rr.br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(rr.br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	rr.header = make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := rr.header[name]; !dup {
			rr.header[name] = i
		}
	}
	rr.cr = cr
	return nil
}

func (rr *RowReader) field(rec []string, name string) string {
	i, ok := rr.header[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
