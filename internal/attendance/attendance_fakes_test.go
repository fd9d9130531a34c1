package attendance_test

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"go-hrms/internal/attendance"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	monday    = "2024-06-10"
	tuesday   = "2024-06-11"
	wednesday = "2024-06-12"
	saturday  = "2024-06-08"
	sunday    = "2024-06-09"
)

// memRepo stores attendance in memory and enforces the (employee, date)
// unique index the same way Postgres reports it.
type memRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]attendance.Attendance
	keys      map[string]uuid.UUID
	createErr error
	ctxErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows: make(map[uuid.UUID]attendance.Attendance),
		keys: make(map[string]uuid.UUID),
	}
}

func rowKey(emp uuid.UUID, d time.Time) string {
	return emp.String() + "|" + d.Format("2006-01-02")
}

func uniqueViolation() error {
	return &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_attendance_employee_date",
		Message:        `duplicate key value violates unique constraint "uq_attendance_employee_date"`,
	}
}

func (r *memRepo) WithTx(tx *sql.Tx) attendance.Repository { return r }

func (r *memRepo) Create(ctx context.Context, a *attendance.Attendance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		r.ctxErr = err
	}
	if r.createErr != nil {
		return r.createErr
	}
	k := rowKey(a.EmployeeID, a.Date)
	if _, dup := r.keys[k]; dup {
		return uniqueViolation()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	r.rows[a.ID] = *a
	r.keys[k] = a.ID
	return nil
}

func (r *memRepo) FindAll(ctx context.Context, q attendance.ListQuery) ([]attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []attendance.Attendance{}
	for _, a := range r.rows {
		if q.EmployeeID != "" && a.EmployeeID.String() != q.EmployeeID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.From != nil && a.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && a.Date.After(*q.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*attendance.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	a, ok := r.rows[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *memRepo) Update(ctx context.Context, a *attendance.Attendance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[a.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	oldKey, newKey := rowKey(old.EmployeeID, old.Date), rowKey(a.EmployeeID, a.Date)
	if newKey != oldKey {
		if _, dup := r.keys[newKey]; dup {
			return uniqueViolation()
		}
		delete(r.keys, oldKey)
		r.keys[newKey] = a.ID
	}
	a.UpdatedAt = time.Now().UTC()
	r.rows[a.ID] = *a
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	a, ok := r.rows[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.keys, rowKey(a.EmployeeID, a.Date))
	delete(r.rows, uid)
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// staticDirectory knows a fixed set of employees.
type staticDirectory map[string]bool

func newDirectory(ids ...uuid.UUID) staticDirectory {
	d := staticDirectory{}
	for _, id := range ids {
		d[id.String()] = true
	}
	return d
}

func (d staticDirectory) Exists(ctx context.Context, id string) (bool, error) {
	return d[id], nil
}

// disconnectingDirectory cancels the request after the first lookup, the way
// net/http does when the client goes away mid-upload.
type disconnectingDirectory struct {
	staticDirectory
	cancel context.CancelFunc
}

func (d disconnectingDirectory) Exists(ctx context.Context, id string) (bool, error) {
	d.cancel()
	return d.staticDirectory.Exists(ctx, id)
}
