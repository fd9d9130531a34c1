package employee_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-hrms/internal/employee"
	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/events"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"

	employeeMock "go-hrms/internal/employee/mock"
	"go-hrms/internal/messaging/kafka"
	kafkaMock "go-hrms/internal/messaging/kafka/mock"
	counterMock "go-hrms/internal/shared/counter/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   employee.Service
	repo      *employeeMock.MockRepository
	counter   *counterMock.MockRepository
	redismock redismock.ClientMock
	outbox    *kafkaMock.MockOutboxRepository
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dbRedis, redisMock := redismock.NewClientMock()
	repo := employeeMock.NewMockRepository(ctrl)
	counterRepo := counterMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)

	svc := employee.NewServiceWithOutbox(db, repo, counterRepo, outboxRepo, dbRedis)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		counter:   counterRepo,
		outbox:    outboxRepo,
		redismock: redisMock,
	}
}

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success - auto generate employee code", func(t *testing.T) {
		deps := setupServiceTest(t)
		ctc := decimal.RequireFromString("85000.50")
		req := employee.CreateEmployeeRequest{
			Name:        "Asha Rao",
			Email:       "asha@example.com",
			JoiningDate: "2024-01-15",
			Department:  "Engineering",
			CurrentCTC:  &ctc,
		}

		deps.repo.EXPECT().EmailTaken(ctx, req.Email, "").Return(false, nil)
		deps.counter.EXPECT().GetNextValue(ctx, "employee_code").Return(int64(7), nil)

		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "EMP-000007", e.EmployeeCode)
				assert.Equal(t, employee.StatusActive, e.Status)
				assert.Equal(t, "2024-01-15", e.JoiningDate.Format("2006-01-02"))
				assert.True(t, e.CurrentCTC.Valid)
				assert.NotEqual(t, uuid.Nil, e.ID)
				return nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		resp, err := deps.service.Create(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "EMP-000007", resp.EmployeeCode)
		assert.Equal(t, "Asha Rao", resp.Name)
		assert.Equal(t, "2024-01-15", *resp.JoiningDate)
		assert.True(t, ctc.Equal(*resp.CurrentCTC))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("success - explicit code skips counter", func(t *testing.T) {
		deps := setupServiceTest(t)
		req := employee.CreateEmployeeRequest{Name: "Ben", Email: "ben@example.com", EmployeeCode: "HR-01"}

		deps.repo.EXPECT().EmailTaken(ctx, req.Email, "").Return(false, nil)
		deps.counter.EXPECT().GetNextValue(gomock.Any(), gomock.Any()).Times(0)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		resp, err := deps.service.Create(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "HR-01", resp.EmployeeCode)
	})

	t.Run("success - should persist to outbox with request id", func(t *testing.T) {
		deps := setupServiceTest(t)
		rid := "REQ-123-ABC"
		ctx := contextutil.WithRequestID(context.Background(), rid)
		req := employee.CreateEmployeeRequest{Name: "John Doe", Email: "john@example.com"}

		deps.repo.EXPECT().EmailTaken(ctx, req.Email, "").Return(false, nil)
		deps.counter.EXPECT().GetNextValue(ctx, "employee_code").Return(int64(1), nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, MatchOutboxWithRID(rid)).Return(nil)
		deps.sqlMock.ExpectCommit()
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		_, err := deps.service.Create(ctx, req)

		assert.NoError(t, err)
	})

	t.Run("error - email already exists", func(t *testing.T) {
		deps := setupServiceTest(t)
		req := employee.CreateEmployeeRequest{Name: "Dup", Email: "dup@example.com"}

		deps.repo.EXPECT().EmailTaken(ctx, req.Email, "").Return(true, nil)

		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmailAlreadyExists)
		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, 400, httpErr.Status)
		assert.Equal(t, "Email already exists", httpErr.Message)
	})

	t.Run("error - invalid joining date", func(t *testing.T) {
		deps := setupServiceTest(t)
		req := employee.CreateEmployeeRequest{Name: "X", Email: "x@example.com", JoiningDate: "15/01/2024"}

		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidDateFormat)
	})

	t.Run("error - leaving before joining", func(t *testing.T) {
		deps := setupServiceTest(t)
		req := employee.CreateEmployeeRequest{
			Name: "X", Email: "x@example.com",
			JoiningDate: "2024-05-01", LeavingDate: "2024-04-01",
		}

		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidDateRange)
	})

	t.Run("error - unique index race maps to email exists", func(t *testing.T) {
		deps := setupServiceTest(t)
		req := employee.CreateEmployeeRequest{Name: "Race", Email: "race@example.com"}

		deps.repo.EXPECT().EmailTaken(ctx, req.Email, "").Return(false, nil)
		deps.counter.EXPECT().GetNextValue(ctx, "employee_code").Return(int64(2), nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_email"})
		deps.sqlMock.ExpectRollback()

		_, err := deps.service.Create(ctx, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmailAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("error - outbox failure rolls back", func(t *testing.T) {
		deps := setupServiceTest(t)
		req := employee.CreateEmployeeRequest{Name: "Out", Email: "out@example.com"}

		deps.repo.EXPECT().EmailTaken(ctx, req.Email, "").Return(false, nil)
		deps.counter.EXPECT().GetNextValue(ctx, "employee_code").Return(int64(3), nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("outbox down"))
		deps.sqlMock.ExpectRollback()

		_, err := deps.service.Create(ctx, req)

		assert.Error(t, err)
		assert.True(t, apperror.IsUnexpected(err))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetAll(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)
	filter := employee.EmployeeFilter{Department: "Engineering", Search: "asha"}

	deps.repo.EXPECT().FindAll(ctx, filter).Return([]employee.Employee{
		{ID: uuid.New(), EmployeeCode: "EMP-000001", Name: "Asha", Email: "asha@example.com", Department: "Engineering", Status: employee.StatusActive},
	}, nil)

	resp, err := deps.service.GetAll(ctx, filter)

	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, "Asha", resp[0].Name)
	assert.NotNil(t, resp[0].EducationDetails)
	assert.Nil(t, resp[0].CurrentCTC)
}

func TestEmployeeService_GetOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		deps := setupServiceTest(t)
		cached := []employee.EmployeeOption{{ID: uuid.NewString(), EmployeeCode: "EMP-000001", Name: "Asha"}}
		payload, _ := json.Marshal(cached)

		deps.redismock.ExpectGet(employee.EmployeeOptionsKey).SetVal(string(payload))
		deps.repo.EXPECT().FindOptions(gomock.Any()).Times(0)

		resp, err := deps.service.GetOptions(ctx)

		assert.NoError(t, err)
		assert.Equal(t, cached, resp)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.New()
		expected := []employee.EmployeeOption{{ID: id.String(), EmployeeCode: "EMP-000002", Name: "Ben"}}
		payload, _ := json.Marshal(expected)

		deps.redismock.ExpectGet(employee.EmployeeOptionsKey).RedisNil()
		deps.repo.EXPECT().FindOptions(ctx).Return([]employee.Employee{
			{ID: id, EmployeeCode: "EMP-000002", Name: "Ben"},
		}, nil)
		deps.redismock.ExpectSet(employee.EmployeeOptionsKey, payload, time.Hour).SetVal("OK")

		resp, err := deps.service.GetOptions(ctx)

		assert.NoError(t, err)
		assert.Equal(t, expected, resp)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("works without redis", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := employeeMock.NewMockRepository(ctrl)
		svc := employee.NewService(nil, repo, counterMock.NewMockRepository(ctrl), nil)

		repo.EXPECT().FindOptions(ctx).Return([]employee.Employee{}, nil)

		resp, err := svc.GetOptions(ctx)

		assert.NoError(t, err)
		assert.Empty(t, resp)
	})
}

func TestEmployeeService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByID(ctx, "missing").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, "missing")

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.Equal(t, 404, apperror.ToHTTP(err).Status)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()
	targetID := uuid.New()

	t.Run("success - patch keeps untouched fields", func(t *testing.T) {
		deps := setupServiceTest(t)
		newEmail := "asha.rao@example.com"
		status := employee.StatusLeft
		req := employee.UpdateEmployeeRequest{Email: &newEmail, Status: &status}

		existing := &employee.Employee{ID: targetID, EmployeeCode: "EMP-000001", Name: "Asha", Email: "asha@example.com", Status: employee.StatusActive}
		deps.repo.EXPECT().FindByID(ctx, targetID.String()).Return(existing, nil)
		deps.repo.EXPECT().EmailTaken(ctx, newEmail, targetID.String()).Return(false, nil)
		deps.repo.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "Asha", e.Name)
				assert.Equal(t, newEmail, e.Email)
				assert.Equal(t, employee.StatusLeft, e.Status)
				return nil
			})
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		resp, err := deps.service.Update(ctx, targetID.String(), req)

		assert.NoError(t, err)
		assert.Equal(t, newEmail, resp.Email)
		assert.Equal(t, "EMP-000001", resp.EmployeeCode)
	})

	t.Run("error - email used by someone else", func(t *testing.T) {
		deps := setupServiceTest(t)
		newEmail := "taken@example.com"

		deps.repo.EXPECT().FindByID(ctx, targetID.String()).Return(&employee.Employee{ID: targetID}, nil)
		deps.repo.EXPECT().EmailTaken(ctx, newEmail, targetID.String()).Return(true, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Update(ctx, targetID.String(), employee.UpdateEmployeeRequest{Email: &newEmail})

		assert.ErrorIs(t, err, employeeerrors.ErrEmailAlreadyExists)
	})

	t.Run("error - employee not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		name := "Nobody"
		deps.repo.EXPECT().FindByID(ctx, targetID.String()).Return(nil, gorm.ErrRecordNotFound)

		resp, err := deps.service.Update(ctx, targetID.String(), employee.UpdateEmployeeRequest{Name: &name})

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.Empty(t, resp.ID)
	})

	t.Run("error - update failed", func(t *testing.T) {
		deps := setupServiceTest(t)
		name := "Asha R"
		deps.repo.EXPECT().FindByID(ctx, targetID.String()).Return(&employee.Employee{ID: targetID}, nil)
		deps.repo.EXPECT().Update(ctx, gomock.Any()).Return(errors.New("db connection error"))

		_, err := deps.service.Update(ctx, targetID.String(), employee.UpdateEmployeeRequest{Name: &name})

		assert.Error(t, err)
		assert.True(t, apperror.IsUnexpected(err))
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	ctx := context.Background()
	targetID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().Delete(ctx, targetID).Return(nil)
		deps.redismock.ExpectDel(employee.EmployeeOptionsKey).SetVal(1)

		err := deps.service.Delete(ctx, targetID)

		assert.NoError(t, err)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().Delete(ctx, targetID).Return(gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, targetID)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_ExportExcel(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)
	phone := "0812"
	joined := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	deps.repo.EXPECT().FindAll(ctx, employee.EmployeeFilter{}).Return([]employee.Employee{
		{
			ID: uuid.New(), EmployeeCode: "EMP-000001", Name: "Asha", Email: "asha@example.com",
			Phone: &phone, Department: "Engineering", Designation: "Engineer",
			Status: employee.StatusActive, JoiningDate: &joined,
			CurrentCTC: decimal.NullDecimal{Decimal: decimal.NewFromInt(90000), Valid: true},
		},
	}, nil)

	out, err := deps.service.ExportExcel(ctx)
	assert.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Employees")
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{
		"Employee ID", "Name", "Email", "Phone", "Department",
		"Designation", "Status", "Joining Date", "Current CTC",
	}, rows[0])
	assert.Equal(t, "EMP-000001", rows[1][0])
	assert.Equal(t, "0812", rows[1][3])
	assert.Equal(t, "2023-03-01", rows[1][7])
	assert.Equal(t, "90000", rows[1][8])

	width, err := f.GetColWidth("Employees", "B")
	assert.NoError(t, err)
	assert.Equal(t, float64(25), width)
}

// Helper
type outboxRequestIDMatcher struct {
	expectedRID string
}

func (m outboxRequestIDMatcher) Matches(x any) bool {
	event, ok := x.(kafka.OutboxEvent)
	if !ok {
		return false
	}

	if event.RequestID != m.expectedRID || event.Topic != events.EmployeeLifecycleTopic {
		return false
	}

	var payload events.EmployeeCreatedEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return false
	}

	return payload.RequestID == m.expectedRID
}

func (m outboxRequestIDMatcher) String() string {
	return "matches outbox event with request_id " + m.expectedRID
}

func MatchOutboxWithRID(rid string) gomock.Matcher {
	return outboxRequestIDMatcher{expectedRID: rid}
}
