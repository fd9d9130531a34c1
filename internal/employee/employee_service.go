package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	employeeerrors "go-hrms/internal/employee/errors"
	"go-hrms/internal/events"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	EmployeeOptionsKey  = "employees:options"
	employeeCodeCounter = "employee_code"
	dateLayout          = "2006-01-02"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context, filter EmployeeFilter) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context) ([]EmployeeOption, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
	ExportExcel(ctx context.Context) ([]byte, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	outbox  kafka.OutboxRepository
	rdb     *redis.Client
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counter counter.Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, counter, nil, rdb, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	counter counter.Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		counter: counter,
		outbox:  outboxRepo,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		logger:  l}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
		zap.String("employee_code", req.EmployeeCode),
	)

	joiningDate, err := parseOptionalDate(req.JoiningDate)
	if err != nil {
		return EmployeeResponse{}, err
	}
	leavingDate, err := parseOptionalDate(req.LeavingDate)
	if err != nil {
		return EmployeeResponse{}, err
	}
	if err := validateDateRange(joiningDate, leavingDate); err != nil {
		return EmployeeResponse{}, err
	}

	taken, err := s.repo.EmailTaken(ctx, req.Email, "")
	if err != nil {
		s.logger.Error("create employee email check failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	if taken {
		s.logger.Warn("create employee email already exists", zap.String("email", req.Email))
		return EmployeeResponse{}, employeeerrors.ErrEmailAlreadyExists
	}

	code := strings.TrimSpace(req.EmployeeCode)
	if code == "" {
		nextVal, err := s.counter.GetNextValue(ctx, employeeCodeCounter)
		if err != nil {
			s.logger.Error("create employee generate code failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		code = fmt.Sprintf("EMP-%06d", nextVal)
	}

	status := req.Status
	if status == "" {
		status = StatusActive
	}

	empl := &Employee{
		ID:                uuid.New(),
		EmployeeCode:      code,
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.TrimSpace(req.Email),
		Phone:             req.Phone,
		JoiningDate:       joiningDate,
		LeavingDate:       leavingDate,
		Designation:       req.Designation,
		Department:        req.Department,
		EducationDetails:  req.EducationDetails,
		ExperienceDetails: req.ExperienceDetails,
		CurrentCTC:        nullDecimal(req.CurrentCTC),
		SalaryBreakup:     req.SalaryBreakup,
		Status:            status,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if s.outbox != nil {
		event, err := kafka.NewOutboxEvent(
			rid,
			"employee",
			empl.ID.String(),
			"employee_created",
			events.EmployeeLifecycleTopic,
			events.EmployeeCreatedEvent{
				EventType:    "employee_created",
				RequestID:    rid,
				EmployeeID:   empl.ID.String(),
				EmployeeCode: empl.EmployeeCode,
				Email:        empl.Email,
				OccurredAt:   time.Now().UTC(),
			},
		)
		if err != nil {
			s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
			return EmployeeResponse{}, err
		}

		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			s.logger.Error("create employee outbox persist failed",
				zap.String("employee_id", empl.ID.String()),
				zap.Error(err),
			)
			return EmployeeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx)
	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
		zap.String("employee_code", empl.EmployeeCode),
	)

	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context, filter EmployeeFilter) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested",
		zap.String("department", filter.Department),
		zap.String("status", filter.Status),
		zap.String("search", filter.Search),
	)
	rows, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(rows), nil
}

func (s *service) GetOptions(ctx context.Context) ([]EmployeeOption, error) {
	// 1. Cek Redis
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, EmployeeOptionsKey).Result(); err == nil {
			var resp []EmployeeOption
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// 2. Singleflight supaya cache miss tidak membanjiri database
	v, err, _ := s.sf.Do(EmployeeOptionsKey, func() (interface{}, error) {
		rows, err := s.repo.FindOptions(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := make([]EmployeeOption, len(rows))
		for i, e := range rows {
			resp[i] = EmployeeOption{ID: e.ID.String(), EmployeeCode: e.EmployeeCode, Name: e.Name}
		}

		// 3. Simpan ke Redis
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, EmployeeOptionsKey, jsonData, time.Hour).Err(); err != nil {
					s.logger.Warn("cache employee options failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]EmployeeOption), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.String("employee_id", id))
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	s.logger.Debug("update employee requested", zap.String("employee_id", id))

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if req.Email != nil {
		taken, err := s.repo.EmailTaken(ctx, *req.Email, id)
		if err != nil {
			s.logger.Error("update employee email check failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		if taken {
			return EmployeeResponse{}, employeeerrors.ErrEmailAlreadyExists
		}
	}

	if err := applyPatch(empl, req); err != nil {
		return EmployeeResponse{}, err
	}

	if err := s.repo.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	s.invalidateOptions(ctx)
	s.logger.Info("update employee success", zap.String("employee_id", id))

	return mapToResponse(*empl), nil
}

// Delete removes only the employee row. Attendance rows that reference it are
// left in place.
func (s *service) Delete(ctx context.Context, id string) error {
	s.logger.Debug("delete employee requested", zap.String("employee_id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err)
	}

	s.invalidateOptions(ctx)
	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) ExportExcel(ctx context.Context) ([]byte, error) {
	rows, err := s.repo.FindAll(ctx, EmployeeFilter{})
	if err != nil {
		s.logger.Error("export employees fetch failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	out, err := buildEmployeeWorkbook(rows)
	if err != nil {
		s.logger.Error("export employees build workbook failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("export employees success", zap.Int("rows", len(rows)))
	return out, nil
}

func (s *service) invalidateOptions(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeOptionsKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", EmployeeOptionsKey),
		)
	}
}

func applyPatch(empl *Employee, req UpdateEmployeeRequest) error {
	if req.EmployeeCode != nil {
		empl.EmployeeCode = strings.TrimSpace(*req.EmployeeCode)
	}
	if req.Name != nil {
		empl.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		empl.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		empl.Phone = req.Phone
	}
	if req.JoiningDate != nil {
		d, err := parseOptionalDate(*req.JoiningDate)
		if err != nil {
			return err
		}
		empl.JoiningDate = d
	}
	if req.LeavingDate != nil {
		d, err := parseOptionalDate(*req.LeavingDate)
		if err != nil {
			return err
		}
		empl.LeavingDate = d
	}
	if req.Designation != nil {
		empl.Designation = *req.Designation
	}
	if req.Department != nil {
		empl.Department = *req.Department
	}
	if req.EducationDetails != nil {
		empl.EducationDetails = *req.EducationDetails
	}
	if req.ExperienceDetails != nil {
		empl.ExperienceDetails = *req.ExperienceDetails
	}
	if req.CurrentCTC != nil {
		empl.CurrentCTC = nullDecimal(req.CurrentCTC)
	}
	if req.SalaryBreakup != nil {
		empl.SalaryBreakup = *req.SalaryBreakup
	}
	if req.Status != nil {
		empl.Status = *req.Status
	}
	return validateDateRange(empl.JoiningDate, empl.LeavingDate)
}

func parseOptionalDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		if t, rfcErr := time.Parse(time.RFC3339, v); rfcErr == nil {
			y, m, day := t.Date()
			d = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
		return nil, employeeerrors.ErrInvalidDateFormat
	}
	return &d, nil
}

func validateDateRange(joining, leaving *time.Time) error {
	if joining != nil && leaving != nil && leaving.Before(*joining) {
		return employeeerrors.ErrInvalidDateRange
	}
	return nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(dateLayout)
	return &v
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:                empl.ID.String(),
		EmployeeCode:      empl.EmployeeCode,
		Name:              empl.Name,
		Email:             empl.Email,
		Phone:             empl.Phone,
		JoiningDate:       formatDate(empl.JoiningDate),
		LeavingDate:       formatDate(empl.LeavingDate),
		Designation:       empl.Designation,
		Department:        empl.Department,
		EducationDetails:  empl.EducationDetails,
		ExperienceDetails: empl.ExperienceDetails,
		SalaryBreakup:     empl.SalaryBreakup,
		Status:            empl.Status,
		CreatedAt:         empl.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         empl.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.EducationDetails == nil {
		resp.EducationDetails = []map[string]any{}
	}
	if resp.ExperienceDetails == nil {
		resp.ExperienceDetails = []map[string]any{}
	}
	if empl.CurrentCTC.Valid {
		ctc := empl.CurrentCTC.Decimal
		resp.CurrentCTC = &ctc
	}
	return resp
}

func mapToListResponse(rows []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(rows))
	for i, e := range rows {
		res[i] = mapToResponse(e)
	}
	return res
}
