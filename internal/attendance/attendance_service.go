package attendance

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	attendanceerrors "go-hrms/internal/attendance/errors"
	"go-hrms/internal/events"
	"go-hrms/internal/messaging/kafka"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const importedEventType = "attendance_imported"

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateAttendanceRequest) (AttendanceResponse, error)
	GetAll(ctx context.Context, filter AttendanceFilter) ([]AttendanceResponse, error)
	GetByID(ctx context.Context, id string) (AttendanceResponse, error)
	Update(ctx context.Context, id string, req UpdateAttendanceRequest) (AttendanceResponse, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, up Upload) (UploadResponse, error)
}

type service struct {
	repo     Repository
	engine   *RuleEngine
	importer *Importer
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewService(repo Repository, directory EmployeeDirectory, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(repo, directory, nil, logger...)
}

func NewServiceWithOutbox(
	repo Repository,
	directory EmployeeDirectory,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	base := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		base = logger[0]
	}
	engine := NewRuleEngine(directory, repo, base)
	return &service{
		repo:     repo,
		engine:   engine,
		importer: NewImporter(engine, base),
		outbox:   outboxRepo,
		logger:   base.Named("attendance.service"),
	}
}

func (s *service) Create(ctx context.Context, req CreateAttendanceRequest) (AttendanceResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create attendance requested",
		zap.String("employee_id", req.EmployeeID),
		zap.String("date", req.Date),
		zap.String("status", req.Status),
	)

	row, err := s.engine.Evaluate(ctx, Candidate{
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		Status:     req.Status,
		InTime:     req.InTime,
		OutTime:    req.OutTime,
	})
	metrics.ObserveIngest(metrics.SourceSingle, outcome(err))
	if err != nil {
		if apperror.IsUnexpected(err) {
			log.Error("create attendance failed", zap.Error(err))
		} else {
			log.Warn("create attendance rejected", zap.String("reason", outcome(err)), zap.Error(err))
		}
		return AttendanceResponse{}, err
	}

	log.Info("create attendance success",
		zap.String("attendance_id", row.ID.String()),
		zap.String("employee_id", row.EmployeeID.String()),
	)
	return mapToResponse(*row), nil
}

func (s *service) GetAll(ctx context.Context, filter AttendanceFilter) ([]AttendanceResponse, error) {
	q := ListQuery{Status: strings.TrimSpace(filter.Status)}

	if id := strings.TrimSpace(filter.EmployeeID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return []AttendanceResponse{}, nil
		}
		q.EmployeeID = id
	}
	if filter.StartDate != "" {
		from, err := ParseAttendanceDate(filter.StartDate)
		if err != nil {
			return nil, attendanceerrors.ErrInvalidDate
		}
		q.From = &from
	}
	if filter.EndDate != "" {
		to, err := ParseAttendanceDate(filter.EndDate)
		if err != nil {
			return nil, attendanceerrors.ErrInvalidDate
		}
		q.To = &to
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, attendanceerrors.ErrInvalidDateRange
	}

	rows, err := s.repo.FindAll(ctx, q)
	if err != nil {
		s.logger.Error("get all attendance failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetByID(ctx context.Context, id string) (AttendanceResponse, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return AttendanceResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*row), nil
}

// Update applies the patch as given. Weekend, duplicate and status rules are
// not re-run; the unique index still rejects a colliding (employee, date).
func (s *service) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (AttendanceResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return AttendanceResponse{}, mapRepositoryError(err)
	}

	if req.EmployeeID != nil {
		empID, err := uuid.Parse(strings.TrimSpace(*req.EmployeeID))
		if err != nil {
			return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
		}
		if empID != row.EmployeeID {
			row.Employee = nil
		}
		row.EmployeeID = empID
	}
	if req.Date != nil {
		date, err := ParseAttendanceDate(*req.Date)
		if err != nil {
			return AttendanceResponse{}, err
		}
		row.Date = date
	}
	if req.Status != nil {
		row.Status = *req.Status
	}
	if req.InTime != nil {
		row.InTime = req.InTime
	}
	if req.OutTime != nil {
		row.OutTime = req.OutTime
	}

	if err := s.repo.Update(ctx, row); err != nil {
		mapped := mapRepositoryError(err)
		if apperror.IsUnexpected(mapped) {
			log.Error("update attendance failed", zap.String("attendance_id", id), zap.Error(err))
		}
		return AttendanceResponse{}, mapped
	}

	log.Info("update attendance success", zap.String("attendance_id", id))
	return mapToResponse(*row), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepositoryError(err)
	}
	contextutil.GetLogger(ctx, s.logger).Info("delete attendance success", zap.String("attendance_id", id))
	return nil
}

func (s *service) Import(ctx context.Context, up Upload) (UploadResponse, error) {
	ctx = context.WithoutCancel(ctx)
	res, err := s.importer.ImportBatch(ctx, up)
	if err != nil {
		return UploadResponse{}, err
	}

	s.queueImported(ctx, up, res)

	saved := make([]AttendanceResponse, len(res.Saved))
	for i, a := range res.Saved {
		saved[i] = mapToResponse(a)
	}
	return UploadResponse{
		Message: "CSV uploaded",
		Count:   res.Count,
		Saved:   saved,
	}, nil
}

// queueImported records the batch outcome in the outbox. The rows are already
// committed, so a failure here is logged and not returned.
func (s *service) queueImported(ctx context.Context, up Upload, res ImportResult) {
	if s.outbox == nil {
		return
	}
	rid := contextutil.GetRequestID(ctx)
	importID := uuid.NewString()

	event, err := kafka.NewOutboxEvent(
		rid,
		"attendance_import",
		importID,
		importedEventType,
		events.AttendanceImportedTopic,
		events.AttendanceImportedEvent{
			EventType:    importedEventType,
			RequestID:    rid,
			ImportID:     importID,
			SourceFile:   filepath.Base(up.Name),
			RowsRead:     res.Count + res.Skipped,
			CreatedCount: res.Count,
			OccurredAt:   time.Now().UTC(),
		},
	)
	if err == nil {
		err = s.outbox.Create(ctx, event)
	}
	if err != nil {
		s.logger.Error("queue attendance imported event failed",
			zap.String("request_id", rid),
			zap.String("import_id", importID),
			zap.Error(err),
		)
	}
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:         a.ID.String(),
		EmployeeID: a.EmployeeID.String(),
		Date:       a.Date.Format(dateLayout),
		Status:     a.Status,
		InTime:     a.InTime,
		OutTime:    a.OutTime,
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.Employee != nil {
		resp.Employee = &EmployeeSummary{
			ID:         a.Employee.ID.String(),
			Name:       a.Employee.Name,
			Email:      a.Employee.Email,
			Department: a.Employee.Department,
		}
	}
	return resp
}

func mapToListResponse(rows []Attendance) []AttendanceResponse {
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res
}
