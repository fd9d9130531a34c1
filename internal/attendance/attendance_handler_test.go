package attendance_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-hrms/internal/attendance"
	attendanceerrors "go-hrms/internal/attendance/errors"
	attendanceMock "go-hrms/internal/attendance/mock"
	"go-hrms/internal/bootstrap"
	"go-hrms/internal/middleware"
	"go-hrms/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

type fakeAttendanceService struct {
	CreateFn  func(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error)
	GetAllFn  func(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceResponse, error)
	GetByIDFn func(ctx context.Context, id string) (attendance.AttendanceResponse, error)
	UpdateFn  func(ctx context.Context, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error)
	DeleteFn  func(ctx context.Context, id string) error
	ImportFn  func(ctx context.Context, up attendance.Upload) (attendance.UploadResponse, error)
}

func (f *fakeAttendanceService) Create(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.CreateFn(ctx, req)
}
func (f *fakeAttendanceService) GetAll(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceResponse, error) {
	return f.GetAllFn(ctx, filter)
}
func (f *fakeAttendanceService) GetByID(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeAttendanceService) Update(ctx context.Context, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	return f.UpdateFn(ctx, id, req)
}
func (f *fakeAttendanceService) Delete(ctx context.Context, id string) error {
	return f.DeleteFn(ctx, id)
}
func (f *fakeAttendanceService) Import(ctx context.Context, up attendance.Upload) (attendance.UploadResponse, error) {
	return f.ImportFn(ctx, up)
}

type recordingAudit struct {
	entries []bootstrap.AuditLog
}

func (a *recordingAudit) Log(ctx context.Context, entry bootstrap.AuditLog) {
	a.entries = append(a.entries, entry)
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelopeMeta struct {
	Total int64 `json:"total"`
}

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  *envelopeMeta   `json:"meta"`
	Error *envelopeError  `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func jsonContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestAttendanceHandler_Create(t *testing.T) {
	apperror.Init()

	t.Run("created", func(t *testing.T) {
		svc := &fakeAttendanceService{
			CreateFn: func(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
				assert.Equal(t, monday, req.Date)
				assert.Equal(t, "09:00", *req.InTime)
				return attendance.AttendanceResponse{ID: "a1", EmployeeID: req.EmployeeID, Date: req.Date, Status: req.Status}, nil
			},
		}
		h := attendance.NewHandler(svc, nil, nil, nil)
		c, w := jsonContext(http.MethodPost, "/api/attendance",
			`{"employee_id":"e1","date":"2024-06-10","status":"Present","in_time":"09:00"}`)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Ok)
		var got attendance.AttendanceResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "a1", got.ID)
	})

	t.Run("weekend", func(t *testing.T) {
		svc := &fakeAttendanceService{
			CreateFn: func(ctx context.Context, req attendance.CreateAttendanceRequest) (attendance.AttendanceResponse, error) {
				return attendance.AttendanceResponse{}, attendanceerrors.ErrWeekendNotAllowed
			},
		}
		h := attendance.NewHandler(svc, nil, nil, nil)
		c, w := jsonContext(http.MethodPost, "/api/attendance",
			`{"employee_id":"e1","date":"2024-06-08","status":"Present"}`)

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w)
		assert.False(t, env.Ok)
		assert.Equal(t, attendanceerrors.CodeWeekendNotAllowed, env.Error.Code)
		assert.Equal(t, "Cannot mark attendance on weekend", env.Error.Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		h := attendance.NewHandler(&fakeAttendanceService{}, nil, nil, nil)
		c, w := jsonContext(http.MethodPost, "/api/attendance", `{"employee_id":`)

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeInvalidInput, decodeEnvelope(t, w).Error.Code)
	})
}

func TestAttendanceHandler_Reads(t *testing.T) {
	svc := &fakeAttendanceService{
		GetAllFn: func(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.AttendanceResponse, error) {
			assert.Equal(t, "e1", filter.EmployeeID)
			assert.Equal(t, monday, filter.StartDate)
			assert.Equal(t, tuesday, filter.EndDate)
			return []attendance.AttendanceResponse{{ID: "a1"}, {ID: "a2"}}, nil
		},
		GetByIDFn: func(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
			return attendance.AttendanceResponse{}, attendanceerrors.ErrAttendanceNotFound
		},
		DeleteFn: func(ctx context.Context, id string) error {
			assert.Equal(t, "a1", id)
			return nil
		},
	}
	h := attendance.NewHandler(svc, nil, nil, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/attendance", h.GetAll)
	r.GET("/api/attendance/:id", h.GetById)
	r.DELETE("/api/attendance/:id", h.Delete)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/attendance?employee_id=e1&startDate=2024-06-10&endDate=2024-06-11", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		if assert.NotNil(t, env.Meta) {
			assert.Equal(t, int64(2), env.Meta.Total)
		}
	})

	t.Run("not found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/attendance/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, apperror.CodeNotFound, decodeEnvelope(t, w).Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/attendance/a1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"deleted":true}`, string(decodeEnvelope(t, w).Data))
	})
}

func TestAttendanceHandler_Update(t *testing.T) {
	svc := &fakeAttendanceService{
		UpdateFn: func(ctx context.Context, id string, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
			assert.Equal(t, "a1", id)
			assert.Nil(t, req.Date)
			assert.Equal(t, "Leave", *req.Status)
			return attendance.AttendanceResponse{ID: id, Status: *req.Status}, nil
		},
	}
	h := attendance.NewHandler(svc, nil, nil, nil)
	c, w := jsonContext(http.MethodPut, "/api/attendance/a1", `{"status":"Leave"}`)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func uploadContext(t *testing.T, filename string, content []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/attendance/upload", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	return c, w
}

func TestAttendanceHandler_Upload(t *testing.T) {
	apperror.Init()

	t.Run("file part is required", func(t *testing.T) {
		h := attendance.NewHandler(&fakeAttendanceService{}, attendance.NewUploadStore(t.TempDir(), 1<<20), nil, nil)
		gin.SetMode(gin.TestMode)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/attendance/upload", bytes.NewReader(nil))

		h.Upload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "CSV file is required", decodeEnvelope(t, w).Error.Message)
	})

	t.Run("imported and audited", func(t *testing.T) {
		audit := &recordingAudit{}
		svc := &fakeAttendanceService{
			ImportFn: func(ctx context.Context, up attendance.Upload) (attendance.UploadResponse, error) {
				assert.Regexp(t, `-attendance\.csv$`, up.Name)
				return attendance.UploadResponse{
					Message: "CSV uploaded",
					Count:   1,
					Saved:   []attendance.AttendanceResponse{{ID: "a1", Date: monday}},
				}, nil
			},
		}
		h := attendance.NewHandler(svc, attendance.NewUploadStore(t.TempDir(), 1<<20), nil, audit)
		c, w := uploadContext(t, "attendance.csv", []byte(csvHeader))

		h.Upload(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var got attendance.UploadResponse
		assert.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
		assert.Equal(t, "CSV uploaded", got.Message)
		assert.Equal(t, 1, got.Count)
		if assert.Len(t, audit.entries, 1) {
			assert.Equal(t, "ATTENDANCE_IMPORTED", audit.entries[0].Action)
			assert.Equal(t, 1, audit.entries[0].Meta["created"])
		}
	})

	t.Run("rejected upload type", func(t *testing.T) {
		h := attendance.NewHandler(&fakeAttendanceService{}, attendance.NewUploadStore(t.TempDir(), 1<<20), nil, nil)
		c, w := uploadContext(t, "x.csv", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"))

		h.Upload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, attendanceerrors.ErrUnsupportedFile.Message, decodeEnvelope(t, w).Error.Message)
	})

	t.Run("result cached under idempotency key", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		resp := attendance.UploadResponse{Message: "CSV uploaded", Count: 0, Saved: []attendance.AttendanceResponse{}}
		svc := &fakeAttendanceService{
			ImportFn: func(ctx context.Context, up attendance.Upload) (attendance.UploadResponse, error) {
				return resp, nil
			},
		}
		h := attendance.NewHandler(svc, attendance.NewUploadStore(t.TempDir(), 1<<20), rdb, nil)
		c, w := uploadContext(t, "a.csv", []byte(csvHeader))
		c.Set(middleware.IdempotencyCacheKey, "idemp:/api/attendance/upload:1.2.3.4:k1")
		c.Set(middleware.IdempotencyLockKey, "idemp:/api/attendance/upload:1.2.3.4:k1:lock")

		payload, _ := json.Marshal(resp)
		mock.ExpectSet("idemp:/api/attendance/upload:1.2.3.4:k1", payload, 24*time.Hour).SetVal("OK")
		mock.ExpectDel("idemp:/api/attendance/upload:1.2.3.4:k1:lock").SetVal(1)

		h.Upload(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("client disconnect still caches and unlocks", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		resp := attendance.UploadResponse{Message: "CSV uploaded", Count: 0, Saved: []attendance.AttendanceResponse{}}
		svc := &fakeAttendanceService{
			ImportFn: func(ctx context.Context, up attendance.Upload) (attendance.UploadResponse, error) {
				assert.NoError(t, ctx.Err())
				return resp, nil
			},
		}
		h := attendance.NewHandler(svc, attendance.NewUploadStore(t.TempDir(), 1<<20), rdb, nil)
		c, w := uploadContext(t, "a.csv", []byte(csvHeader))
		reqCtx, cancel := context.WithCancel(c.Request.Context())
		cancel()
		c.Request = c.Request.WithContext(reqCtx)
		c.Set(middleware.IdempotencyCacheKey, "idemp:k3")
		c.Set(middleware.IdempotencyLockKey, "idemp:k3:lock")

		payload, _ := json.Marshal(resp)
		mock.ExpectSet("idemp:k3", payload, 24*time.Hour).SetVal("OK")
		mock.ExpectDel("idemp:k3:lock").SetVal(1)

		h.Upload(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("import failure releases lock only", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		svc := &fakeAttendanceService{
			ImportFn: func(ctx context.Context, up attendance.Upload) (attendance.UploadResponse, error) {
				return attendance.UploadResponse{}, attendanceerrors.ErrUnreadableUpload
			},
		}
		h := attendance.NewHandler(svc, attendance.NewUploadStore(t.TempDir(), 1<<20), rdb, nil)
		c, w := uploadContext(t, "a.csv", []byte(csvHeader))
		c.Set(middleware.IdempotencyCacheKey, "idemp:k2")
		c.Set(middleware.IdempotencyLockKey, "idemp:k2:lock")
		mock.ExpectDel("idemp:k2:lock").SetVal(1)

		h.Upload(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAttendanceHandler_GetByIdWithMockService(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := attendanceMock.NewMockService(ctrl)
	svc.EXPECT().
		GetByID(gomock.Any(), "a1").
		Return(attendance.AttendanceResponse{
			ID:       "a1",
			Date:     monday,
			Status:   attendance.StatusPresent,
			Employee: &attendance.EmployeeSummary{Name: "Asha", Department: "Engineering"},
		}, nil)

	h := attendance.NewHandler(svc, nil, nil, nil)
	c, w := jsonContext(http.MethodGet, "/api/attendance/a1", "")
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	h.GetById(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got attendance.AttendanceResponse
	assert.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &got))
	assert.Equal(t, "Asha", got.Employee.Name)
}
