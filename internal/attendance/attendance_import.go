package attendance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	attendanceerrors "go-hrms/internal/attendance/errors"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/metrics"

	"go.uber.org/zap"
)

// Upload is a transient CSV handed to the importer. Release deletes the
// backing storage and is called only when the batch completes.
type Upload struct {
	Name    string
	Reader  io.Reader
	Release func() error
}

// Close drops the file handle and leaves the file on disk.
func (u Upload) Close() error {
	if c, ok := u.Reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type ImportResult struct {
	Count   int
	Skipped int
	Saved   []Attendance
}

type Importer struct {
	engine *RuleEngine
	logger *zap.Logger
}

func NewImporter(engine *RuleEngine, logger ...*zap.Logger) *Importer {
	l := zap.L().Named("attendance.importer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.importer")
	}
	return &Importer{engine: engine, logger: l}
}

// ImportBatch evaluates every row in file order. Rule rejections and bad
// rows are skipped; only a failure to read the stream aborts the batch.
// A dropped client does not stop it: store calls run on a context that
// keeps the request values but never cancels.
func (im *Importer) ImportBatch(ctx context.Context, up Upload) (ImportResult, error) {
	ctx = context.WithoutCancel(ctx)
	log := contextutil.GetLogger(ctx, im.logger).With(zap.String("upload", up.Name))
	started := time.Now()

	result := ImportResult{Saved: []Attendance{}}
	reader := NewRowReader(up.Reader)

	for {
		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped++
				metrics.ObserveIngest(metrics.SourceBulk, metrics.ResultInvalid)
				log.Warn("attendance import skipped malformed record",
					zap.Int("line", parseErr.Line),
					zap.Error(err),
				)
				continue
			}

			metrics.ObserveImportBatch("failed", time.Since(started))
			// The transient file stays on disk on this path.
			log.Error("attendance import stream failed",
				zap.String("path", up.Name),
				zap.Int("created", result.Count),
				zap.Error(err),
			)
			if errors.Is(err, ErrMalformedHeader) {
				return ImportResult{}, apperror.Wrap(err,
					attendanceerrors.ErrUnreadableUpload.Code,
					attendanceerrors.ErrUnreadableUpload.Message,
					attendanceerrors.ErrUnreadableUpload.HTTPStatus,
				)
			}
			return ImportResult{}, fmt.Errorf("read %s: %w", up.Name, err)
		}

		rec, err := im.engine.Evaluate(ctx, row.Candidate())
		metrics.ObserveIngest(metrics.SourceBulk, outcome(err))
		switch {
		case err == nil:
			result.Saved = append(result.Saved, *rec)
			result.Count++
		case isRejection(err):
			result.Skipped++
			log.Debug("attendance import row rejected",
				zap.Int("line", row.Line),
				zap.String("employee_id", row.EmployeeID),
				zap.String("date", row.Date),
				zap.String("reason", outcome(err)),
			)
		case isValidationFault(err):
			result.Skipped++
			log.Warn("attendance import row invalid",
				zap.Int("line", row.Line),
				zap.String("employee_id", row.EmployeeID),
				zap.String("date", row.Date),
				zap.Error(err),
			)
		default:
			result.Skipped++
			log.Error("attendance import row failed",
				zap.Int("line", row.Line),
				zap.String("employee_id", row.EmployeeID),
				zap.String("date", row.Date),
				zap.Error(err),
			)
		}
	}

	if up.Release != nil {
		if err := up.Release(); err != nil {
			log.Warn("release upload failed", zap.String("path", up.Name), zap.Error(err))
		}
	}

	elapsed := time.Since(started)
	metrics.ObserveImportBatch("ok", elapsed)
	log.Info("attendance import completed",
		zap.Int("created", result.Count),
		zap.Int("skipped", result.Skipped),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}
