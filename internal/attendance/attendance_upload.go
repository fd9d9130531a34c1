package attendance

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	attendanceerrors "go-hrms/internal/attendance/errors"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// UploadStore keeps multipart uploads on local disk until an import releases
// them. Files are named <unix-millis>-<original name>.
type UploadStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
	logger   *zap.Logger
}

func NewUploadStore(dir string, maxBytes int64, logger ...*zap.Logger) *UploadStore {
	l := zap.L().Named("attendance.uploads")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.uploads")
	}
	return &UploadStore{dir: dir, maxBytes: maxBytes, now: time.Now, logger: l}
}

// Save writes the upload to disk and opens it for reading. The caller must
// Close the returned upload; Upload.Release also removes it from disk.
func (s *UploadStore) Save(fh *multipart.FileHeader) (Upload, error) {
	if fh == nil {
		return Upload{}, attendanceerrors.ErrCSVRequired
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return Upload{}, attendanceerrors.ErrFileTooLarge
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Upload{}, fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFilename(fh.Filename))
	path := filepath.Join(s.dir, name)

	written, err := s.copyTo(fh, path)
	if err != nil {
		_ = os.Remove(path)
		return Upload{}, err
	}

	if written > 0 {
		if err := checkTextual(path); err != nil {
			_ = os.Remove(path)
			return Upload{}, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		_ = os.Remove(path)
		return Upload{}, fmt.Errorf("open upload: %w", err)
	}

	s.logger.Debug("upload stored",
		zap.String("path", path),
		zap.Int64("bytes", written),
	)

	h := &uploadFile{File: f}
	return Upload{
		Name:   path,
		Reader: h,
		Release: func() error {
			_ = h.Close()
			return os.Remove(path)
		},
	}, nil
}

// uploadFile is shared by Upload.Close and Release; only the first Close
// reaches the file.
type uploadFile struct {
	*os.File
	once sync.Once
	err  error
}

func (u *uploadFile) Close() error {
	u.once.Do(func() { u.err = u.File.Close() })
	return u.err
}

func (s *UploadStore) copyTo(fh *multipart.FileHeader, path string) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, fmt.Errorf("open multipart file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	var r io.Reader = src
	if s.maxBytes > 0 {
		r = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(dst, r)
	if err != nil {
		return written, fmt.Errorf("write upload file: %w", err)
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		return written, attendanceerrors.ErrFileTooLarge
	}
	return written, nil
}

// checkTextual rejects binaries; anything detected under text/plain passes,
// which covers text/csv.
func checkTextual(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect upload type: %w", err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return attendanceerrors.ErrUnsupportedFile
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.csv"
	}
	return strings.ReplaceAll(name, " ", "_")
}
