package resume

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"career-readiness/internal/common/errors"
	"career-readiness/internal/models"

	"github.com/google/uuid"
)

// MaxSize is the largest resume accepted on submission.
const MaxSize int64 = 5 << 20

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// ContentType returns the canonical type for an accepted file name.
func ContentType(filename string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// Validate checks the file type and size before anything touches disk.
func Validate(filename string, size int64) error {
	if _, ok := ContentType(filename); !ok {
		return errors.NewResumeInvalidError(fmt.Sprintf("unsupported file type %q; allowed: pdf, doc, docx, txt, png, jpg", filepath.Ext(filename)))
	}
	if size <= 0 {
		return errors.NewResumeInvalidError("resume file is empty")
	}
	if size > MaxSize {
		return errors.NewResumeInvalidError(fmt.Sprintf("resume is %d bytes; the limit is %d", size, MaxSize))
	}
	return nil
}

// Store keeps uploaded resumes on local disk, one file per upload.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes content under a generated name and returns its metadata.
// Content longer than MaxSize is rejected and the partial file removed.
func (s *Store) Save(assessmentID, filename string, content io.Reader) (*models.ResumeFile, error) {
	ct, ok := ContentType(filename)
	if !ok {
		return nil, errors.NewResumeInvalidError("unsupported file type")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", assessmentID, uuid.NewString()[:8], strings.ToLower(filepath.Ext(filename)))
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create resume file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(content, MaxSize+1))
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write resume file: %w", err)
	}
	if n > MaxSize {
		_ = os.Remove(path)
		return nil, errors.NewResumeInvalidError("resume exceeds the 5 MiB limit")
	}

	return &models.ResumeFile{
		Path:        path,
		FileName:    filepath.Base(filename),
		ContentType: ct,
		Size:        n,
	}, nil
}

func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
