// Package storage keeps uploaded resumes in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxResumeSize = 10 << 20

var (
	ErrNotFound    = errors.New("object not found")
	ErrFileType    = errors.New("file type not allowed")
	ErrFileTooBig  = errors.New("file exceeds size limit")
	ErrEmptyUpload = errors.New("empty upload")
)

var resumeTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Object describes one stored file.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectStore is what the upload endpoints need from a backend.
type ObjectStore interface {
	Put(ctx context.Context, obj Object, r io.Reader) error
	PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// CheckResume validates an upload's declared type and size. The content type
// may carry parameters; when it is generic the file extension decides.
func CheckResume(filename, contentType string, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmptyUpload
	}
	if size > MaxResumeSize {
		return "", ErrFileTooBig
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := resumeTypes[ct]; ok {
		return ct, nil
	}
	if ct == "" || ct == "application/octet-stream" {
		ext := strings.ToLower(path.Ext(filename))
		for t, e := range resumeTypes {
			if e == ext {
				return t, nil
			}
		}
	}
	return "", ErrFileType
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename keeps the base name and replaces anything outside
// [a-zA-Z0-9._-] with '_'. The result is at most 100 bytes.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeName.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "resume"
	}
	if len(name) > 100 {
		ext := path.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:100-len(ext)] + ext
	}
	return name
}

// ResumeKey names an upload resumes/<yyyy>/<mm>/<uuid>-<name>.
func ResumeKey(now time.Time, filename string) string {
	now = now.UTC()
	return fmt.Sprintf("resumes/%04d/%02d/%s-%s", now.Year(), int(now.Month()), uuid.NewString(), SanitizeFilename(filename))
}

// IsResumeKey reports whether key could have come from ResumeKey.
func IsResumeKey(key string) bool {
	return strings.HasPrefix(key, "resumes/") && !strings.Contains(key, "..") && path.Clean(key) == key
}
