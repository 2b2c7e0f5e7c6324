package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/storage"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/validate"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
)

const presignTTL = 15 * time.Minute

// UploadHandler stores resumes. A nil store answers 503.
type UploadHandler struct {
	store storage.ObjectStore
	now   func() time.Time
}

func NewUploadHandler(s storage.ObjectStore) *UploadHandler {
	return &UploadHandler{store: s, now: time.Now}
}

// UploadResume handles POST /api/upload/resume (multipart field "file",
// optional "email").
func (h *UploadHandler) UploadResume(c *gin.Context) {
	if h.store == nil {
		fail(c, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}
	// room for the multipart envelope around a maximum-size file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxResumeSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusBadRequest, "File size exceeds 10MB limit")
			return
		}
		fail(c, http.StatusBadRequest, "No file provided")
		return
	}
	contentType, err := storage.CheckResume(fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
	switch {
	case errors.Is(err, storage.ErrFileType):
		fail(c, http.StatusBadRequest, "Invalid file type. Only PDF, DOC, and DOCX files are allowed.")
		return
	case errors.Is(err, storage.ErrFileTooBig):
		fail(c, http.StatusBadRequest, "File size exceeds 10MB limit")
		return
	case err != nil:
		fail(c, http.StatusBadRequest, "No file provided")
		return
	}

	email := strings.TrimSpace(c.PostForm("email"))
	if email != "" && !validate.IsValidEmail(email) {
		fail(c, http.StatusBadRequest, "Invalid email address")
		return
	}
	if email == "" {
		email = "unknown"
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to read file")
		return
	}
	defer f.Close()

	now := h.now()
	obj := storage.Object{
		Key:         storage.ResumeKey(now, fh.Filename),
		Size:        fh.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"applicant-email":   email,
			"original-filename": storage.SanitizeFilename(fh.Filename),
			"uploaded-at":       now.UTC().Format(time.RFC3339),
		},
	}
	if err := h.store.Put(c.Request.Context(), obj, f); err != nil {
		logger.Errorw("resume upload failed", "key", obj.Key, "err", err)
		fail(c, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	logger.Infow("resume uploaded", "key", obj.Key, "size", obj.Size, "email", email)
	ok(c, "", gin.H{"key": obj.Key, "size": obj.Size, "filename": fh.Filename})
}

// ResumeURL handles the admin GET /api/upload/resume?key=.
func (h *UploadHandler) ResumeURL(c *gin.Context) {
	if h.store == nil {
		fail(c, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}
	key := c.Query("key")
	if key == "" {
		fail(c, http.StatusBadRequest, "No key provided")
		return
	}
	if !storage.IsResumeKey(key) {
		fail(c, http.StatusBadRequest, "Invalid key")
		return
	}
	url, err := h.store.PresignedURL(c.Request.Context(), key, presignTTL)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "File not found")
		return
	}
	if err != nil {
		logger.Errorw("presign failed", "key", key, "err", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve file")
		return
	}
	ok(c, "", gin.H{"url": url, "expiresIn": int64(presignTTL / time.Second)})
}
