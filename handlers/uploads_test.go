package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartResume(t *testing.T, filename, contentType string, content []byte, email string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if email != "" {
		require.NoError(t, mw.WriteField("email", email))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload/resume", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func TestUploadResume(t *testing.T) {
	env := newEnv(t)
	body, ct := multipartResume(t, "Ann Lee CV.pdf", "application/pdf", []byte("%PDF-1.4 resume"), "ann@example.com")

	w := env.upload(body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]any)
	key := data["key"].(string)
	assert.True(t, strings.HasPrefix(key, "resumes/"))
	assert.True(t, strings.HasSuffix(key, "-Ann_Lee_CV.pdf"))
	assert.Equal(t, float64(len("%PDF-1.4 resume")), data["size"])
	assert.Equal(t, "Ann Lee CV.pdf", data["filename"])

	obj := env.objects.objects[key]
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "ann@example.com", obj.Metadata["applicant-email"])
	assert.Equal(t, []byte("%PDF-1.4 resume"), env.objects.bodies[key])
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))

	// the admin can fetch it
	w = env.do(http.MethodGet, "/api/upload/resume?key="+key, nil, env.adminToken())
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["data"].(map[string]any)
	assert.Contains(t, got["url"], key)
	assert.Equal(t, float64(900), got["expiresIn"])
}

func TestUploadResume_Rejections(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		ctype    string
		content  []byte
		email    string
		want     string
	}{
		{"no file", "", "", nil, "", "No file provided"},
		{"wrong type", "photo.png", "image/png", []byte("png"), "", "Invalid file type. Only PDF, DOC, and DOCX files are allowed."},
		{"empty file", "cv.pdf", "application/pdf", nil, "", "No file provided"},
		{"bad email", "cv.docx", "application/octet-stream", []byte("docx"), "not-an-email", "Invalid email address"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv(t)
			body, ct := multipartResume(t, tc.filename, tc.ctype, tc.content, tc.email)
			w := env.upload(body, ct)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, decode(t, w)["error"])
			assert.Empty(t, env.objects.objects)
		})
	}
}

func TestUploadResume_ExpensivePreset(t *testing.T) {
	env := newEnv(t)
	for i := 0; i < 3; i++ {
		body, ct := multipartResume(t, "cv.pdf", "application/pdf", []byte("pdf"), "")
		require.Equal(t, http.StatusOK, env.upload(body, ct).Code)
	}
	body, ct := multipartResume(t, "cv.pdf", "application/pdf", []byte("pdf"), "")
	w := env.upload(body, ct)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))
}

func TestUploadResume_StoreFailure(t *testing.T) {
	env := newEnv(t)
	env.objects.putErr = errors.New("minio: access denied")
	body, ct := multipartResume(t, "cv.pdf", "application/pdf", []byte("pdf"), "")
	w := env.upload(body, ct)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to upload file", decode(t, w)["error"])
}

func TestUploadResume_NotConfigured(t *testing.T) {
	env := newEnv(t, func(d *Deps) { d.Uploads = nil })
	body, ct := multipartResume(t, "cv.pdf", "application/pdf", []byte("pdf"), "")
	require.Equal(t, http.StatusServiceUnavailable, env.upload(body, ct).Code)
}

func TestResumeURL(t *testing.T) {
	env := newEnv(t)
	token := env.adminToken()

	w := env.do(http.MethodGet, "/api/upload/resume?key=resumes/2024/06/x.pdf", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/upload/resume", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No key provided", decode(t, w)["error"])

	w = env.do(http.MethodGet, "/api/upload/resume?key=../etc/passwd", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/upload/resume?key=resumes/2024/06/missing.pdf", nil, token)
	require.Equal(t, http.StatusNotFound, w.Code)
}
