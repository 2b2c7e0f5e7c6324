package storage

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResume(t *testing.T) {
	ct, err := CheckResume("cv.pdf", "application/pdf", 1024)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)

	ct, err = CheckResume("cv.DOCX", "application/octet-stream", 1024)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ct)

	_, err = CheckResume("cv.png", "image/png", 1024)
	assert.ErrorIs(t, err, ErrFileType)

	_, err = CheckResume("cv.exe", "application/octet-stream", 1024)
	assert.ErrorIs(t, err, ErrFileType)

	_, err = CheckResume("cv.pdf", "application/pdf", MaxResumeSize+1)
	assert.ErrorIs(t, err, ErrFileTooBig)

	_, err = CheckResume("cv.pdf", "application/pdf", MaxResumeSize)
	assert.NoError(t, err)

	_, err = CheckResume("cv.pdf", "application/pdf", 0)
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "John_Smith_Resume_2024_.pdf", SanitizeFilename("John Smith Resume (2024).pdf"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "cv.doc", SanitizeFilename(`C:\Users\me\cv.doc`))
	assert.Equal(t, "resume", SanitizeFilename("..."))

	long := SanitizeFilename(strings.Repeat("a", 150) + ".pdf")
	assert.Len(t, long, 100)
	assert.True(t, strings.HasSuffix(long, ".pdf"))
}

func TestResumeKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.FixedZone("PST", -8*3600))
	key := ResumeKey(now, "my cv.pdf")
	pattern := regexp.MustCompile(`^resumes/2024/03/[0-9a-f-]{36}-my_cv\.pdf$`)
	assert.Regexp(t, pattern, key)
	assert.NotEqual(t, key, ResumeKey(now, "my cv.pdf"))
	assert.True(t, IsResumeKey(key))
}

func TestIsResumeKey(t *testing.T) {
	assert.False(t, IsResumeKey("other/2024/01/x.pdf"))
	assert.False(t, IsResumeKey("resumes/../secrets"))
	assert.False(t, IsResumeKey("resumes//x"))
}
