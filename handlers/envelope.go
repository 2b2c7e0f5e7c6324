// Package handlers exposes the HTTP API on gin.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/forms"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgInvalidCreds  = "Invalid credentials"
	msgNotFound      = "Not found"
	msgInternalError = "Internal server error"
)

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func ok(c *gin.Context, message string, data any) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// failSubmission maps pipeline errors to client responses. Storage details
// never leave the server.
func failSubmission(c *gin.Context, kind string, err error) {
	var vErr *forms.ValidationError
	switch {
	case errors.As(err, &vErr):
		fail(c, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, forms.ErrMalformedRequest):
		fail(c, http.StatusBadRequest, msgInvalidBody)
	case errors.Is(err, forms.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, "Failed to process "+kind)
	}
}
