package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/forms"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
)

// maxFormBody bounds a single public form submission.
const maxFormBody = 64 << 10

// FormHandler serves one form type: public submit plus admin management.
type FormHandler[T any] struct {
	pipeline  *forms.Pipeline[T]
	listLimit int
}

func NewFormHandler[T any](p *forms.Pipeline[T], listLimit int) *FormHandler[T] {
	return &FormHandler[T]{pipeline: p, listLimit: listLimit}
}

func (h *FormHandler[T]) kind() string {
	return strings.ToLower(h.pipeline.Form().SubmissionType)
}

// Submit handles the public POST.
func (h *FormHandler[T]) Submit(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFormBody)
	rcpt, err := h.pipeline.Submit(c.Request.Context(), body)
	if err != nil {
		failSubmission(c, h.kind(), err)
		return
	}
	ok(c, h.pipeline.Form().Acknowledgement(), rcpt)
}

// List handles the admin GET. ?limit= is capped by the store.
func (h *FormHandler[T]) List(c *gin.Context) {
	limit := h.listLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	rows, err := h.pipeline.Retrieve(c.Request.Context(), limit)
	if err != nil {
		logger.Errorw("list submissions failed", "type", h.kind(), "err", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch submissions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows, "count": len(rows)})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles the admin PATCH /:id.
func (h *FormHandler[T]) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	found, err := h.pipeline.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		logger.Warnw("status update failed", "type", h.kind(), "id", c.Param("id"), "err", err)
		failSubmission(c, h.kind(), err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, msgNotFound)
		return
	}
	ok(c, "Status updated", gin.H{"id": c.Param("id"), "status": strings.TrimSpace(req.Status)})
}

// Remove handles the admin DELETE /:id.
func (h *FormHandler[T]) Remove(c *gin.Context) {
	found, err := h.pipeline.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.Errorw("delete submission failed", "type", h.kind(), "id", c.Param("id"), "err", err)
		failSubmission(c, h.kind(), err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, msgNotFound)
		return
	}
	ok(c, "Submission deleted", nil)
}

// registerForm mounts the form under path. submit guards the public POST,
// admin guards the management routes.
func registerForm[T any](rg *gin.RouterGroup, path string, h *FormHandler[T], submit gin.HandlerFunc, admin []gin.HandlerFunc) {
	rg.POST(path, submit, h.Submit)
	mg := rg.Group(path, admin...)
	mg.GET("", h.List)
	mg.PATCH("/:id", h.SetStatus)
	mg.DELETE("/:id", h.Remove)
}

// NewsletterHandler serves POST /api/newsletter.
type NewsletterHandler struct {
	nl *forms.Newsletter
}

func NewNewsletterHandler(nl *forms.Newsletter) *NewsletterHandler {
	return &NewsletterHandler{nl: nl}
}

func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFormBody)
	res, err := h.nl.Subscribe(c.Request.Context(), body)
	if err != nil {
		failSubmission(c, "newsletter subscription", err)
		return
	}
	ok(c, "Successfully subscribed to newsletter", res)
}

// PhoneCallHandler serves POST /api/track-phone-call.
type PhoneCallHandler struct {
	pc *forms.PhoneCall
}

func NewPhoneCallHandler(pc *forms.PhoneCall) *PhoneCallHandler {
	return &PhoneCallHandler{pc: pc}
}

func (h *PhoneCallHandler) Track(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFormBody)
	res, err := h.pc.Track(c.Request.Context(), body)
	if err != nil {
		failSubmission(c, "phone call tracking", err)
		return
	}
	msg := "Phone call tracked successfully"
	if !res.EmailSent {
		msg = "Phone call logged (email not configured)"
	}
	ok(c, msg, res)
}
