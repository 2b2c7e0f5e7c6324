package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/push"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
)

// UnsubscribeRequest is the body of POST /api/notifications/unsubscribe.
type UnsubscribeRequest struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
	} `json:"subscription"`
}

// PushHandler serves /api/notifications.
type PushHandler struct {
	svc *push.Service
}

func NewPushHandler(svc *push.Service) *PushHandler {
	return &PushHandler{svc: svc}
}

func (h *PushHandler) Subscribe(c *gin.Context) {
	var req push.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	sub, err := h.svc.Subscribe(c.Request.Context(), req)
	if errors.Is(err, push.ErrInvalidSubscription) {
		fail(c, http.StatusBadRequest, "Invalid subscription")
		return
	}
	if err != nil {
		logger.Errorw("push subscribe failed", "err", err)
		fail(c, http.StatusInternalServerError, "Failed to save subscription")
		return
	}
	ok(c, "Subscription saved", gin.H{"id": sub.ID})
}

func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	removed, err := h.svc.Unsubscribe(c.Request.Context(), req.Subscription.Endpoint)
	if errors.Is(err, push.ErrInvalidSubscription) {
		fail(c, http.StatusBadRequest, "Invalid subscription")
		return
	}
	if err != nil {
		logger.Errorw("push unsubscribe failed", "err", err)
		fail(c, http.StatusInternalServerError, "Failed to remove subscription")
		return
	}
	ok(c, "Subscription removed", gin.H{"removed": removed})
}

// Send handles the admin POST: a notification to every or selected subscriber.
func (h *PushHandler) Send(c *gin.Context) {
	var n push.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	res, err := h.svc.Send(c.Request.Context(), n)
	if errors.Is(err, push.ErrInvalidNotification) {
		fail(c, http.StatusBadRequest, "Title and body are required")
		return
	}
	if err != nil {
		logger.Errorw("push send failed", "err", err)
		fail(c, http.StatusInternalServerError, "Failed to send notifications")
		return
	}
	ok(c, sentMessage("Notifications sent", res), res)
}

// SendTest handles the admin GET: a test notification to every subscriber.
func (h *PushHandler) SendTest(c *gin.Context) {
	res, err := h.svc.SendTest(c.Request.Context())
	if err != nil {
		logger.Errorw("push test failed", "err", err)
		fail(c, http.StatusInternalServerError, "Failed to send notifications")
		return
	}
	if res.Total == 0 {
		ok(c, "No subscriptions available for testing", res)
		return
	}
	ok(c, sentMessage("Test notifications sent", res), res)
}

func sentMessage(base string, res push.Result) string {
	if res.Simulated {
		return base + " (push delivery not configured)"
	}
	return base
}
