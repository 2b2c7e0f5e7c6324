package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSender struct{ n int }

func (s *countingSender) Push(context.Context, push.Subscription, []byte) error {
	s.n++
	return nil
}

func browserSubscription(endpoint string) map[string]any {
	return map[string]any{
		"subscription": map[string]any{
			"endpoint": endpoint,
			"keys":     map[string]string{"p256dh": "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQ", "auth": "tBHItJI5svbpez7KI4CCXg"},
		},
		"userAgent": "Mozilla/5.0",
		"timestamp": 1714557600000,
	}
}

func TestPush_SubscribeSendUnsubscribe(t *testing.T) {
	sender := &countingSender{}
	store := push.NewMemoryStore()
	env := newEnv(t, func(d *Deps) { d.Push = push.NewService(store, sender) })
	endpoint := "https://fcm.googleapis.com/fcm/send/abc123"

	w := env.do(http.MethodPost, "/api/notifications/subscribe", browserSubscription(endpoint), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, push.SubscriptionID(endpoint), decode(t, w)["data"].(map[string]any)["id"])

	token := env.adminToken()
	w = env.do(http.MethodPost, "/api/notifications/send", map[string]string{"title": "Open house", "body": "Saturday 10am"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Notifications sent", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["successful"])
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, 1, sender.n)

	w = env.do(http.MethodPost, "/api/notifications/unsubscribe", map[string]any{"subscription": map[string]string{"endpoint": endpoint}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]any)["removed"])

	w = env.do(http.MethodGet, "/api/notifications/send", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No subscriptions available for testing", decode(t, w)["message"])
}

func TestPush_SendRequiresAdmin(t *testing.T) {
	env := newEnv(t)
	msg := map[string]string{"title": "Hi", "body": "there"}

	w := env.do(http.MethodPost, "/api/notifications/send", msg, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	user := env.login("/api/auth/login", clientEmail)["accessToken"].(string)
	w = env.do(http.MethodPost, "/api/notifications/send", msg, user)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPush_Rejections(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/notifications/subscribe", browserSubscription("http://insecure.example.com/x"), "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid subscription", decode(t, w)["error"])

	w = env.do(http.MethodPost, "/api/notifications/subscribe", "{", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w)["error"])

	w = env.do(http.MethodPost, "/api/notifications/send", map[string]string{"title": "No body"}, env.adminToken())
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title and body are required", decode(t, w)["error"])
}

func TestPush_DefaultSenderIsSimulated(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/api/notifications/subscribe", browserSubscription("https://push.example.com/a"), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/notifications/send", nil, env.adminToken())
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Test notifications sent (push delivery not configured)", body["message"])
	assert.Equal(t, true, body["data"].(map[string]any)["simulated"])
}
