package forms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsletter_SendsBothEmails(t *testing.T) {
	n := &recordingNotifier{}
	nl := NewNewsletter(n, []string{"office@mhc-gc.com"})

	res, err := nl.Subscribe(context.Background(), strings.NewReader(`{"email":" jane@example.com ","name":"Jane"}`))
	require.NoError(t, err)
	assert.True(t, res.OfficeNotified)
	assert.True(t, res.Acknowledged)

	require.Len(t, n.sent, 2)
	assert.Equal(t, []string{"office@mhc-gc.com"}, n.sent[0].To)
	assert.Equal(t, "jane@example.com", n.sent[0].ReplyTo)
	assert.Contains(t, n.sent[0].Text, "Name: Jane")
	assert.Equal(t, []string{"jane@example.com"}, n.sent[1].To)
	assert.Equal(t, "Welcome to the MH Construction Newsletter", n.sent[1].Subject)
	assert.True(t, strings.HasPrefix(n.sent[1].Text, "Hello Jane,"))
}

func TestNewsletter_Rejections(t *testing.T) {
	n := &recordingNotifier{}
	nl := NewNewsletter(n, []string{"office@mhc-gc.com"})

	_, err := nl.Subscribe(context.Background(), strings.NewReader(`{"email":`))
	assert.True(t, errors.Is(err, ErrMalformedRequest))
	_, err = nl.Subscribe(context.Background(), strings.NewReader(`{"email":"jane@example.com"}garbage`))
	assert.True(t, errors.Is(err, ErrMalformedRequest))

	var vErr *ValidationError
	_, err = nl.Subscribe(context.Background(), strings.NewReader(`{}`))
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Missing required fields: email is required", vErr.Reason)

	_, err = nl.Subscribe(context.Background(), strings.NewReader(`{"email":"not-an-email"}`))
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Invalid email address", vErr.Reason)
	assert.Empty(t, n.sent)
}

func TestNewsletter_DeliveryFailureIsReported(t *testing.T) {
	n := &recordingNotifier{err: errors.New("connection refused")}
	nl := NewNewsletter(n, []string{"office@mhc-gc.com"})

	res, err := nl.Subscribe(context.Background(), strings.NewReader(`{"email":"jane@example.com"}`))
	require.NoError(t, err)
	assert.False(t, res.OfficeNotified)
	assert.False(t, res.Acknowledged)
	assert.Len(t, n.sent, 2)
	assert.True(t, strings.HasPrefix(n.sent[1].Text, "Hello,"))
}
