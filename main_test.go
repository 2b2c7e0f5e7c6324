package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Command(t *testing.T) {
	for name, tc := range map[string]struct {
		args  []string
		stdin string
	}{
		"argument": {args: []string{"hash-password", "s3cret-pass"}},
		"stdin":    {args: []string{"hash-password"}, stdin: "s3cret-pass\n"},
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := rootCmd()
			cmd.SetArgs(tc.args)
			cmd.SetIn(strings.NewReader(tc.stdin))
			cmd.SetOut(&out)
			require.NoError(t, cmd.Execute())

			hash := strings.TrimSpace(out.String())
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
		})
	}
}

func TestHashPassword_EmptyStdin(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"hash-password"})
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestMigrate_List(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs([]string{"migrate", "--list"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "000001")
}

func TestMailWorker_RequiresQueueAndSMTP(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	t.Setenv("SMTP_HOST", "")
	cmd := rootCmd()
	cmd.SetArgs([]string{"mail-worker"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}
