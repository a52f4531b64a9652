package auth

import (
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
)

func TestWebhookVerifier(t *testing.T) {
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	verifier, err := NewWebhookVerifier(secret)
	require.NoError(t, err)

	signer, err := svix.NewWebhook(secret)
	require.NoError(t, err)

	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	now := time.Now()
	signature, err := signer.Sign("msg_1", now, payload)
	require.NoError(t, err)
	ts := strconv.FormatInt(now.Unix(), 10)

	assert.NoError(t, verifier.Verify(payload, "msg_1", ts, signature))
	assert.Error(t, verifier.Verify([]byte(`{"type":"user.deleted"}`), "msg_1", ts, signature))
	assert.Error(t, verifier.Verify(payload, "msg_2", ts, signature))
	assert.Error(t, verifier.Verify(payload, "msg_1", ts, ""))
}

func TestNewWebhookVerifier_BadSecret(t *testing.T) {
	_, err := NewWebhookVerifier("whsec_%%%")
	assert.Error(t, err)
}
