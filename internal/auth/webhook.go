package auth

import (
	"net/http"

	"github.com/pkg/errors"
	svix "github.com/svix/svix-webhooks/go"
)

// Header names carrying the webhook signature.
const (
	WebhookIDHeader        = "svix-id"
	WebhookTimestampHeader = "svix-timestamp"
	WebhookSignatureHeader = "svix-signature"
)

// WebhookVerifier checks identity provider webhook signatures.
type WebhookVerifier struct {
	wh *svix.Webhook
}

func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, errors.Wrap(err, "invalid webhook secret")
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify checks the raw payload against the three signature headers.
func (v *WebhookVerifier) Verify(payload []byte, id, timestamp, signature string) error {
	headers := http.Header{}
	headers.Set(WebhookIDHeader, id)
	headers.Set(WebhookTimestampHeader, timestamp)
	headers.Set(WebhookSignatureHeader, signature)
	return v.wh.Verify(payload, headers)
}
