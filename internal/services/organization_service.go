package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"userflow-service/internal/auth"
	"userflow-service/internal/validation"
)

const userCreatedEvent = "user.created"

var slugInvalid = regexp.MustCompile(`[^a-z0-9]`)
var slugDashes = regexp.MustCompile(`-+`)

// WebhookHeaders are the signature headers of a webhook delivery.
type WebhookHeaders struct {
	ID        string
	Timestamp string
	Signature string
}

// WebhookResult is the acknowledgement sent to the identity provider.
type WebhookResult struct {
	Received       bool   `json:"received"`
	Success        bool   `json:"success,omitempty"`
	Message        string `json:"message,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

type webhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type webhookUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

type OrganizationService struct {
	orgs     auth.OrganizationCreator
	verifier SignatureVerifier
}

// NewOrganizationService builds the service. Either collaborator may be nil
// when the identity provider is not configured.
func NewOrganizationService(orgs auth.OrganizationCreator, verifier SignatureVerifier) *OrganizationService {
	return &OrganizationService{orgs: orgs, verifier: verifier}
}

// Create makes an organization owned by the caller.
func (s *OrganizationService) Create(ctx context.Context, id auth.Identity, name string) (*auth.Organization, error) {
	if id.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validation.NonEmpty(name, "name"); err != nil {
		return nil, err
	}
	if s.orgs == nil {
		return nil, &NotConfiguredError{Service: "identity provider"}
	}
	name = strings.TrimSpace(name)
	org, err := s.orgs.CreateOrganization(ctx, name, Slugify(name), id.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "create organization")
	}
	return org, nil
}

// HandleWebhook verifies a delivery and, for new users, creates their
// default organization. Other event types are acknowledged and ignored.
func (s *OrganizationService) HandleWebhook(ctx context.Context, payload []byte, h WebhookHeaders) (*WebhookResult, error) {
	if s.verifier == nil {
		return nil, &NotConfiguredError{Service: "webhook secret"}
	}
	if h.ID == "" || h.Timestamp == "" || h.Signature == "" {
		return nil, invalid("signature", "missing signature headers")
	}
	if err := s.verifier.Verify(payload, h.ID, h.Timestamp, h.Signature); err != nil {
		log.Warn().Err(err).Str("webhook_id", h.ID).Msg("webhook signature rejected")
		return nil, invalid("signature", "invalid signature")
	}

	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, invalid("body", "malformed event")
	}
	if evt.Type != userCreatedEvent {
		return &WebhookResult{Received: true}, nil
	}

	var user webhookUser
	if err := json.Unmarshal(evt.Data, &user); err != nil || user.ID == "" {
		return nil, invalid("data", "malformed user")
	}
	if s.orgs == nil {
		return nil, &NotConfiguredError{Service: "identity provider"}
	}

	name := defaultOrganizationName(user)
	org, err := s.orgs.CreateOrganization(ctx, name, Slugify(name), user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "create default organization")
	}
	log.Info().Str("user_id", user.ID).Str("organization_id", org.ID).Msg("created default organization")
	return &WebhookResult{
		Received:       true,
		Success:        true,
		Message:        "Organization created: " + name,
		OrganizationID: org.ID,
	}, nil
}

// Slugify lowercases name and collapses every run of other characters into
// a single dash.
func Slugify(name string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(name), "-")
	return slugDashes.ReplaceAllString(slug, "-")
}

func defaultOrganizationName(u webhookUser) string {
	if u.FirstName != "" {
		return u.FirstName + "'s Organization"
	}
	if len(u.EmailAddresses) > 0 {
		if local, _, _ := strings.Cut(u.EmailAddresses[0].EmailAddress, "@"); local != "" {
			return local + "'s Organization"
		}
	}
	return "My Organization"
}
