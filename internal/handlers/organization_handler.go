package handlers

import (
	"github.com/gofiber/fiber/v2"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
)

type OrganizationHandler struct {
	orgs *services.OrganizationService
}

func NewOrganizationHandler(orgs *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs}
}

type createOrganizationRequest struct {
	Name string `json:"name"`
}

// CreateOrganization creates an organization owned by the caller
// @Summary Create an organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body createOrganizationRequest true "Organization name"
// @Success 201 {object} auth.Organization
// @Failure 400 {object} errorBody "Missing name"
// @Failure 401 {object} errorBody "Unauthorized"
// @Router /organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *fiber.Ctx) error {
	var req createOrganizationRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	org, err := h.orgs.Create(c.UserContext(), auth.FromContext(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(org)
}

// HandleClerkWebhook receives signed identity provider events
// @Summary Identity provider webhook
// @Description Creates a default organization for every new user
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} services.WebhookResult
// @Failure 400 {object} errorBody "Missing or invalid signature"
// @Router /webhooks/clerk [post]
func (h *OrganizationHandler) HandleClerkWebhook(c *fiber.Ctx) error {
	// copy: fasthttp reuses the body buffer after the handler returns
	payload := append([]byte(nil), c.Body()...)
	result, err := h.orgs.HandleWebhook(c.UserContext(), payload, services.WebhookHeaders{
		ID:        c.Get(auth.WebhookIDHeader),
		Timestamp: c.Get(auth.WebhookTimestampHeader),
		Signature: c.Get(auth.WebhookSignatureHeader),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
