package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"userflow-service/internal/auth"
	"userflow-service/internal/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
	flows    *services.FlowService
	export   *services.ExportService
	// publicBaseURL prefixes share links; the request origin is used when empty.
	publicBaseURL string
}

func NewProjectHandler(projects *services.ProjectService, flows *services.FlowService, export *services.ExportService, publicBaseURL string) *ProjectHandler {
	return &ProjectHandler{projects: projects, flows: flows, export: export, publicBaseURL: publicBaseURL}
}

// orderRequest is the body of reorder endpoints.
type orderRequest struct {
	IDs []string `json:"ids"`
}

// ListProjects returns the caller's projects
// @Summary List projects
// @Description Projects of the active organization, or personal projects, newest first
// @Tags projects
// @Produce json
// @Success 200 {array} models.Project
// @Failure 401 {object} errorBody "Unauthorized"
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.List(auth.FromContext(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(projects)
}

// CreateProject creates a new project
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body services.ProjectInput true "Project data"
// @Success 201 {object} models.Project
// @Failure 400 {object} errorBody "Invalid project data"
// @Failure 401 {object} errorBody "Unauthorized"
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var in services.ProjectInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	project, err := h.projects.Create(auth.FromContext(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProject returns a project by ID
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {object} models.Project
// @Failure 400 {object} errorBody "Invalid UUID"
// @Failure 403 {object} errorBody "Forbidden"
// @Failure 404 {object} errorBody "Project not found"
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	project, err := h.projects.Get(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// UpdateProject applies a partial update
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Param project body services.ProjectPatch true "Fields to change"
// @Success 200 {object} models.Project
// @Failure 400 {object} errorBody "Invalid project data"
// @Failure 404 {object} errorBody "Project not found"
// @Router /projects/{id} [patch]
func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var patch services.ProjectPatch
	if err := parseBody(c, &patch); err != nil {
		return respondError(c, err)
	}
	project, err := h.projects.Update(auth.FromContext(c), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// DeleteProject soft-deletes a project with its flows and screens
// @Summary Delete a project
// @Tags projects
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorBody "Project not found"
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.projects.Delete(auth.FromContext(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListFlows returns the flows of a project in order
// @Summary List flows of a project
// @Tags flows
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {array} models.Flow
// @Router /projects/{id}/flows [get]
func (h *ProjectHandler) ListFlows(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	flows, err := h.flows.ListByProject(auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(flows)
}

// CreateFlow appends a flow to a project
// @Summary Create a flow
// @Tags flows
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Param flow body services.FlowInput true "Flow data"
// @Success 201 {object} models.Flow
// @Failure 400 {object} errorBody "Invalid flow data"
// @Router /projects/{id}/flows [post]
func (h *ProjectHandler) CreateFlow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in services.FlowInput
	if err := parseBody(c, &in); err != nil {
		return respondError(c, err)
	}
	flow, err := h.flows.Create(auth.FromContext(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(flow)
}

// ReorderFlows sets the flow order of a project
// @Summary Reorder flows
// @Tags flows
// @Accept json
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Param order body orderRequest true "Flow IDs in the new order"
// @Success 200 {array} models.Flow
// @Failure 400 {object} errorBody "Invalid order"
// @Router /projects/{id}/flows/order [put]
func (h *ProjectHandler) ReorderFlows(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ids, err := parseOrder(c)
	if err != nil {
		return respondError(c, err)
	}
	flows, err := h.flows.Reorder(auth.FromContext(c), id, ids)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(flows)
}

// EnableSharing makes a project readable through its share link
// @Summary Enable public sharing
// @Tags sharing
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {object} services.ShareInfo
// @Router /projects/{id}/share [post]
func (h *ProjectHandler) EnableSharing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	info, err := h.projects.EnableSharing(auth.FromContext(c), id, h.baseURL(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// DisableSharing turns the share link off
// @Summary Disable public sharing
// @Tags sharing
// @Produce json
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {object} services.ShareInfo
// @Router /projects/{id}/share [delete]
func (h *ProjectHandler) DisableSharing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	info, err := h.projects.DisableSharing(auth.FromContext(c), id, h.baseURL(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// GetShared returns a public project by share token. No authentication.
// @Summary Get a shared project
// @Tags sharing
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} models.Project
// @Failure 404 {object} errorBody "Shared project not found"
// @Router /share/{token} [get]
func (h *ProjectHandler) GetShared(c *fiber.Ctx) error {
	project, err := h.projects.GetShared(c.Params("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(project)
}

// ExportPDF renders the project's flows as a PDF document
// @Summary Export a project as PDF
// @Tags projects
// @Produce application/pdf
// @Param id path string true "Project ID" Format(uuid)
// @Success 200 {file} file
// @Failure 503 {object} errorBody "Typst is not configured"
// @Router /projects/{id}/export-pdf [get]
func (h *ProjectHandler) ExportPDF(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	pdf, filename, err := h.export.ExportProjectPDF(c.UserContext(), auth.FromContext(c), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdf)
}

func (h *ProjectHandler) baseURL(c *fiber.Ctx) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	return c.BaseURL()
}
