package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Handlers groups every resource handler mounted under /api.
type Handlers struct {
	Projects      *ProjectHandler
	Flows         *FlowHandler
	Screens       *ScreenHandler
	Comments      *CommentHandler
	Hotspots      *HotspotHandler
	Analysis      *AnalysisHandler
	Cache         *CacheHandler
	Organizations *OrganizationHandler
}

// RegisterRoutes mounts the API on router. Every route except the shared
// project view and the webhook requires an identity. Routes backed by the
// relational store answer 500 when databaseConfigured is false.
func RegisterRoutes(router fiber.Router, h Handlers, databaseConfigured bool) {
	db := RequireDatabase(databaseConfigured)
	authed := RequireIdentity()

	router.Get("/projects", authed, db, h.Projects.ListProjects)
	router.Post("/projects", authed, db, h.Projects.CreateProject)
	router.Get("/projects/:id", authed, db, h.Projects.GetProject)
	router.Patch("/projects/:id", authed, db, h.Projects.UpdateProject)
	router.Delete("/projects/:id", authed, db, h.Projects.DeleteProject)
	router.Get("/projects/:id/flows", authed, db, h.Projects.ListFlows)
	router.Post("/projects/:id/flows", authed, db, h.Projects.CreateFlow)
	router.Put("/projects/:id/flows/order", authed, db, h.Projects.ReorderFlows)
	router.Post("/projects/:id/share", authed, db, h.Projects.EnableSharing)
	router.Delete("/projects/:id/share", authed, db, h.Projects.DisableSharing)
	router.Get("/projects/:id/export-pdf", authed, db, h.Projects.ExportPDF)
	router.Get("/share/:token", db, h.Projects.GetShared)

	router.Get("/flows/:id", authed, db, h.Flows.GetFlow)
	router.Patch("/flows/:id", authed, db, h.Flows.UpdateFlow)
	router.Delete("/flows/:id", authed, db, h.Flows.DeleteFlow)
	router.Get("/flows/:id/screens", authed, db, h.Flows.ListScreens)
	router.Post("/flows/:id/screens", authed, db, h.Flows.CreateScreen)
	router.Put("/flows/:id/screens/order", authed, db, h.Flows.ReorderScreens)
	router.Post("/flows/:id/import", authed, db, h.Flows.ImportScreens)

	router.Get("/screens/:id", authed, db, h.Screens.GetScreen)
	router.Patch("/screens/:id", authed, db, h.Screens.UpdateScreen)
	router.Delete("/screens/:id", authed, db, h.Screens.DeleteScreen)
	router.Post("/screens/:id/screenshot", authed, db, h.Screens.UploadScreenshot)
	router.Get("/screens/:id/comments", authed, db, h.Screens.ListComments)
	router.Post("/screens/:id/comments", authed, db, h.Screens.CreateComment)
	router.Get("/screens/:id/hotspots", authed, db, h.Screens.ListHotspots)
	router.Post("/screens/:id/hotspots", authed, db, h.Screens.CreateHotspot)
	router.Post("/screens/:id/detect-elements", authed, db, h.Screens.DetectElements)

	router.Patch("/comments/:id", authed, db, h.Comments.UpdateComment)
	router.Delete("/comments/:id", authed, db, h.Comments.DeleteComment)

	router.Patch("/hotspots/:id", authed, db, h.Hotspots.UpdateHotspot)
	router.Delete("/hotspots/:id", authed, db, h.Hotspots.DeleteHotspot)

	router.Post("/analyze-screenshot", authed, h.Analysis.AnalyzeScreenshot)
	router.Get("/cache/stats", authed, h.Cache.GetStatistics)
	router.Delete("/cache", authed, h.Cache.ClearCache)
	router.Post("/organizations", authed, h.Organizations.CreateOrganization)
	router.Post("/webhooks/clerk", h.Organizations.HandleClerkWebhook)
}
