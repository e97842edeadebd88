package api

import (
	"github.com/gofiber/fiber/v2"

	"pricing-admin/internal/auth"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Categories     *CategoryHandler
	Inputs         *InputHandler
	TermSheets     *TermSheetHandler
	Buttons        *ButtonHandler
	Documents      *DocumentHandler
	Automations    *AutomationHandler
	EmailTemplates *EmailTemplateHandler
	Settings       *SettingsHandler
	Schema         *SchemaHandler
}

// RegisterRoutes mounts the admin API. Every route needs a session; changes
// to pricing-engine configuration also need the pricing-engine settings tab.
func RegisterRoutes(app *fiber.App, h Handlers, authMW fiber.Handler, access auth.Access) {
	api := app.Group("/api", authMW)
	pe := auth.RequireTab(access, "pricing-engine")
	general := auth.RequireTab(access, "general")

	api.Get("/condition-operators", Operators)

	cats := api.Group("/pricing-engine-input-categories")
	cats.Get("/", h.Categories.List)
	cats.Post("/", pe, h.Categories.Create)
	cats.Patch("/", pe, h.Categories.Update)
	cats.Patch("/:id", pe, h.Categories.Update)
	cats.Delete("/", pe, h.Categories.Delete)
	cats.Delete("/:id", pe, h.Categories.Delete)

	inputs := api.Group("/pricing-engine-inputs")
	inputs.Get("/", h.Inputs.List)
	inputs.Get("/:id", h.Inputs.Get)
	inputs.Post("/", pe, h.Inputs.Create)
	inputs.Post("/:id/resolve-bounds", h.Inputs.ResolveBounds)
	inputs.Patch("/", pe, h.Inputs.Update)
	inputs.Patch("/:id", pe, h.Inputs.Update)
	inputs.Delete("/", pe, h.Inputs.Delete)
	inputs.Delete("/:id", pe, h.Inputs.Delete)

	sheets := api.Group("/pe-term-sheets")
	sheets.Get("/", h.TermSheets.List)
	sheets.Post("/", pe, h.TermSheets.Create)
	sheets.Post("/evaluate", h.TermSheets.Evaluate)
	sheets.Patch("/:id", pe, h.TermSheets.Update)
	sheets.Delete("/:id", pe, h.TermSheets.Delete)

	api.Get("/pe-term-sheet-conditions", h.TermSheets.Conditions)
	api.Post("/pe-term-sheet-conditions", pe, h.TermSheets.SaveConditions)
	api.Put("/pe-term-sheet-conditions", pe, h.TermSheets.SaveConditions)

	buttons := api.Group("/pe-section-buttons")
	buttons.Get("/", h.Buttons.List)
	buttons.Post("/", pe, h.Buttons.Create)
	buttons.Patch("/", pe, h.Buttons.Update)
	buttons.Patch("/:id", pe, h.Buttons.Update)
	buttons.Delete("/:id", pe, h.Buttons.Delete)
	buttons.Post("/:id/execute", h.Buttons.Execute)

	// Term sheets and section buttons point at these, so changing them
	// needs the same tab as the pricing engine itself.
	api.Get("/document-types", h.Documents.ListTypes)
	api.Post("/document-types", pe, h.Documents.CreateType)
	api.Patch("/document-types/:id", pe, h.Documents.UpdateType)
	api.Delete("/document-types/:id", pe, h.Documents.DeleteType)

	docs := api.Group("/document-templates")
	docs.Get("/", h.Documents.ListTemplates)
	docs.Get("/:id", h.Documents.GetTemplate)
	docs.Post("/", pe, h.Documents.CreateTemplate)
	docs.Patch("/:id", pe, h.Documents.UpdateTemplate)
	docs.Delete("/:id", pe, h.Documents.DeleteTemplate)

	autos := api.Group("/automations")
	autos.Get("/", h.Automations.List)
	autos.Get("/:uuid", h.Automations.Get)
	autos.Post("/", pe, h.Automations.Create)
	autos.Delete("/:uuid", pe, h.Automations.Delete)

	emails := api.Group("/email-templates")
	emails.Get("/", h.EmailTemplates.List)
	emails.Post("/", h.EmailTemplates.Create)
	emails.Get("/:id", h.EmailTemplates.Get)
	emails.Patch("/:id", h.EmailTemplates.Update)
	emails.Delete("/:id", h.EmailTemplates.Delete)
	emails.Post("/:id/duplicate", h.EmailTemplates.Duplicate)
	emails.Post("/:id/ensure-room", h.EmailTemplates.EnsureRoom)
	emails.Post("/:id/preview", h.EmailTemplates.Preview)

	api.Get("/org/settings-access", h.Settings.CanAccess)
	api.Get("/org/settings", h.Settings.Get)
	api.Patch("/org/settings", general, h.Settings.Update)

	api.Get("/supabase-schema", h.Schema.Get)
}
