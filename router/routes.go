package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	handler "github.com/krishkalaria12/answer-images/handlers"
	"github.com/krishkalaria12/answer-images/middleware"
	"github.com/krishkalaria12/answer-images/storage"
	"github.com/krishkalaria12/answer-images/views"
)

type Options struct {
	BodyLimit    int
	CookieSecure bool
	// MemoryBlobs, when set, is served under /blobs.
	MemoryBlobs *storage.MemoryStore
}

// NewApp builds the fiber app with views, error handling and middleware.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:                 views.Engine(),
		ErrorHandler:          handler.ErrorHandler,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.RequestLogger())
	app.Use(recover.New())

	return app
}

func SetupRoutes(app *fiber.App, h *handler.AnswerImagesHandler, opts Options) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/AnswerImages")
	})

	images := app.Group("/AnswerImages", middleware.AntiForgery(opts.CookieSecure))
	images.Get("/", h.Index)
	images.Get("/Upload", h.UploadForm)
	images.Post("/Upload", h.Upload)
	images.Get("/Delete/:id", h.DeleteConfirm)
	images.Post("/Delete/:id", h.DeleteConfirmed)

	api := app.Group("/api")
	api.Get("/answer-images", h.ListJSON)
	api.Get("/answer-images/:id", h.GetJSON)

	if opts.MemoryBlobs != nil {
		app.Get("/blobs/:container/*", handler.ServeMemoryBlob(opts.MemoryBlobs))
	}
}
