package handler

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/answer-images/middleware"
	"github.com/krishkalaria12/answer-images/models"
	"github.com/krishkalaria12/answer-images/services"
	"github.com/rs/zerolog/log"
)

const (
	layout          = "layouts/main"
	uploadFormField = "answerImage"
	indexPath       = "/AnswerImages"
)

// ImageService is the workflow the handlers drive.
type ImageService interface {
	List(ctx context.Context) ([]models.AnswerImage, error)
	Get(ctx context.Context, id uint) (*models.AnswerImage, error)
	Upload(ctx context.Context, fileName string, data []byte) (*models.AnswerImage, error)
	Delete(ctx context.Context, id uint) error
}

type AnswerImagesHandler struct {
	images ImageService
}

func NewAnswerImagesHandler(images ImageService) *AnswerImagesHandler {
	return &AnswerImagesHandler{images: images}
}

func (h *AnswerImagesHandler) Index(c *fiber.Ctx) error {
	images, err := h.images.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.Render("index", fiber.Map{
		"Title":  "Answer Images",
		"Images": images,
	}, layout)
}

func (h *AnswerImagesHandler) UploadForm(c *fiber.Ctx) error {
	return c.Render("upload", fiber.Map{
		"Title": "Upload",
		"CSRF":  middleware.CSRFToken(c),
	}, layout)
}

func (h *AnswerImagesHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile(uploadFormField)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file provided")
	}

	blobFile, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Error opening the file")
	}
	defer blobFile.Close()

	data, err := io.ReadAll(blobFile)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Error reading the file")
	}

	if _, err := h.images.Upload(c.UserContext(), file.Filename, data); err != nil {
		return err
	}

	return c.Redirect(indexPath)
}

// DeleteConfirm shows the confirmation page.
func (h *AnswerImagesHandler) DeleteConfirm(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	image, err := h.images.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.Render("delete", fiber.Map{
		"Title": "Delete",
		"Image": image,
		"CSRF":  middleware.CSRFToken(c),
	}, layout)
}

func (h *AnswerImagesHandler) DeleteConfirmed(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.images.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.Redirect(indexPath)
}

// ListJSON and GetJSON expose read-only metadata for API clients.
func (h *AnswerImagesHandler) ListJSON(c *fiber.Ctx) error {
	images, err := h.images.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Images found",
		"data":    images,
	})
}

func (h *AnswerImagesHandler) GetJSON(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	image, err := h.images.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "Image found",
		"data":    image,
	})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, services.ErrNotFound
	}
	return uint(id), nil
}

// ErrorHandler maps workflow errors to a status and renders the generic
// error page, or a JSON body for /api routes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, message := classify(err)

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{
			"status":  "error",
			"message": message,
			"data":    nil,
		})
	}

	return c.Status(code).Render("error", fiber.Map{
		"Title":     "Error",
		"Message":   message,
		"RequestID": c.GetRespHeader(fiber.HeaderXRequestID),
	}, layout)
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "Image not found"
	case errors.Is(err, services.ErrInvalidUpload):
		return fiber.StatusBadRequest, "The file could not be accepted"
	case errors.Is(err, services.ErrUploadFailed):
		return fiber.StatusInternalServerError, "The image could not be uploaded"
	case errors.Is(err, services.ErrStorageUnavailable), errors.Is(err, services.ErrDeleteFailed):
		return fiber.StatusInternalServerError, "The image could not be deleted"
	default:
		return fiber.StatusInternalServerError, "An error occurred while processing your request"
	}
}
