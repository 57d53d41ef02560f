package controller

import (
	"io"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	ingestionService service.IIngestionService
}

func NewUploadController(ingestionService service.IIngestionService) IUploadController {
	return &uploadController{
		ingestionService: ingestionService,
	}
}

func (c *uploadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/upload/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Upload)
}

// Upload accepts a multipart form with `file` and `conversationId` fields
// and runs the document through the ingestion pipeline.
func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	userId, err := authenticatedUser(ctx)
	if err != nil {
		return err
	}

	conversationIdStr := ctx.FormValue("conversationId")
	if conversationIdStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing conversationId field")
	}
	conversationId, err := uuid.Parse(conversationIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversationId")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file field")
	}
	if fileHeader.Size > service.MaxUploadSize {
		return fiber.NewError(fiber.StatusBadRequest, "file exceeds the maximum allowed size")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}

	req := &dto.UploadRequest{
		ConversationId: conversationId,
		FileName:       fileHeader.Filename,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		Data:           data,
	}

	res, err := c.ingestionService.Ingest(ctx.Context(), userId, req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
