package controller

import (
	"errors"
	"io"
	"strconv"

	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/pkg/serverutils"
	"context-retriever-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxUploadBytes = 10 * 1024 * 1024

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
}

type documentController struct {
	ingestionService service.IIngestionService
	documentService  service.IDocumentService
	jwtSecret        string
}

func NewDocumentController(ingestionService service.IIngestionService, documentService service.IDocumentService, jwtSecret string) IDocumentController {
	return &documentController{
		ingestionService: ingestionService,
		documentService:  documentService,
		jwtSecret:        jwtSecret,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents/v1")
	h.Use(serverutils.OptionalJwtMiddleware(c.jwtSecret))
	h.Post("upload", c.Upload)
	h.Get("stats", c.Stats)
	h.Get("search", c.Search)
	h.Get("", c.List)
	h.Get(":id", c.Show)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing multipart field 'file'")
	}
	if fileHeader.Size > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "File too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.ingestionService.Upload(ctx.UserContext(), fileHeader.Filename, content)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}

func (c *documentController) Stats(ctx *fiber.Ctx) error {
	res, err := c.documentService.Stats(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document stats", res))
}

func (c *documentController) Search(ctx *fiber.Ctx) error {
	var req dto.DocumentSearchRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Search(ctx.UserContext(), req.Query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search documents", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	var req dto.ListDocumentsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}

	res, err := c.documentService.Show(ctx.UserContext(), id)
	if errors.Is(err, service.ErrDocumentNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}
