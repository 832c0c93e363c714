package controller

import (
	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/pkg/serverutils"
	"context-retriever-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRetrieverController interface {
	RegisterRoutes(r fiber.Router)
	Retrieve(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
}

type retrieverController struct {
	retrieverService service.IRetrieverService
	jwtSecret        string
	defaultUserID    string
}

func NewRetrieverController(retrieverService service.IRetrieverService, jwtSecret, defaultUserID string) IRetrieverController {
	return &retrieverController{
		retrieverService: retrieverService,
		jwtSecret:        jwtSecret,
		defaultUserID:    defaultUserID,
	}
}

func (c *retrieverController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/retriever/v1")
	h.Use(serverutils.OptionalJwtMiddleware(c.jwtSecret))
	h.Post("retrieve", c.Retrieve)
	h.Get("history/:userId", c.History)
	h.Delete("session/:userId", c.ClearSession)
}

func (c *retrieverController) Retrieve(ctx *fiber.Ctx) error {
	var req dto.RetrieveRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userID := serverutils.ResolveUserID(ctx, req.UserId, c.defaultUserID)
	res, err := c.retrieverService.Retrieve(ctx.UserContext(), userID, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success retrieve documents", res))
}

// userParam rejects access to another user's session when the caller is
// identified by token.
func (c *retrieverController) userParam(ctx *fiber.Ctx) (string, error) {
	userID := ctx.Params("userId")
	if claimed, ok := ctx.Locals(serverutils.UserIDLocal).(string); ok && claimed != "" && claimed != userID {
		return "", fiber.NewError(fiber.StatusForbidden, "Cannot access another user's session")
	}
	return userID, nil
}

func (c *retrieverController) History(ctx *fiber.Ctx) error {
	userID, err := c.userParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.retrieverService.History(ctx.UserContext(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *retrieverController) ClearSession(ctx *fiber.Ctx) error {
	userID, err := c.userParam(ctx)
	if err != nil {
		return err
	}

	if err := c.retrieverService.ClearSession(ctx.UserContext(), userID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear session", nil))
}
