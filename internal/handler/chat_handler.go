package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"context-retriever-be/internal/constant"
	"context-retriever-be/internal/dto"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/internal/pkg/serverutils"
	"context-retriever-be/internal/service"
	internalWS "context-retriever-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ChatHandler serves the chat websocket. Each connection is bound to one user;
// a query frame is answered with a "thinking" frame and later a "result" frame
// that is fanned out to all of the user's connections.
type ChatHandler struct {
	service       service.IRetrieverService
	hub           *internalWS.Hub
	jwtSecret     string
	defaultUserID string
	logger        logger.ILogger
}

func NewChatHandler(svc service.IRetrieverService, hub *internalWS.Hub, jwtSecret, defaultUserID string, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		service:       svc,
		hub:           hub,
		jwtSecret:     jwtSecret,
		defaultUserID: defaultUserID,
		logger:        log,
	}
}

func (h *ChatHandler) RegisterRoutes(app fiber.Router) {
	app.Use("/ws", h.upgrade)
	app.Get("/ws/chat", websocket.New(h.serve))
}

// upgrade resolves the caller before the handshake so serve never sees an
// unauthenticated token.
func (h *ChatHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := c.Query("user_id")
	if tokenStr := serverutils.BearerToken(c); tokenStr != "" && h.jwtSecret != "" {
		claimed, err := serverutils.ParseUserID(tokenStr, h.jwtSecret)
		if err != nil {
			h.logger.Warn("ChatHandler", "Invalid token in WS handshake", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token", nil))
		}
		userID = claimed
	}
	if userID == "" {
		userID = h.defaultUserID
	}

	c.Locals(serverutils.UserIDLocal, userID)
	return c.Next()
}

func (h *ChatHandler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(serverutils.UserIDLocal).(string)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := internalWS.NewClient(h.hub, conn, userID, func(c *internalWS.Client, data []byte) {
		h.handleFrame(ctx, c, data)
	})
	h.logger.Info("ChatHandler", "Chat connection opened", map[string]interface{}{
		"user_id": userID,
		"conn_id": client.ConnID.String(),
	})
	client.Serve()
}

func parseInbound(data []byte) dto.ChatInbound {
	var in dto.ChatInbound
	if err := json.Unmarshal(data, &in); err != nil || in.Type == "" {
		return dto.ChatInbound{Type: "query", Query: string(data)}
	}
	return in
}

func (h *ChatHandler) handleFrame(ctx context.Context, c *internalWS.Client, data []byte) {
	in := parseInbound(data)

	switch in.Type {
	case "clear":
		if err := h.service.ClearSession(ctx, c.UserID); err != nil {
			c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameError, Message: err.Error()})
			return
		}
		c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameCleared, Message: "Conversation history cleared."})

	case "history":
		res, err := h.service.History(ctx, c.UserID)
		if err != nil {
			c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameError, Message: err.Error()})
			return
		}
		c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameHistory, Data: res})

	case "query":
		query := strings.TrimSpace(in.Query)
		if query == "" {
			c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameError, Message: "Please send a question."})
			return
		}
		c.PushFrame(dto.ChatOutbound{
			Type:    constant.ChatFrameThinking,
			Message: fmt.Sprintf("Thinking about your question: %s...", query),
		})

		// The ordering slot is reserved here, on the read goroutine, so turns
		// are recorded in the order the user sent them.
		results := h.service.RetrieveAsync(ctx, c.UserID, query)
		go func() {
			out := <-results
			if out.Err != nil {
				c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameError, Message: out.Err.Error()})
				return
			}
			h.service.Announce(c.UserID, uuid.New(), out.Result)
		}()

	default:
		c.PushFrame(dto.ChatOutbound{Type: constant.ChatFrameError, Message: "Unknown frame type: " + in.Type})
	}
}
