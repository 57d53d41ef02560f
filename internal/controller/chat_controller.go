package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/pkg/serverutils"
	"doc-chat-be/internal/service"
	"doc-chat-be/pkg/rag/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateConversation(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Completion(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService   service.IChatService
	rateLimitware fiber.Handler
	log           logger.ILogger
}

func NewChatController(chatService service.IChatService, rateLimitware fiber.Handler, log logger.ILogger) IChatController {
	return &chatController{
		chatService:   chatService,
		rateLimitware: rateLimitware,
		log:           log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("conversation", c.CreateConversation)
	h.Get("conversations", c.ListConversations)
	h.Get(":id/history", c.History)
	h.Post("completion", c.rateLimitware, c.Completion)
}

func (c *chatController) CreateConversation(ctx *fiber.Ctx) error {
	userId, err := authenticatedUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.chatService.CreateConversation(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *chatController) ListConversations(ctx *fiber.Ctx) error {
	userId, err := authenticatedUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatService.GetConversations(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId, err := authenticatedUser(ctx)
	if err != nil {
		return err
	}

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}

	res, err := c.chatService.GetHistory(ctx.Context(), userId, conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

// Completion streams the assistant's answer as server-sent events:
// data: {"content":"<delta>"} lines terminated by data: [DONE].
func (c *chatController) Completion(ctx *fiber.Ctx) error {
	userId, err := authenticatedUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The request context ends with this handler; streaming happens after,
	// so the turn runs on its own context tied to the fasthttp connection.
	streamCtx, cancel := context.WithCancel(context.Background())

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		sink := func(delta string) error {
			payload, err := json.Marshal(fiber.Map{"content": delta})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return err
			}
			// Flush failure means the client went away; the sink error
			// cancels the turn.
			return w.Flush()
		}

		outcome, err := c.chatService.StreamCompletion(streamCtx, userId, &req, sink)
		if err != nil {
			c.log.Error("chat", "completion turn failed before streaming", map[string]interface{}{
				"conversation_id": req.ConversationId.String(),
				"error":           err.Error(),
			})
			c.writeStreamError(w, err.Error())
			return
		}

		switch outcome.State {
		case stream.StateCompleted:
			fmt.Fprint(w, "data: [DONE]\n\n")
			w.Flush()
		case stream.StateFailed:
			c.log.Error("chat", "completion turn failed mid-stream", map[string]interface{}{
				"conversation_id": req.ConversationId.String(),
				"error":           outcome.Err.Error(),
			})
			c.writeStreamError(w, "generation failed")
		case stream.StateCancelled:
			// Client is gone; nothing left to write.
		}
	}))

	return nil
}

func (c *chatController) writeStreamError(w *bufio.Writer, message string) {
	payload, err := json.Marshal(fiber.Map{"error": message})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	w.Flush()
}

// authenticatedUser converts the JWT middleware's user id into a uuid,
// rejecting tokens without a usable subject.
func authenticatedUser(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := serverutils.AuthenticatedUserId(ctx)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Missing authenticated user")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user id in token")
	}
	return userId, nil
}
