package handler

import (
	"farmer-admin/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	service service.ChatService
	log     *zap.Logger
}

func NewChatHandler(s service.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{service: s, log: log}
}

// GetMessages returns the latest messages of a group, newest first
// GET /api/chat/messages?group=general&limit=50
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	messages, err := h.service.History(c.UserContext(), c.Query("group"), c.QueryInt("limit", 50))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(messages)
}

// SendMessage stores a message and pushes it to websocket clients
// POST /api/chat/messages
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req service.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	msg, err := h.service.Send(c.UserContext(), &req, currentActor(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
