package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"farmer-admin/internal/model"
	"farmer-admin/internal/repository"
)

const maxChatHistory = 200

type SendMessageRequest struct {
	GroupName           string     `json:"group_name" validate:"omitempty,max=100"`
	Content             string     `json:"content" validate:"required"`
	MessageType         string     `json:"message_type" validate:"omitempty,oneof=text image file"`
	FileURL             string     `json:"file_url" validate:"omitempty,max=500"`
	FarmerBeneficiaryID *string    `json:"farmer_beneficiary_id" validate:"omitempty,max=50"`
	TaskID              *uuid.UUID `json:"task_id"`
}

type ChatService interface {
	Send(ctx context.Context, req *SendMessageRequest, actor Actor) (*model.Message, error)
	History(ctx context.Context, group string, limit int) ([]model.Message, error)
}

type chatService struct {
	messageRepo repository.MessageRepository
	events      EventPublisher
}

func NewChatService(messageRepo repository.MessageRepository, events EventPublisher) ChatService {
	return &chatService{messageRepo: messageRepo, events: events}
}

func (s *chatService) Send(ctx context.Context, req *SendMessageRequest, actor Actor) (*model.Message, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := validate(req); err != nil {
		return nil, err
	}

	msg := &model.Message{
		GroupName:           groupOrDefault(req.GroupName),
		SenderUserID:        actor.ID,
		Content:             req.Content,
		MessageType:         req.MessageType,
		FileURL:             req.FileURL,
		FarmerBeneficiaryID: req.FarmerBeneficiaryID,
		TaskID:              req.TaskID,
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}
	msg.CreatedBy = actor.Ref()
	msg.UpdatedBy = actor.Ref()

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	publish(s.events, EventChatMessage, map[string]interface{}{
		"id":           msg.ID,
		"group_name":   msg.GroupName,
		"content":      msg.Content,
		"message_type": msg.MessageType,
		"created_at":   msg.CreatedAt,
		"user":         actor.eventUser(),
	})
	return msg, nil
}

func (s *chatService) History(ctx context.Context, group string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > maxChatHistory {
		limit = 50
	}
	return s.messageRepo.Latest(ctx, groupOrDefault(group), limit)
}

func groupOrDefault(group string) string {
	group = strings.TrimSpace(group)
	if group == "" {
		return model.DefaultChatGroup
	}
	return group
}
