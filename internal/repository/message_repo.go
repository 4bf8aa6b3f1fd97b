package repository

import (
	"context"

	"farmer-admin/internal/model"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// Latest returns up to limit messages of a group, newest first.
	Latest(ctx context.Context, group string, limit int) ([]model.Message, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Omit("Sender").Create(msg).Error; err != nil {
		return translateError(err)
	}
	return translateError(r.db.WithContext(ctx).Preload("Sender").First(msg, "id = ?", msg.ID).Error)
}

func (r *messageRepo) Latest(ctx context.Context, group string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("group_name = ?", group).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, translateError(err)
}
