package model

import "github.com/google/uuid"

// DefaultChatGroup is used when a message does not name a group.
const DefaultChatGroup = "general"

type Message struct {
	BaseModel
	GroupName           string     `gorm:"type:varchar(100);not null;index;default:'general'" json:"group_name"`
	SenderUserID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_user_id"`
	Sender              *User      `gorm:"foreignKey:SenderUserID" json:"sender,omitempty"`
	Content             string     `gorm:"type:text;not null" json:"content"`
	MessageType         string     `gorm:"type:varchar(20);default:'text'" json:"message_type"`
	FileURL             string     `gorm:"type:varchar(500)" json:"file_url,omitempty"`
	FarmerBeneficiaryID *string    `gorm:"type:varchar(50)" json:"farmer_beneficiary_id,omitempty"`
	TaskID              *uuid.UUID `gorm:"type:uuid" json:"task_id,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}
