package models

import (
	"time"
)

type Message struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       string    `gorm:"type:varchar(36);not null" json:"sender_id"`
	Content        string    `gorm:"not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	// Sender is joined at read time, never written through.
	Sender *User `gorm:"foreignKey:SenderID;references:ID" json:"-"`
}

func (message *Message) ToMessageResponse() *MessageResponse {
	return &MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
		UpdatedAt:      message.UpdatedAt,
		Sender:         senderView(message),
	}
}

func senderView(message *Message) *UserResponse {
	if message.Sender != nil {
		return message.Sender.ToUserResponse()
	}
	return &UserResponse{ID: message.SenderID}
}
