package models

import "time"

type MessageResponse struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Content        string        `json:"content"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Sender         *UserResponse `json:"sender"`
}
