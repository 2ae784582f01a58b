package models

import "time"

type ConversationResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Members   []*UserResponse `json:"members"`
}
