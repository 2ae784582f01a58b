package models

import (
	"time"
)

// ConversationMember represents the mapping of users to conversations
type ConversationMember struct {
	ConversationID string    `gorm:"primaryKey;type:varchar(36)" json:"conversation_id"`
	UserID         string    `gorm:"primaryKey;type:varchar(36);index" json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
	User           *User     `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}
