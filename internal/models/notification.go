package models

import "time"

type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"not null" json:"content"`
	Read      bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationRequest describes one triggering event. ActorID is the user
// who caused it and must differ from RecipientID. ID, when set, becomes the
// notification id so that redelivered requests do not create duplicates.
type NotificationRequest struct {
	ID          string `json:"id,omitempty"`
	RecipientID string `json:"recipient_id"`
	ActorID     string `json:"actor_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
}

type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	Unread        int64          `json:"unread"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	Total         int64          `json:"total"`
}
