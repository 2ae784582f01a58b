package models

import (
	"time"
)

// User is owned by the identity subsystem; this service only reads it.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (user *User) ToUserResponse() *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Avatar: user.Avatar,
	}
}

// DisplayName falls back to the id for accounts without a name.
func (user *User) DisplayName() string {
	if user == nil {
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.ID
}
