package models

// UserResponse is the sender / member projection embedded in responses.
type UserResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}
