package models

type CreateConversationRequestBody struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
}
