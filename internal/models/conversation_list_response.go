package models

type ConversationPage struct {
	Conversations []Conversation
	Total         int64
}
