// Package views turns persisted conversations and messages into the shapes
// the client lists render. Everything here is pure: no I/O, no clock reads.
package views

import (
	"fmt"
	"sort"
	"time"

	"marketChat/internal/models"
)

const (
	NoParticipants = "No participants"
	NoMessagesYet  = "No messages yet"
)

type MessageView struct {
	ID             string               `json:"id"`
	ConversationID string               `json:"conversation_id"`
	Content        string               `json:"content"`
	CreatedAt      time.Time            `json:"created_at"`
	CreatedAtLabel string               `json:"created_at_label"`
	IsMine         bool                 `json:"is_mine"`
	Sender         *models.UserResponse `json:"sender"`
}

type ConversationView struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Avatar         *string                `json:"avatar"`
	LastMessage    string                 `json:"last_message"`
	LastMessageAt  string                 `json:"last_message_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	UpdatedAtLabel string                 `json:"updated_at_label"`
	Members        []*models.UserResponse `json:"members"`
	Messages       []MessageView          `json:"messages"`
}

type ConversationList struct {
	Conversations []ConversationView `json:"conversations"`
	Page          int                `json:"page"`
	Size          int                `json:"size"`
	Total         int64              `json:"total"`
}

type MessageList struct {
	Messages []MessageView `json:"messages"`
	Page     int           `json:"page"`
	Size     int           `json:"size"`
	Total    int64         `json:"total"`
}

func otherMembers(members []models.ConversationMember, viewerID string) []models.ConversationMember {
	others := make([]models.ConversationMember, 0, len(members))
	for _, member := range members {
		if member.UserID != viewerID {
			others = append(others, member)
		}
	}
	return others
}

func memberName(member models.ConversationMember) string {
	if member.User != nil {
		return member.User.DisplayName()
	}
	return member.UserID
}

// ConversationName names a conversation from the viewer's side.
func ConversationName(members []models.ConversationMember, viewerID string) string {
	others := otherMembers(members, viewerID)
	switch len(others) {
	case 0:
		return NoParticipants
	case 1:
		return memberName(others[0])
	default:
		return fmt.Sprintf("%s + %d others", memberName(others[0]), len(others)-1)
	}
}

// LastMessagePreview expects recent messages newest first.
func LastMessagePreview(recent []models.Message) string {
	if len(recent) == 0 {
		return NoMessagesYet
	}
	return recent[0].Content
}

func MapMessage(message models.Message, viewerID string, now time.Time) MessageView {
	response := message.ToMessageResponse()
	return MessageView{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
		CreatedAtLabel: FormatTimestamp(message.CreatedAt, now),
		IsMine:         message.SenderID == viewerID,
		Sender:         response.Sender,
	}
}

// MapMessages returns chat-view order (oldest first) regardless of input order.
func MapMessages(messages []models.Message, viewerID string, now time.Time) []MessageView {
	ordered := make([]models.Message, len(messages))
	copy(ordered, messages)
	SortMessagesForChat(ordered)

	out := make([]MessageView, 0, len(ordered))
	for _, message := range ordered {
		out = append(out, MapMessage(message, viewerID, now))
	}
	return out
}

// SortMessagesForChat orders by created_at ascending, ties by id.
func SortMessagesForChat(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.Before(messages[j].CreatedAt)
		}
		return messages[i].ID < messages[j].ID
	})
}

// MapConversation builds the view of one conversation. recent holds a bounded
// window of its latest messages, newest first.
func MapConversation(conversation models.Conversation, recent []models.Message, viewerID string, now time.Time) ConversationView {
	view := ConversationView{
		ID:             conversation.ID,
		Name:           ConversationName(conversation.Members, viewerID),
		LastMessage:    LastMessagePreview(recent),
		CreatedAt:      conversation.CreatedAt,
		UpdatedAt:      conversation.UpdatedAt,
		UpdatedAtLabel: FormatTimestamp(conversation.UpdatedAt, now),
		Members:        conversation.ToConversationResponse().Members,
		Messages:       MapMessages(recent, viewerID, now),
	}
	if others := otherMembers(conversation.Members, viewerID); len(others) > 0 && others[0].User != nil {
		view.Avatar = others[0].User.Avatar
	}
	if len(recent) > 0 {
		view.LastMessageAt = FormatTimestamp(recent[0].CreatedAt, now)
	}
	return view
}

// MapConversationList maps and orders conversations by updated_at descending.
// recent is keyed by conversation id.
func MapConversationList(conversations []models.Conversation, recent map[string][]models.Message, viewerID string, now time.Time) []ConversationView {
	out := make([]ConversationView, 0, len(conversations))
	for _, conversation := range conversations {
		out = append(out, MapConversation(conversation, recent[conversation.ID], viewerID, now))
	}
	SortConversations(out)
	return out
}

func SortConversations(conversations []ConversationView) {
	sort.SliceStable(conversations, func(i, j int) bool {
		if !conversations[i].UpdatedAt.Equal(conversations[j].UpdatedAt) {
			return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
		}
		return conversations[i].ID > conversations[j].ID
	})
}

// FormatTimestamp renders t relative to now, in now's location.
func FormatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	switch {
	case sameDay(t, now):
		return t.Format("15:04")
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
