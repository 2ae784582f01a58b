package services

import (
	"context"
	"time"

	"marketChat/internal/models"
)

type ConversationStore interface {
	FindConversationBetweenTwoUsers(ctx context.Context, userID1, userID2 string) (string, error)
	CreatePairConversation(ctx context.Context, initiatorID, receiverID string, now time.Time) (models.CreateResult, *models.Conversation, error)
	GetConversationById(ctx context.Context, conversationID string) (*models.Conversation, error)
	GetConversationMembers(ctx context.Context, conversationID string) ([]models.ConversationMember, error)
	GetUserConversations(ctx context.Context, userID string, page, size int) (*models.ConversationPage, error)
	MembershipStore
}

type MembershipStore interface {
	CheckConversationExists(ctx context.Context, conversationID string) (bool, error)
	CheckUserInConversation(ctx context.Context, userID, conversationID string) (bool, error)
}

type MessageStore interface {
	SaveMessage(ctx context.Context, message *models.Message, now time.Time) (*models.Message, error)
	GetMessageById(ctx context.Context, messageID string) (*models.Message, error)
	GetMessagesByConversationId(ctx context.Context, conversationID string, page, size int) (*models.MessagePage, error)
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	MarkRead(ctx context.Context, ids []string) (int64, error)
	GetUserNotifications(ctx context.Context, userID string, page, size int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// UserDirectory resolves identities owned by the account subsystem.
type UserDirectory interface {
	GetUserById(ctx context.Context, userID string) (*models.User, error)
}

// Dispatcher delivers a notification request, inline or through a queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, request models.NotificationRequest) error
}
