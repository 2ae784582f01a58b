package repositories

import (
	"context"
	"errors"
	"time"

	"marketChat/internal/errs"
	"marketChat/internal/models"
	"marketChat/internal/utils"

	"gorm.io/gorm"
)

type ChatRepository struct {
	base
}

func NewChatRepository(db *gorm.DB, timeout time.Duration) *ChatRepository {
	return &ChatRepository{base: newBase(db, timeout)}
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("joined_at ASC, user_id ASC")
}

// CreatePairConversation inserts a conversation and both member rows in one
// transaction. A unique violation on the pair key means another request
// created the conversation first; it is reported as CreateResultAlreadyExists
// with no error.
func (chr *ChatRepository) CreatePairConversation(ctx context.Context, initiatorID, receiverID string, now time.Time) (models.CreateResult, *models.Conversation, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	pairKey := models.PairKey(initiatorID, receiverID)
	conversation := models.Conversation{
		ID:        utils.NewID(),
		PairKey:   &pairKey,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Messages").Create(&conversation).Error; err != nil {
			// return any error will rollback
			return err
		}

		for _, userID := range []string{initiatorID, receiverID} {
			member := models.ConversationMember{
				ConversationID: conversation.ID,
				UserID:         userID,
				JoinedAt:       now,
			}
			if err := tx.Omit("User").Create(&member).Error; err != nil {
				return err
			}
		}

		// return nil will commit the whole transaction
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.CreateResultAlreadyExists, nil, nil
		}
		return 0, nil, errs.Persistence("create conversation", err)
	}

	created, err := chr.GetConversationById(ctx, conversation.ID)
	if err != nil {
		return 0, nil, err
	}
	return models.CreateResultCreated, created, nil
}

// FindConversationBetweenTwoUsers returns the id of a conversation whose
// members include both users, or "" when there is none.
func (chr *ChatRepository) FindConversationBetweenTwoUsers(ctx context.Context, userID1, userID2 string) (string, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var ids []string
	err := db.Table("conversation_members AS cm1").
		Joins("INNER JOIN conversation_members AS cm2 ON cm1.conversation_id = cm2.conversation_id").
		Where("cm1.user_id = ? AND cm2.user_id = ?", userID1, userID2).
		Order("cm1.conversation_id ASC").
		Limit(1).
		Pluck("cm1.conversation_id", &ids).Error
	if err != nil {
		return "", errs.Persistence("find conversation between users", err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

func (chr *ChatRepository) GetConversationById(ctx context.Context, conversationID string) (*models.Conversation, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var conversation models.Conversation
	err := db.
		Preload("Members", orderedMembers).
		Preload("Members.User").
		Where("id = ?", conversationID).
		First(&conversation).Error
	if err != nil {
		return nil, storageError("get conversation", err, errs.ErrConversationNotFound)
	}
	return &conversation, nil
}

func (chr *ChatRepository) CheckConversationExists(ctx context.Context, conversationID string) (bool, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.Conversation{}).Where("id = ?", conversationID).Count(&count).Error; err != nil {
		return false, errs.Persistence("check conversation exists", err)
	}
	return count > 0, nil
}

func (chr *ChatRepository) CheckUserInConversation(ctx context.Context, userID, conversationID string) (bool, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.ConversationMember{}).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Count(&count).Error
	if err != nil {
		return false, errs.Persistence("check conversation membership", err)
	}
	return count > 0, nil
}

// GetConversationMembers returns members in join order. A conversation that
// does not exist yields a not-found error rather than an empty list.
func (chr *ChatRepository) GetConversationMembers(ctx context.Context, conversationID string) ([]models.ConversationMember, error) {
	conversation, err := chr.GetConversationById(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conversation.Members, nil
}

// SaveMessage inserts the message and moves the conversation's updated_at
// forward to the message time in the same transaction. updated_at never moves
// backwards, so a send that commits late keeps updated_at >= every created_at.
func (chr *ChatRepository) SaveMessage(ctx context.Context, message *models.Message, now time.Time) (*models.Message, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	if message.ID == "" {
		message.ID = utils.NewID()
	}
	message.CreatedAt = now
	message.UpdatedAt = now

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Sender").Create(message).Error; err != nil {
			return err
		}
		result := tx.Model(&models.Conversation{}).
			Where("id = ? AND updated_at < ?", message.ConversationID, now).
			UpdateColumn("updated_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		// no row moved: either already newer or missing
		var count int64
		if err := tx.Model(&models.Conversation{}).Where("id = ?", message.ConversationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NotFound(errs.ErrConversationNotFound)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, errs.NotFound(errs.ErrConversationNotFound)
		}
		return nil, storageError("save message", err, nil)
	}

	return chr.GetMessageById(ctx, message.ID)
}

func (chr *ChatRepository) GetMessageById(ctx context.Context, messageID string) (*models.Message, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var message models.Message
	if err := db.Preload("Sender").Where("id = ?", messageID).First(&message).Error; err != nil {
		return nil, storageError("get message", err, errs.ErrMessageNotFound)
	}
	return &message, nil
}

// GetMessagesByConversationId pages through history newest first.
func (chr *ChatRepository) GetMessagesByConversationId(ctx context.Context, conversationID string, page, size int) (*models.MessagePage, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var messages []models.Message
	var total int64

	transactionErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Scopes(utils.Paginate(page, size)).
			Preload("Sender").
			Where("conversation_id = ?", conversationID).
			Order("created_at DESC, id DESC").
			Find(&messages).Error; err != nil {
			return err
		}

		return tx.
			Model(&models.Message{}).
			Where("conversation_id = ?", conversationID).
			Count(&total).Error
	})
	if transactionErr != nil {
		return nil, errs.Persistence("list messages", transactionErr)
	}

	return &models.MessagePage{Messages: messages, Total: total}, nil
}

// GetRecentMessages returns at most limit messages, newest first.
func (chr *ChatRepository) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	page, err := chr.GetMessagesByConversationId(ctx, conversationID, 1, limit)
	if err != nil {
		return nil, err
	}
	return page.Messages, nil
}

// GetUserConversations lists the user's conversations by recent activity.
func (chr *ChatRepository) GetUserConversations(ctx context.Context, userID string, page, size int) (*models.ConversationPage, error) {
	db, cancel := chr.session(ctx)
	defer cancel()

	var conversations []models.Conversation
	var total int64

	transactionErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Scopes(utils.Paginate(page, size)).
			Preload("Members", orderedMembers).
			Preload("Members.User").
			Where("id IN (SELECT conversation_id FROM conversation_members WHERE user_id = ?)", userID).
			Order("updated_at DESC, id DESC").
			Find(&conversations).Error; err != nil {
			return err
		}

		return tx.
			Model(&models.Conversation{}).
			Where("id IN (SELECT conversation_id FROM conversation_members WHERE user_id = ?)", userID).
			Count(&total).Error
	})
	if transactionErr != nil {
		return nil, errs.Persistence("list conversations", transactionErr)
	}

	return &models.ConversationPage{Conversations: conversations, Total: total}, nil
}
