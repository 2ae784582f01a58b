package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketChat/internal/enums"
	"marketChat/internal/errs"
	"marketChat/internal/metrics"
	"marketChat/internal/models"
	"marketChat/internal/utils"
	"marketChat/internal/validators"
	"marketChat/internal/views"

	"go.uber.org/zap"
)

// maxCreateAttempts bounds the find/create loop when concurrent requests
// race to create the same pair conversation.
const maxCreateAttempts = 3

const DefaultRecentWindow = 20

type ChatServiceConfig struct {
	RecentWindow     int
	MaxMessageLength int
	Now              func() time.Time
}

type ChatService struct {
	conversations ConversationStore
	messages      MessageStore
	users         UserDirectory
	guard         *MembershipGuard
	dispatcher    Dispatcher
	metrics       *metrics.Metrics
	log           *zap.SugaredLogger

	now              func() time.Time
	recentWindow     int
	maxMessageLength int
}

func NewChatService(
	conversations ConversationStore,
	messages MessageStore,
	users UserDirectory,
	guard *MembershipGuard,
	dispatcher Dispatcher,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
	config ChatServiceConfig,
) *ChatService {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.RecentWindow < 1 {
		config.RecentWindow = DefaultRecentWindow
	}
	if config.MaxMessageLength == 0 {
		config.MaxMessageLength = validators.DefaultMaxMessageLength
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &ChatService{
		conversations:    conversations,
		messages:         messages,
		users:            users,
		guard:            guard,
		dispatcher:       dispatcher,
		metrics:          m,
		log:              log,
		now:              config.Now,
		recentWindow:     config.RecentWindow,
		maxMessageLength: config.MaxMessageLength,
	}
}

// FindOrCreateConversation returns the conversation shared by the two users,
// creating it (and notifying the receiver) when none exists. Repeated calls,
// in either argument order, return the same conversation and notify nobody.
func (cs *ChatService) FindOrCreateConversation(ctx context.Context, initiatorID, receiverID string) (*models.Conversation, error) {
	initiatorID = strings.TrimSpace(initiatorID)
	receiverID = strings.TrimSpace(receiverID)
	if err := validators.ValidateConversationParticipants(initiatorID, receiverID); err != nil {
		return nil, err
	}

	initiator, err := cs.resolveParticipant(ctx, initiatorID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			// the caller holds a token for an account that does not exist
			return nil, errs.Wrap(errs.ErrUnauthorized, err)
		}
		return nil, err
	}
	receiver, err := cs.resolveParticipant(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		existingID, err := cs.conversations.FindConversationBetweenTwoUsers(ctx, initiator.ID, receiver.ID)
		if err != nil {
			return nil, err
		}
		if existingID != "" {
			cs.metrics.ConversationDedupHits.Inc()
			return cs.conversations.GetConversationById(ctx, existingID)
		}

		result, conversation, err := cs.conversations.CreatePairConversation(ctx, initiator.ID, receiver.ID, cs.now())
		if err != nil {
			return nil, err
		}
		if result == models.CreateResultCreated {
			cs.metrics.ConversationsCreated.Inc()
			cs.log.Infow("Conversation created", "conversation_id", conversation.ID, "initiator_id", initiator.ID, "receiver_id", receiver.ID)
			cs.notify(ctx, models.NotificationRequest{
				RecipientID: receiver.ID,
				ActorID:     initiator.ID,
				Title:       enums.NOTIFICATION_TITLE_NEW_CONVERSATION,
				Content:     fmt.Sprintf("%s started a conversation with you", initiator.DisplayName()),
			})
			return conversation, nil
		}

		cs.log.Infow("Conversation already created concurrently, retrying lookup",
			"initiator_id", initiator.ID, "receiver_id", receiver.ID, "attempt", attempt)
	}

	return nil, errs.Persistence("find or create conversation", errs.ErrConversationConflict)
}

// resolveParticipant turns an unknown account into a validation error.
func (cs *ChatService) resolveParticipant(ctx context.Context, userID string) (*models.User, error) {
	user, err := cs.users.GetUserById(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Validation(fmt.Errorf("%w: %s", errs.ErrUserNotFound, userID))
		}
		return nil, err
	}
	return user, nil
}

// SendMessage stores content from senderID in the conversation, moves the
// conversation's recency timestamp, and notifies the other member.
func (cs *ChatService) SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error) {
	if err := validators.ValidateMessageContent(content, cs.maxMessageLength); err != nil {
		return nil, err
	}
	if err := cs.guard.Authorize(ctx, conversationID, senderID, errs.ErrNotConversationMember); err != nil {
		return nil, err
	}

	members, err := cs.conversations.GetConversationMembers(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	recipient := selectRecipient(members, senderID)
	if recipient == nil {
		return nil, errs.NotFound(errs.ErrRecipientNotFound)
	}
	if len(members) > 2 {
		cs.log.Warnw("Conversation has more than two members, notifying the first other member only",
			"conversation_id", conversationID, "members", len(members), "recipient_id", recipient.UserID)
	}

	saved, err := cs.messages.SaveMessage(ctx, &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}, cs.now())
	if err != nil {
		return nil, err
	}
	cs.metrics.MessagesSent.Inc()

	if recipient.UserID != senderID {
		cs.notify(ctx, models.NotificationRequest{
			RecipientID: recipient.UserID,
			ActorID:     senderID,
			Title:       enums.NOTIFICATION_TITLE_NEW_MESSAGE,
			Content:     fmt.Sprintf("You have a new message from %s", cs.senderName(ctx, saved)),
		})
	}
	return saved, nil
}

// selectRecipient picks the first member, in join order, who is not the sender.
func selectRecipient(members []models.ConversationMember, senderID string) *models.ConversationMember {
	for i := range members {
		if members[i].UserID != senderID {
			return &members[i]
		}
	}
	return nil
}

func (cs *ChatService) senderName(ctx context.Context, message *models.Message) string {
	if message.Sender != nil {
		return message.Sender.DisplayName()
	}
	user, err := cs.users.GetUserById(ctx, message.SenderID)
	if err != nil {
		return message.SenderID
	}
	return user.DisplayName()
}

// notify is best effort: failures are logged and counted but never returned,
// and the dispatch outlives a caller that disconnects after the commit.
func (cs *ChatService) notify(ctx context.Context, request models.NotificationRequest) {
	if request.RecipientID == request.ActorID {
		return
	}
	if request.ID == "" {
		request.ID = utils.NewID()
	}

	if err := cs.dispatcher.Dispatch(context.WithoutCancel(ctx), request); err != nil {
		cs.metrics.NotificationDispatchFail.WithLabelValues(request.Title).Inc()
		cs.log.Errorw("Notification dispatch failed",
			"recipient_id", request.RecipientID,
			"title", request.Title,
			"error", errs.NotificationDispatch(err),
		)
		return
	}
	cs.metrics.NotificationsDispatched.WithLabelValues(request.Title).Inc()
}

// GetMessage returns a message visible to viewerID. Messages in conversations
// the viewer does not belong to are reported as not found.
func (cs *ChatService) GetMessage(ctx context.Context, messageID, viewerID string) (*models.Message, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, errs.Validation(errs.ErrInvalidParams)
	}
	message, err := cs.messages.GetMessageById(ctx, messageID)
	if err != nil {
		return nil, err
	}
	ok, err := cs.conversations.CheckUserInConversation(ctx, viewerID, message.ConversationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound(errs.ErrMessageNotFound)
	}
	return message, nil
}

func (cs *ChatService) GetConversation(ctx context.Context, conversationID, viewerID string) (*views.ConversationView, error) {
	if err := cs.guard.Authorize(ctx, conversationID, viewerID, errs.ErrNotAllowedToRead); err != nil {
		return nil, err
	}
	conversation, err := cs.conversations.GetConversationById(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	recent, err := cs.messages.GetRecentMessages(ctx, conversationID, cs.recentWindow)
	if err != nil {
		return nil, err
	}
	view := views.MapConversation(*conversation, recent, viewerID, cs.now())
	return &view, nil
}

// ListMessages returns one page of history; page 1 holds the newest messages,
// each page ordered oldest first for display.
func (cs *ChatService) ListMessages(ctx context.Context, conversationID, viewerID string, page, size int) (*views.MessageList, error) {
	if err := cs.guard.Authorize(ctx, conversationID, viewerID, errs.ErrNotAllowedToRead); err != nil {
		return nil, err
	}
	page, size = utils.NormalizePage(page, size)

	messages, err := cs.messages.GetMessagesByConversationId(ctx, conversationID, page, size)
	if err != nil {
		return nil, err
	}
	return &views.MessageList{
		Messages: views.MapMessages(messages.Messages, viewerID, cs.now()),
		Page:     page,
		Size:     size,
		Total:    messages.Total,
	}, nil
}

func (cs *ChatService) ListUserConversations(ctx context.Context, userID string, page, size int) (*views.ConversationList, error) {
	if userID == "" {
		return nil, errs.Validation(errs.ErrMissingUserID)
	}
	page, size = utils.NormalizePage(page, size)

	conversations, err := cs.conversations.GetUserConversations(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}

	recent := make(map[string][]models.Message, len(conversations.Conversations))
	for _, conversation := range conversations.Conversations {
		lastMessages, err := cs.messages.GetRecentMessages(ctx, conversation.ID, 1)
		if err != nil {
			return nil, err
		}
		recent[conversation.ID] = lastMessages
	}

	return &views.ConversationList{
		Conversations: views.MapConversationList(conversations.Conversations, recent, userID, cs.now()),
		Page:          page,
		Size:          size,
		Total:         conversations.Total,
	}, nil
}
