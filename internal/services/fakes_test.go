package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"marketChat/internal/errs"
	"marketChat/internal/logger"
	"marketChat/internal/metrics"
	"marketChat/internal/models"
)

// memoryStore is an in-memory ConversationStore, MessageStore and
// UserDirectory. The pair index plays the role of the unique pair_key column.
type memoryStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	conversations map[string]*models.Conversation
	pairs         map[string]string
	messages      []models.Message
	seq           int
	calls         int

	// hiddenFinds makes the next N pair lookups miss, simulating a
	// concurrent creator that committed between our lookup and insert.
	hiddenFinds int
	saveErr     error
}

func newMemoryStore(users ...*models.User) *memoryStore {
	s := &memoryStore{
		users:         map[string]*models.User{},
		conversations: map[string]*models.Conversation{},
		pairs:         map[string]string{},
	}
	for _, user := range users {
		s.users[user.ID] = user
	}
	return s
}

func (s *memoryStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%03d", prefix, s.seq)
}

func (s *memoryStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *memoryStore) GetUserById(_ context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	user, ok := s.users[userID]
	if !ok {
		return nil, errs.NotFound(errs.ErrUserNotFound)
	}
	copied := *user
	return &copied, nil
}

func (s *memoryStore) FindConversationBetweenTwoUsers(_ context.Context, userID1, userID2 string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.hiddenFinds > 0 {
		s.hiddenFinds--
		return "", nil
	}
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		conversation := s.conversations[id]
		if conversation.HasMember(userID1) && conversation.HasMember(userID2) {
			return id, nil
		}
	}
	return "", nil
}

func (s *memoryStore) CreatePairConversation(_ context.Context, initiatorID, receiverID string, now time.Time) (models.CreateResult, *models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	key := models.PairKey(initiatorID, receiverID)
	if _, ok := s.pairs[key]; ok {
		return models.CreateResultAlreadyExists, nil, nil
	}
	conversation := &models.Conversation{
		ID:        s.nextID("c"),
		PairKey:   &key,
		CreatedAt: now,
		UpdatedAt: now,
		Members: []models.ConversationMember{
			{UserID: initiatorID, JoinedAt: now},
			{UserID: receiverID, JoinedAt: now},
		},
	}
	for i := range conversation.Members {
		conversation.Members[i].ConversationID = conversation.ID
	}
	s.conversations[conversation.ID] = conversation
	s.pairs[key] = conversation.ID
	return models.CreateResultCreated, s.hydrate(conversation), nil
}

// addConversation inserts a conversation with an arbitrary member list.
func (s *memoryStore) addConversation(now time.Time, memberIDs ...string) *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation := &models.Conversation{ID: s.nextID("c"), CreatedAt: now, UpdatedAt: now}
	for _, id := range memberIDs {
		conversation.Members = append(conversation.Members, models.ConversationMember{
			ConversationID: conversation.ID,
			UserID:         id,
			JoinedAt:       now,
		})
	}
	if len(memberIDs) == 2 {
		key := models.PairKey(memberIDs[0], memberIDs[1])
		conversation.PairKey = &key
		s.pairs[key] = conversation.ID
	}
	s.conversations[conversation.ID] = conversation
	return s.hydrate(conversation)
}

func (s *memoryStore) hydrate(conversation *models.Conversation) *models.Conversation {
	copied := *conversation
	copied.Members = make([]models.ConversationMember, len(conversation.Members))
	for i, member := range conversation.Members {
		if user, ok := s.users[member.UserID]; ok {
			u := *user
			member.User = &u
		}
		copied.Members[i] = member
	}
	return &copied
}

func (s *memoryStore) GetConversationById(_ context.Context, conversationID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	conversation, ok := s.conversations[conversationID]
	if !ok {
		return nil, errs.NotFound(errs.ErrConversationNotFound)
	}
	return s.hydrate(conversation), nil
}

func (s *memoryStore) GetConversationMembers(ctx context.Context, conversationID string) ([]models.ConversationMember, error) {
	conversation, err := s.GetConversationById(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conversation.Members, nil
}

func (s *memoryStore) GetUserConversations(_ context.Context, userID string, page, size int) (*models.ConversationPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var out []models.Conversation
	for _, conversation := range s.conversations {
		if conversation.HasMember(userID) {
			out = append(out, *s.hydrate(conversation))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	total := int64(len(out))
	start := (page - 1) * size
	if start > len(out) {
		start = len(out)
	}
	end := start + size
	if end > len(out) {
		end = len(out)
	}
	return &models.ConversationPage{Conversations: out[start:end], Total: total}, nil
}

func (s *memoryStore) CheckConversationExists(_ context.Context, conversationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	_, ok := s.conversations[conversationID]
	return ok, nil
}

func (s *memoryStore) CheckUserInConversation(_ context.Context, userID, conversationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	conversation, ok := s.conversations[conversationID]
	return ok && conversation.HasMember(userID), nil
}

func (s *memoryStore) SaveMessage(_ context.Context, message *models.Message, now time.Time) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	conversation, ok := s.conversations[message.ConversationID]
	if !ok {
		return nil, errs.NotFound(errs.ErrConversationNotFound)
	}
	saved := *message
	saved.ID = s.nextID("m")
	saved.CreatedAt = now
	saved.UpdatedAt = now
	if conversation.UpdatedAt.Before(now) {
		conversation.UpdatedAt = now
	}
	s.messages = append(s.messages, saved)
	return s.withSender(saved), nil
}

func (s *memoryStore) withSender(message models.Message) *models.Message {
	if user, ok := s.users[message.SenderID]; ok {
		u := *user
		message.Sender = &u
	}
	return &message
}

func (s *memoryStore) GetMessageById(_ context.Context, messageID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for _, message := range s.messages {
		if message.ID == messageID {
			return s.withSender(message), nil
		}
	}
	return nil, errs.NotFound(errs.ErrMessageNotFound)
}

func (s *memoryStore) GetMessagesByConversationId(_ context.Context, conversationID string, page, size int) (*models.MessagePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var out []models.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ConversationID == conversationID {
			out = append(out, *s.withSender(s.messages[i]))
		}
	}
	total := int64(len(out))
	start := (page - 1) * size
	if start > len(out) {
		start = len(out)
	}
	end := start + size
	if end > len(out) {
		end = len(out)
	}
	return &models.MessagePage{Messages: out[start:end], Total: total}, nil
}

func (s *memoryStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	page, err := s.GetMessagesByConversationId(ctx, conversationID, 1, limit)
	if err != nil {
		return nil, err
	}
	return page.Messages, nil
}

func (s *memoryStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *memoryStore) conversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

type memoryNotifications struct {
	mu            sync.Mutex
	notifications []models.Notification
	createErr     error
}

func (n *memoryNotifications) CreateNotification(_ context.Context, notification *models.Notification) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.createErr != nil {
		return nil, n.createErr
	}
	for _, existing := range n.notifications {
		if notification.ID != "" && existing.ID == notification.ID {
			copied := existing
			return &copied, nil
		}
	}
	if notification.ID == "" {
		notification.ID = fmt.Sprintf("n%03d", len(n.notifications)+1)
	}
	n.notifications = append(n.notifications, *notification)
	return notification, nil
}

func (n *memoryNotifications) MarkRead(_ context.Context, ids []string) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var updated int64
	for i := range n.notifications {
		for _, id := range ids {
			if n.notifications[i].ID == id && !n.notifications[i].Read {
				n.notifications[i].Read = true
				updated++
			}
		}
	}
	return updated, nil
}

func (n *memoryNotifications) GetUserNotifications(_ context.Context, userID string, page, size int) ([]models.Notification, int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for i := len(n.notifications) - 1; i >= 0; i-- {
		if n.notifications[i].UserID == userID {
			out = append(out, n.notifications[i])
		}
	}
	return out, int64(len(out)), nil
}

func (n *memoryNotifications) CountUnread(_ context.Context, userID string) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var count int64
	for _, notification := range n.notifications {
		if notification.UserID == userID && !notification.Read {
			count++
		}
	}
	return count, nil
}

func (n *memoryNotifications) addressedTo(userID string) []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, notification := range n.notifications {
		if notification.UserID == userID {
			out = append(out, notification)
		}
	}
	return out
}

func (n *memoryNotifications) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notifications)
}

// stepClock advances one second per reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store         *memoryStore
	notifications *memoryNotifications
	metrics       *metrics.Metrics
	clock         *stepClock
	guard         *MembershipGuard
	notifier      *NotificationService
	service       *ChatService
}

func newFixture() *fixture {
	store := newMemoryStore(
		&models.User{ID: "u1", Name: "Alice"},
		&models.User{ID: "u2", Name: "Bob"},
		&models.User{ID: "u3", Name: "Carol"},
		&models.User{ID: "u4", Name: "Dave"},
	)
	notifications := &memoryNotifications{}
	clock := &stepClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	m := metrics.New(nil)
	log := logger.Nop()
	guard := NewMembershipGuard(store, log)
	notifier := NewNotificationService(notifications, clock.Now, log)
	service := NewChatService(store, store, store, guard, notifier, m, log, ChatServiceConfig{Now: clock.Now})
	return &fixture{
		store:         store,
		notifications: notifications,
		metrics:       m,
		clock:         clock,
		guard:         guard,
		notifier:      notifier,
		service:       service,
	}
}
