package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"marketChat/internal/enums"
	"marketChat/internal/errs"
	"marketChat/internal/models"
	"marketChat/internal/views"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateConversationCreatesOnceAndNotifiesReceiver(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	conversation, err := f.service.FindOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, conversation.MemberIDs())

	toReceiver := f.notifications.addressedTo("u2")
	require.Len(t, toReceiver, 1)
	assert.Equal(t, enums.NOTIFICATION_TITLE_NEW_CONVERSATION, toReceiver[0].Title)
	assert.Equal(t, "Alice started a conversation with you", toReceiver[0].Content)
	assert.Empty(t, f.notifications.addressedTo("u1"))

	again, err := f.service.FindOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, conversation.ID, again.ID)
	assert.Equal(t, 1, f.notifications.count())
	assert.Equal(t, 1, f.store.conversationCount())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ConversationsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ConversationDedupHits))
}

func TestFindOrCreateConversationIsSymmetric(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	forward, err := f.service.FindOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	reverse, err := f.service.FindOrCreateConversation(ctx, "u2", "u1")
	require.NoError(t, err)

	assert.Equal(t, forward.ID, reverse.ID)
	assert.Equal(t, 1, f.notifications.count())
}

func TestFindOrCreateConversationRejectsInvalidParticipants(t *testing.T) {
	tests := []struct {
		name         string
		initiatorID  string
		receiverID   string
		want         error
		unauthorized bool
	}{
		{name: "self", initiatorID: "u1", receiverID: "u1", want: errs.ErrSelfConversation},
		{name: "missing receiver", initiatorID: "u1", receiverID: " ", want: errs.ErrMissingUserID},
		{name: "unknown receiver", initiatorID: "u1", receiverID: "ghost", want: errs.ErrUserNotFound},
		{name: "unknown initiator", initiatorID: "ghost", receiverID: "u2", want: errs.ErrUserNotFound, unauthorized: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.service.FindOrCreateConversation(context.Background(), tt.initiatorID, tt.receiverID)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrValidation)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.unauthorized, errors.Is(err, errs.ErrUnauthorized))
			assert.Zero(t, f.store.conversationCount())
			assert.Zero(t, f.notifications.count())
		})
	}
}

func TestFindOrCreateConversationFallsBackToLookupAfterLostRace(t *testing.T) {
	f := newFixture()
	existing := f.store.addConversation(f.clock.Now(), "u1", "u2")
	f.store.hiddenFinds = 1

	conversation, err := f.service.FindOrCreateConversation(context.Background(), "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conversation.ID)
	assert.Equal(t, 1, f.store.conversationCount())
	assert.Zero(t, f.notifications.count(), "losing the race must not notify")
}

func TestFindOrCreateConversationGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture()
	f.store.addConversation(f.clock.Now(), "u1", "u2")
	f.store.hiddenFinds = maxCreateAttempts

	_, err := f.service.FindOrCreateConversation(context.Background(), "u1", "u2")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPersistence)
	assert.ErrorIs(t, err, errs.ErrConversationConflict)
}

func TestFindOrCreateConversationConcurrentCallersShareOneConversation(t *testing.T) {
	f := newFixture()
	const callers = 16

	ids := make([]string, callers)
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			initiator, receiver := "u1", "u2"
			if i%2 == 1 {
				initiator, receiver = receiver, initiator
			}
			conversation, err := f.service.FindOrCreateConversation(context.Background(), initiator, receiver)
			results[i] = err
			if err == nil {
				ids[i] = conversation.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, results[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, f.store.conversationCount())
	assert.Equal(t, 1, f.notifications.count())
}

func TestSendMessagePersistsBumpsRecencyAndNotifiesRecipient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conversation, err := f.service.FindOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)

	message, err := f.service.SendMessage(ctx, conversation.ID, "u1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", message.Content)
	assert.Equal(t, "u1", message.SenderID)
	require.NotNil(t, message.Sender)
	assert.Equal(t, "Alice", message.Sender.Name)

	reloaded, err := f.store.GetConversationById(ctx, conversation.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.UpdatedAt.After(conversation.UpdatedAt))
	assert.False(t, reloaded.UpdatedAt.Before(message.CreatedAt))

	toRecipient := f.notifications.addressedTo("u2")
	require.Len(t, toRecipient, 2)
	assert.Equal(t, enums.NOTIFICATION_TITLE_NEW_MESSAGE, toRecipient[1].Title)
	assert.Equal(t, "You have a new message from Alice", toRecipient[1].Content)
	assert.Empty(t, f.notifications.addressedTo("u1"), "sender is never notified")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MessagesSent))
}

func TestSendMessageByNonMemberIsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conversation, err := f.service.FindOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	before := f.notifications.count()

	_, err = f.service.SendMessage(ctx, conversation.ID, "u3", "Hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrAuthorization)
	assert.Equal(t, "sender is not part of this conversation", err.Error())
	assert.Zero(t, f.store.messageCount())
	assert.Equal(t, before, f.notifications.count())
}

func TestSendMessageRejectsBlankContentBeforeTouchingStorage(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		f := newFixture()

		_, err := f.service.SendMessage(context.Background(), "c001", "u1", content)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.ErrorIs(t, err, errs.ErrEmptyMessage)
		assert.Zero(t, f.store.callCount())
	}
}

func TestSendMessageRejectsOverlongContent(t *testing.T) {
	f := newFixture()
	f.service.maxMessageLength = 5

	_, err := f.service.SendMessage(context.Background(), "c001", "u1", "héllo!")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrMessageTooLong)
	assert.Zero(t, f.store.callCount())
}

func TestSendMessageToUnknownConversation(t *testing.T) {
	f := newFixture()

	_, err := f.service.SendMessage(context.Background(), "missing", "u1", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, err, errs.ErrConversationNotFound)
}

func TestSendMessageWithoutRecipientPersistsNothing(t *testing.T) {
	f := newFixture()
	solo := f.store.addConversation(f.clock.Now(), "u1")

	_, err := f.service.SendMessage(context.Background(), solo.ID, "u1", "anyone?")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, err, errs.ErrRecipientNotFound)
	assert.Zero(t, f.store.messageCount())
}

func TestSendMessageInGroupNotifiesFirstOtherMember(t *testing.T) {
	f := newFixture()
	group := f.store.addConversation(f.clock.Now(), "u3", "u1", "u2")

	_, err := f.service.SendMessage(context.Background(), group.ID, "u3", "hi all")
	require.NoError(t, err)

	assert.Len(t, f.notifications.addressedTo("u1"), 1)
	assert.Empty(t, f.notifications.addressedTo("u2"))
}

func TestSendMessageSurvivesNotificationFailure(t *testing.T) {
	f := newFixture()
	conversation := f.store.addConversation(f.clock.Now(), "u1", "u2")
	f.notifications.createErr = errors.New("notifications table unavailable")

	message, err := f.service.SendMessage(context.Background(), conversation.ID, "u1", "Hello")
	require.NoError(t, err)
	assert.NotEmpty(t, message.ID)
	assert.Equal(t, 1, f.store.messageCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationDispatchFail.WithLabelValues(enums.NOTIFICATION_TITLE_NEW_MESSAGE)))
	assert.Zero(t, testutil.ToFloat64(f.metrics.NotificationsDispatched.WithLabelValues(enums.NOTIFICATION_TITLE_NEW_MESSAGE)))
}

func TestSendMessageDispatchOutlivesCancelledCaller(t *testing.T) {
	f := newFixture()
	conversation := f.store.addConversation(f.clock.Now(), "u1", "u2")
	dispatcher := &recordingDispatcher{}
	f.service.dispatcher = dispatcher

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.service.SendMessage(ctx, conversation.ID, "u1", "Hello")
	require.NoError(t, err)

	require.Len(t, dispatcher.requests, 1)
	assert.NotEmpty(t, dispatcher.requests[0].ID, "requests carry an id for idempotent redelivery")
	assert.NoError(t, dispatcher.ctxErrs[0])
}

func TestSendMessagePropagatesPersistenceFailure(t *testing.T) {
	f := newFixture()
	conversation := f.store.addConversation(f.clock.Now(), "u1", "u2")
	f.store.saveErr = errs.Persistence("save message", errors.New("disk full"))

	_, err := f.service.SendMessage(context.Background(), conversation.ID, "u1", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPersistence)
	assert.Zero(t, f.notifications.count())
}

func TestGetMessageHidesMessagesFromNonMembers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conversation := f.store.addConversation(f.clock.Now(), "u1", "u2")
	message, err := f.service.SendMessage(ctx, conversation.ID, "u1", "Hello")
	require.NoError(t, err)

	got, err := f.service.GetMessage(ctx, message.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, message.ID, got.ID)

	_, err = f.service.GetMessage(ctx, message.ID, "u3")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.service.GetMessage(ctx, "", "u1")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestListMessagesReturnsPagesOldestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conversation := f.store.addConversation(f.clock.Now(), "u1", "u2")
	for _, content := range []string{"one", "two", "three"} {
		_, err := f.service.SendMessage(ctx, conversation.ID, "u1", content)
		require.NoError(t, err)
	}

	list, err := f.service.ListMessages(ctx, conversation.ID, "u2", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, list.Total)
	require.Len(t, list.Messages, 2)
	assert.Equal(t, "two", list.Messages[0].Content)
	assert.Equal(t, "three", list.Messages[1].Content)
	assert.False(t, list.Messages[0].IsMine)

	_, err = f.service.ListMessages(ctx, conversation.ID, "u3", 1, 2)
	assert.ErrorIs(t, err, errs.ErrAuthorization)
}

func TestGetConversationBuildsViewerView(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conversation := f.store.addConversation(f.clock.Now(), "u1", "u2")
	_, err := f.service.SendMessage(ctx, conversation.ID, "u2", "hey")
	require.NoError(t, err)

	view, err := f.service.GetConversation(ctx, conversation.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bob", view.Name)
	assert.Equal(t, "hey", view.LastMessage)
	require.Len(t, view.Messages, 1)
	assert.False(t, view.Messages[0].IsMine)

	_, err = f.service.GetConversation(ctx, "missing", "u1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListUserConversationsOrdersByRecentActivity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	withBob, err := f.service.FindOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	withCarol, err := f.service.FindOrCreateConversation(ctx, "u1", "u3")
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, withBob.ID, "u2", "still there?")
	require.NoError(t, err)

	list, err := f.service.ListUserConversations(ctx, "u1", 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Conversations, 2)
	assert.Equal(t, withBob.ID, list.Conversations[0].ID)
	assert.Equal(t, "still there?", list.Conversations[0].LastMessage)
	assert.Equal(t, withCarol.ID, list.Conversations[1].ID)
	assert.Equal(t, views.NoMessagesYet, list.Conversations[1].LastMessage)

	_, err = f.service.ListUserConversations(ctx, "", 1, 10)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

type recordingDispatcher struct {
	requests []models.NotificationRequest
	ctxErrs  []error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, request models.NotificationRequest) error {
	d.requests = append(d.requests, request)
	d.ctxErrs = append(d.ctxErrs, ctx.Err())
	return nil
}
