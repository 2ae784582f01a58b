package services

import (
	"context"

	"marketChat/internal/errs"

	"go.uber.org/zap"
)

type MembershipGuard struct {
	store MembershipStore
	log   *zap.SugaredLogger
}

func NewMembershipGuard(store MembershipStore, log *zap.SugaredLogger) *MembershipGuard {
	return &MembershipGuard{
		store: store,
		log:   log,
	}
}

// IsMember reports whether userID belongs to the conversation. Unknown
// conversations and storage failures both answer false.
func (mg *MembershipGuard) IsMember(ctx context.Context, conversationID, userID string) bool {
	ok, err := mg.store.CheckUserInConversation(ctx, userID, conversationID)
	if err != nil {
		mg.log.Warnw("Membership check failed", "conversation_id", conversationID, "user_id", userID, "error", err)
		return false
	}
	return ok
}

// Authorize is the precise form of IsMember: it returns nil for members, a
// not-found error when the conversation does not exist, and denied wrapped as
// an authorization error otherwise.
func (mg *MembershipGuard) Authorize(ctx context.Context, conversationID, userID string, denied error) error {
	if conversationID == "" {
		return errs.Validation(errs.ErrMissingConversationID)
	}
	if userID == "" {
		return errs.Validation(errs.ErrMissingUserID)
	}

	ok, err := mg.store.CheckUserInConversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	exists, err := mg.store.CheckConversationExists(ctx, conversationID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NotFound(errs.ErrConversationNotFound)
	}
	return errs.Authorization(denied)
}
