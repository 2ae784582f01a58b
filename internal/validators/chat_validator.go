package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"marketChat/internal/errs"
	"marketChat/internal/models"
)

const DefaultMaxMessageLength = 4000

// ValidateMessageContent rejects blank content and content longer than
// maxLength runes. A non-positive maxLength disables the length check.
func ValidateMessageContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return errs.Validation(errs.ErrEmptyMessage)
	}
	if maxLength > 0 && utf8.RuneCountInString(content) > maxLength {
		return errs.Validation(fmt.Errorf("%w (max %d characters)", errs.ErrMessageTooLong, maxLength))
	}
	return nil
}

func ValidateConversationParticipants(initiatorID, receiverID string) error {
	if initiatorID == "" || receiverID == "" {
		return errs.Validation(errs.ErrMissingUserID)
	}
	if initiatorID == receiverID {
		return errs.Validation(errs.ErrSelfConversation)
	}
	return nil
}

func ValidateNotificationRequest(request models.NotificationRequest) error {
	if request.RecipientID == "" {
		return errs.Validation(errs.ErrMissingUserID)
	}
	if request.Title == "" {
		return errs.Validation(errs.ErrInvalidRequest)
	}
	if request.RecipientID == request.ActorID {
		return errs.Validation(errs.ErrSelfNotification)
	}
	return nil
}

// NormalizeIDs trims, drops blanks and removes duplicates, keeping order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
