package errs

import (
	"errors"
	"fmt"
)

type Error string

func (e Error) Error() string { return string(e) }

// Kinds. Every error leaving a service wraps exactly one of these.
const (
	ErrValidation           = Error("validation error")
	ErrAuthorization        = Error("authorization error")
	ErrNotFound             = Error("not found")
	ErrPersistence          = Error("persistence error")
	ErrNotificationDispatch = Error("notification dispatch error")
	ErrUnauthorized         = Error("unauthorized")
)

const (
	ErrInvalidRequestBody     = Error("invalid request body")
	ErrInvalidRequest         = Error("invalid request")
	ErrInvalidParams          = Error("invalid params")
	ErrInvalidToken           = Error("invalid token")
	ErrUserNotFound           = Error("user not found")
	ErrConversationNotFound   = Error("conversation not found")
	ErrMessageNotFound        = Error("message not found")
	ErrRecipientNotFound      = Error("recipient not found")
	ErrNotConversationMember  = Error("sender is not part of this conversation")
	ErrNotAllowedToRead       = Error("user is not part of this conversation")
	ErrEmptyMessage           = Error("message content is empty")
	ErrMessageTooLong         = Error("message content is too long")
	ErrSelfConversation       = Error("cannot start a conversation with yourself")
	ErrMissingUserID          = Error("user id is required")
	ErrMissingConversationID  = Error("conversation id is required")
	ErrEmptyNotificationIDs   = Error("notification ids are required")
	ErrSelfNotification       = Error("notification recipient cannot be the actor")
	ErrConversationConflict   = Error("conversation could not be created after repeated conflicts")
	ErrQueueUnavailable       = Error("notification queue unavailable")
	ErrInvalidNotificationJob = Error("invalid notification task payload")
)

type kindError struct {
	kind  Error
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

// Wrap tags cause with kind so that both errors.Is(err, kind) and
// errors.Is(err, cause) hold. A cause that already carries kind is returned as is.
func Wrap(kind Error, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return &kindError{kind: kind, cause: cause}
}

func Validation(cause error) error    { return Wrap(ErrValidation, cause) }
func Authorization(cause error) error { return Wrap(ErrAuthorization, cause) }
func NotFound(cause error) error      { return Wrap(ErrNotFound, cause) }

func Persistence(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return Wrap(ErrPersistence, fmt.Errorf("%s: %w", op, cause))
}

func NotificationDispatch(cause error) error { return Wrap(ErrNotificationDispatch, cause) }

// Messages flattens errors for the JSON response envelope.
func Messages(errors ...error) []string {
	var out []string
	for _, err := range errors {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}
