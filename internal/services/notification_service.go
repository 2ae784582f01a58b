package services

import (
	"context"
	"time"

	"marketChat/internal/errs"
	"marketChat/internal/models"
	"marketChat/internal/utils"
	"marketChat/internal/validators"

	"go.uber.org/zap"
)

type NotificationService struct {
	store NotificationStore
	now   func() time.Time
	log   *zap.SugaredLogger
}

func NewNotificationService(store NotificationStore, now func() time.Time, log *zap.SugaredLogger) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		store: store,
		now:   now,
		log:   log,
	}
}

// Notify creates one notification for the request. There is no
// deduplication across calls other than a repeated request ID.
func (ns *NotificationService) Notify(ctx context.Context, request models.NotificationRequest) (*models.Notification, error) {
	if err := validators.ValidateNotificationRequest(request); err != nil {
		return nil, err
	}

	notification, err := ns.store.CreateNotification(ctx, &models.Notification{
		ID:        request.ID,
		UserID:    request.RecipientID,
		Title:     request.Title,
		Content:   request.Content,
		CreatedAt: ns.now(),
	})
	if err != nil {
		return nil, errs.NotificationDispatch(err)
	}
	return notification, nil
}

// Dispatch makes NotificationService usable as the inline Dispatcher.
func (ns *NotificationService) Dispatch(ctx context.Context, request models.NotificationRequest) error {
	_, err := ns.Notify(ctx, request)
	return err
}

func (ns *NotificationService) MarkRead(ctx context.Context, ids []string) error {
	ids = validators.NormalizeIDs(ids)
	if len(ids) == 0 {
		return errs.Validation(errs.ErrEmptyNotificationIDs)
	}

	updated, err := ns.store.MarkRead(ctx, ids)
	if err != nil {
		return err
	}
	ns.log.Debugw("Notifications marked read", "requested", len(ids), "updated", updated)
	return nil
}

func (ns *NotificationService) List(ctx context.Context, userID string, page, size int) (*models.NotificationListResponse, error) {
	if userID == "" {
		return nil, errs.Validation(errs.ErrMissingUserID)
	}
	page, size = utils.NormalizePage(page, size)

	notifications, total, err := ns.store.GetUserNotifications(ctx, userID, page, size)
	if err != nil {
		return nil, err
	}
	unread, err := ns.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	return &models.NotificationListResponse{
		Notifications: notifications,
		Unread:        unread,
		Page:          page,
		Size:          size,
		Total:         total,
	}, nil
}
