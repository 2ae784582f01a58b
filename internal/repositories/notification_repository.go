package repositories

import (
	"context"
	"time"

	"marketChat/internal/errs"
	"marketChat/internal/models"
	"marketChat/internal/utils"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	base
}

func NewNotificationRepository(db *gorm.DB, timeout time.Duration) *NotificationRepository {
	return &NotificationRepository{base: newBase(db, timeout)}
}

func (nr *NotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	db, cancel := nr.session(ctx)
	defer cancel()

	if notification.ID == "" {
		notification.ID = utils.NewID()
	}
	if err := db.Create(notification).Error; err != nil {
		if isUniqueViolation(err) {
			return nr.getNotificationById(ctx, notification.ID)
		}
		return nil, errs.Persistence("create notification", err)
	}
	return notification, nil
}

func (nr *NotificationRepository) getNotificationById(ctx context.Context, notificationID string) (*models.Notification, error) {
	db, cancel := nr.session(ctx)
	defer cancel()

	var notification models.Notification
	if err := db.Where("id = ?", notificationID).First(&notification).Error; err != nil {
		return nil, storageError("get notification", err, errs.ErrNotFound)
	}
	return &notification, nil
}

// MarkRead sets read = true on the given ids. Already-read and unknown ids are
// left untouched, so repeating the call is harmless.
func (nr *NotificationRepository) MarkRead(ctx context.Context, ids []string) (int64, error) {
	db, cancel := nr.session(ctx)
	defer cancel()

	result := db.Model(&models.Notification{}).
		Where("id IN ? AND is_read = ?", ids, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, errs.Persistence("mark notifications read", result.Error)
	}
	return result.RowsAffected, nil
}

func (nr *NotificationRepository) GetUserNotifications(ctx context.Context, userID string, page, size int) ([]models.Notification, int64, error) {
	db, cancel := nr.session(ctx)
	defer cancel()

	var notifications []models.Notification
	var total int64

	transactionErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Scopes(utils.Paginate(page, size)).
			Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Find(&notifications).Error; err != nil {
			return err
		}
		return tx.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error
	})
	if transactionErr != nil {
		return nil, 0, errs.Persistence("list notifications", transactionErr)
	}
	return notifications, total, nil
}

func (nr *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	db, cancel := nr.session(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, errs.Persistence("count unread notifications", err)
	}
	return count, nil
}
