package repositories

import (
	"context"
	"time"

	"marketChat/internal/errs"
	"marketChat/internal/models"

	"gorm.io/gorm"
)

// UserRepository is a read-only view of the identity subsystem's users table.
type UserRepository struct {
	base
}

func NewUserRepository(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{base: newBase(db, timeout)}
}

func (ur *UserRepository) GetUserById(ctx context.Context, userID string) (*models.User, error) {
	db, cancel := ur.session(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, storageError("get user", err, errs.ErrUserNotFound)
	}
	return &user, nil
}
