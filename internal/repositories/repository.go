package repositories

import (
	"context"
	"errors"
	"time"

	"marketChat/internal/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const DefaultQueryTimeout = 5 * time.Second

const pgUniqueViolation = "23505"

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

func newBase(db *gorm.DB, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return base{db: db, timeout: timeout}
}

// session bounds every storage call by the configured query timeout.
func (b base) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// storageError maps gorm errors onto the error taxonomy. notFound is used for
// gorm.ErrRecordNotFound.
func storageError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(notFound)
	}
	return errs.Persistence(op, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
