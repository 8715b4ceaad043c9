package db

import (
	"context"
	"strings"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AccountRepository is the read side of the account directory.
type AccountRepository interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, account *models.Account) error
	Find(ctx context.Context, search, exclude string, limit int) ([]string, error)
}

type accountRepo struct {
	DB *gorm.DB
}

func NewAccountRepo(db *GormDB) AccountRepository {
	return &accountRepo{db.DB}
}

func (r *accountRepo) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(apiErrors.ErrPersistence, "find account: %v", err)
	}
	return count > 0, nil
}

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	if err := r.DB.WithContext(ctx).Create(account).Error; err != nil {
		if apiErrors.IsDuplicateKey(err) {
			return errors.Wrapf(apiErrors.ErrDuplicateKey, "account %s", account.Email)
		}
		return errors.Wrapf(apiErrors.ErrPersistence, "create account: %v", err)
	}
	return nil
}

// Find returns emails containing search, case-insensitively, ordered by email.
// exclude drops one identity from the result, usually the caller.
func (r *accountRepo) Find(ctx context.Context, search, exclude string, limit int) ([]string, error) {
	query := r.DB.WithContext(ctx).Model(&models.Account{}).
		Where("LOWER(email) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(search))+"%")
	if exclude = strings.ToLower(strings.TrimSpace(exclude)); exclude != "" {
		query = query.Where("email <> ?", exclude)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	emails := []string{}
	if err := query.Order("email").Pluck("email", &emails).Error; err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "search accounts: %v", err)
	}
	return emails, nil
}
