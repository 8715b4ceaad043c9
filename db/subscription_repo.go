package db

import (
	"context"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository is the push subscription registry, one target per identity.
type SubscriptionRepository interface {
	// Get returns nil without error when the identity has no subscription.
	Get(ctx context.Context, identity string) (*models.PushSubscription, error)
	Put(ctx context.Context, identity, target string) error
	Delete(ctx context.Context, identity string) error
}

type subscriptionRepo struct {
	DB *gorm.DB
}

func NewSubscriptionRepo(db *GormDB) SubscriptionRepository {
	return &subscriptionRepo{db.DB}
}

func (r *subscriptionRepo) Get(ctx context.Context, identity string) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	err := r.DB.WithContext(ctx).Where("identity = ?", identity).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(apiErrors.ErrPersistence, "get subscription: %v", err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) Put(ctx context.Context, identity, target string) error {
	sub := models.PushSubscription{Identity: identity, Target: target}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"target", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return errors.Wrapf(apiErrors.ErrPersistence, "put subscription: %v", err)
	}
	return nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, identity string) error {
	err := r.DB.WithContext(ctx).Where("identity = ?", identity).Delete(&models.PushSubscription{}).Error
	if err != nil {
		return errors.Wrapf(apiErrors.ErrPersistence, "delete subscription: %v", err)
	}
	return nil
}
