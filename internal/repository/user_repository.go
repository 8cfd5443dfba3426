package repository

import (
	"context"
	"course_authoring_backend/internal/model"
	"errors"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	return &user, err
}

func (r *UserRepository) CreateProfile(ctx context.Context, profile *model.CreatorProfile) error {
	return r.DB.WithContext(ctx).Create(profile).Error
}

// FindProfileByUserID 讲师资料是可选的，不存在时返回 nil, nil
func (r *UserRepository) FindProfileByUserID(ctx context.Context, userID uint) (*model.CreatorProfile, error) {
	var profile model.CreatorProfile
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
