package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByName(ctx context.Context, name string) (*model.User, error)
	Activate(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateImagePath(ctx context.Context, id uuid.UUID, imagePath string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByName(ctx context.Context, name string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Activate flips is_active inside a transaction so two concurrent activation
// requests cannot both observe the pending state.
func (r *userRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if user.IsActive {
			return apperror.ErrAlreadyActive
		}
		return tx.Model(&model.User{}).
			Where("id = ?", id).
			Update("is_active", true).Error
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *userRepository) UpdateImagePath(ctx context.Context, id uuid.UUID, imagePath string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("image_path", imagePath).Error
}

// Delete removes the user and everything hanging off it: owned albums,
// their photos, likes on those albums, and likes the user made elsewhere.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var albumIDs []uuid.UUID
		if err := tx.Model(&model.Album{}).
			Where("owner_id = ?", id).
			Pluck("id", &albumIDs).Error; err != nil {
			return err
		}

		if len(albumIDs) > 0 {
			if err := tx.Where("album_id IN ?", albumIDs).
				Delete(&model.AlbumPhoto{}).Error; err != nil {
				return err
			}
			if err := tx.Where("album_id IN ?", albumIDs).
				Delete(&model.AlbumLike{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).
			Delete(&model.AlbumLike{}).Error; err != nil {
			return err
		}

		if err := tx.Where("owner_id = ?", id).
			Delete(&model.Album{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&model.User{}).Error
	})
}
