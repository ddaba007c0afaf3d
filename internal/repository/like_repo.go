package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

type LikeRepository interface {
	Like(ctx context.Context, userID, albumID uuid.UUID) error
	Unlike(ctx context.Context, userID, albumID uuid.UUID) error
	IsLiked(ctx context.Context, userID, albumID uuid.UUID) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Like inserts the (album, user) edge. The existence check and the insert run
// in one transaction with the composite primary key as backstop.
func (r *likeRepository) Like(ctx context.Context, userID, albumID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.AlbumLike{}).
			Where("user_id = ? AND album_id = ?", userID, albumID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.ErrConflict
		}
		return tx.Create(&model.AlbumLike{UserID: userID, AlbumID: albumID}).Error
	})
}

func (r *likeRepository) Unlike(ctx context.Context, userID, albumID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND album_id = ?", userID, albumID).
			Delete(&model.AlbumLike{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrConflict
		}
		return nil
	})
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, albumID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AlbumLike{}).
		Where("user_id = ? AND album_id = ?", userID, albumID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
