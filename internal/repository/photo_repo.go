package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

type PhotoRepository interface {
	// CreateWithQuota persists the photo only if the album holds fewer than
	// quota photos, re-checking the count inside the insert transaction.
	CreateWithQuota(ctx context.Context, photo *model.AlbumPhoto, quota int) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AlbumPhoto, error)
	FindByAlbum(ctx context.Context, albumID uuid.UUID) ([]*model.AlbumPhoto, error)
	CountByAlbum(ctx context.Context, albumID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type photoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) CreateWithQuota(ctx context.Context, photo *model.AlbumPhoto, quota int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.AlbumPhoto{}).
			Where("album_id = ?", photo.AlbumID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(quota) {
			return apperror.ErrQuotaExceeded
		}
		return tx.Create(photo).Error
	})
}

func (r *photoRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AlbumPhoto, error) {
	var photo model.AlbumPhoto
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) FindByAlbum(ctx context.Context, albumID uuid.UUID) ([]*model.AlbumPhoto, error) {
	var photos []*model.AlbumPhoto
	if err := r.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("created_at DESC").
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepository) CountByAlbum(ctx context.Context, albumID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AlbumPhoto{}).
		Where("album_id = ?", albumID).
		Count(&count).Error
	return count, err
}

func (r *photoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.AlbumPhoto{}).Error
}
