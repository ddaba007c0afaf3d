package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

type AlbumRepository interface {
	// CreateWithQuota persists the album only if the owner holds fewer than
	// quota albums. The count re-check and the insert share one transaction.
	CreateWithQuota(ctx context.Context, album *model.Album, quota int) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Album, error)
	FindAll(ctx context.Context, offset, limit int) ([]*model.Album, int64, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountLikes(ctx context.Context, albumID uuid.UUID) (int64, error)
	Update(ctx context.Context, album *model.Album) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type albumRepository struct {
	db *gorm.DB
}

func NewAlbumRepository(db *gorm.DB) AlbumRepository {
	return &albumRepository{db: db}
}

func (r *albumRepository) CreateWithQuota(ctx context.Context, album *model.Album, quota int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Album{}).
			Where("owner_id = ?", album.OwnerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(quota) {
			return apperror.ErrQuotaExceeded
		}
		return tx.Create(album).Error
	})
}

func (r *albumRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Album, error) {
	var album model.Album
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Photos").
		Where("id = ?", id).
		First(&album).Error; err != nil {
		return nil, err
	}
	return &album, nil
}

func (r *albumRepository) FindAll(ctx context.Context, offset, limit int) ([]*model.Album, int64, error) {
	var albums []*model.Album
	var total int64

	query := r.db.WithContext(ctx).Preload("Owner")

	if err := query.Model(&model.Album{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&albums).Error; err != nil {
		return nil, 0, err
	}

	return albums, total, nil
}

func (r *albumRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Album{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

func (r *albumRepository) CountLikes(ctx context.Context, albumID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AlbumLike{}).
		Where("album_id = ?", albumID).
		Count(&count).Error
	return count, err
}

func (r *albumRepository) Update(ctx context.Context, album *model.Album) error {
	return r.db.WithContext(ctx).
		Model(&model.Album{}).
		Where("id = ?", album.ID).
		Update("title", album.Title).Error
}

func (r *albumRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", id).
			Delete(&model.AlbumPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", id).
			Delete(&model.AlbumLike{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Album{}).Error
	})
}
