package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/internal/repository"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
	"github.com/kmatek/photoalbum-api/pkg/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

type CreateAlbumInput struct {
	Title string `json:"title" form:"title" binding:"required"`
}

type UpdateAlbumInput struct {
	Title string `json:"title" form:"title" binding:"required"`
}

type AlbumFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

type PhotoResponse struct {
	ID    uuid.UUID `json:"id"`
	Image string    `json:"image"`
}

type AlbumResponse struct {
	ID          uuid.UUID       `json:"id"`
	Owner       string          `json:"owner"`
	Title       string          `json:"title"`
	CreatedDate time.Time       `json:"created_date"`
	Likes       int64           `json:"likes"`
	Photos      []PhotoResponse `json:"photos,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PageSize    int   `json:"page_size"`
}

type PaginatedAlbumResponse struct {
	Data []AlbumResponse `json:"data"`
	Meta PaginationMeta  `json:"meta"`
}

// AlbumQuotas caps resource creation. Both are enforced at creation time
// only, inside the creating transaction.
type AlbumQuotas struct {
	AlbumsPerOwner int
	PhotosPerAlbum int
}

type AlbumService interface {
	CreateAlbum(ctx context.Context, ownerID uuid.UUID, input CreateAlbumInput) (*AlbumResponse, error)
	GetAlbum(ctx context.Context, albumID uuid.UUID) (*AlbumResponse, error)
	ListAlbums(ctx context.Context, filter AlbumFilter) (*PaginatedAlbumResponse, error)
	UpdateAlbum(ctx context.Context, userID, albumID uuid.UUID, input UpdateAlbumInput) (*AlbumResponse, error)
	DeleteAlbum(ctx context.Context, userID, albumID uuid.UUID) error
	UploadPhoto(ctx context.Context, userID, albumID uuid.UUID, fileName string, r io.Reader) (*PhotoResponse, error)
	DeletePhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) error
	LikeAlbum(ctx context.Context, userID, albumID uuid.UUID) error
	UnlikeAlbum(ctx context.Context, userID, albumID uuid.UUID) error
}

type albumService struct {
	albumRepo    repository.AlbumRepository
	photoRepo    repository.PhotoRepository
	likeRepo     repository.LikeRepository
	userRepo     repository.UserRepository
	imageStorage storage.ImageStorage
	quotas       AlbumQuotas
}

func NewAlbumService(albumRepo repository.AlbumRepository, photoRepo repository.PhotoRepository, likeRepo repository.LikeRepository, userRepo repository.UserRepository, imageStorage storage.ImageStorage, quotas AlbumQuotas) AlbumService {
	return &albumService{
		albumRepo:    albumRepo,
		photoRepo:    photoRepo,
		likeRepo:     likeRepo,
		userRepo:     userRepo,
		imageStorage: imageStorage,
		quotas:       quotas,
	}
}

func (s *albumService) CreateAlbum(ctx context.Context, ownerID uuid.UUID, input CreateAlbumInput) (*AlbumResponse, error) {
	owner, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
	}

	album := &model.Album{
		OwnerID: owner.ID,
		Title:   input.Title,
	}

	if err := s.albumRepo.CreateWithQuota(ctx, album, s.quotas.AlbumsPerOwner); err != nil {
		if errors.Is(err, apperror.ErrQuotaExceeded) {
			return nil, fmt.Errorf("there are only available %d albums: %w",
				s.quotas.AlbumsPerOwner, apperror.ErrQuotaExceeded)
		}
		return nil, err
	}

	return &AlbumResponse{
		ID:          album.ID,
		Owner:       owner.Name,
		Title:       album.Title,
		CreatedDate: album.CreatedAt,
	}, nil
}

func (s *albumService) GetAlbum(ctx context.Context, albumID uuid.UUID) (*AlbumResponse, error) {
	album, err := s.albumRepo.FindByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	likes, err := s.albumRepo.CountLikes(ctx, album.ID)
	if err != nil {
		return nil, err
	}

	resp := &AlbumResponse{
		ID:          album.ID,
		Owner:       album.Owner.Name,
		Title:       album.Title,
		CreatedDate: album.CreatedAt,
		Likes:       likes,
		Photos:      make([]PhotoResponse, 0, len(album.Photos)),
	}
	for _, photo := range album.Photos {
		resp.Photos = append(resp.Photos, PhotoResponse{ID: photo.ID, Image: photo.ImagePath})
	}

	return resp, nil
}

// ListAlbums returns albums most-recent-first. Page size defaults to 20 and
// is capped at 1000.
func (s *albumService) ListAlbums(ctx context.Context, filter AlbumFilter) (*PaginatedAlbumResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	albums, total, err := s.albumRepo.FindAll(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &PaginatedAlbumResponse{
		Data: make([]AlbumResponse, 0, len(albums)),
		Meta: PaginationMeta{
			CurrentPage: page,
			TotalPages:  int((total + int64(pageSize) - 1) / int64(pageSize)),
			TotalItems:  total,
			PageSize:    pageSize,
		},
	}

	for _, album := range albums {
		likes, err := s.albumRepo.CountLikes(ctx, album.ID)
		if err != nil {
			return nil, err
		}
		resp.Data = append(resp.Data, AlbumResponse{
			ID:          album.ID,
			Owner:       album.Owner.Name,
			Title:       album.Title,
			CreatedDate: album.CreatedAt,
			Likes:       likes,
		})
	}

	return resp, nil
}

func (s *albumService) UpdateAlbum(ctx context.Context, userID, albumID uuid.UUID, input UpdateAlbumInput) (*AlbumResponse, error) {
	album, err := s.ownedAlbum(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}

	album.Title = input.Title
	if err := s.albumRepo.Update(ctx, album); err != nil {
		return nil, err
	}

	return s.GetAlbum(ctx, album.ID)
}

func (s *albumService) DeleteAlbum(ctx context.Context, userID, albumID uuid.UUID) error {
	album, err := s.ownedAlbum(ctx, userID, albumID)
	if err != nil {
		return err
	}

	photos, err := s.photoRepo.FindByAlbum(ctx, album.ID)
	if err != nil {
		return err
	}

	if err := s.albumRepo.Delete(ctx, album.ID); err != nil {
		return err
	}

	// Stored files go after the transaction commits; a leftover file is
	// preferable to a dangling database row.
	for _, photo := range photos {
		if err := s.imageStorage.DeleteImage(ctx, photo.ImagePath); err != nil {
			log.Printf("Failed to delete photo file %s: %v", photo.ImagePath, err)
		}
	}

	return nil
}

// UploadPhoto stores an image into the album. Unlike profile images there is
// no dimension requirement.
func (s *albumService) UploadPhoto(ctx context.Context, userID, albumID uuid.UUID, fileName string, r io.Reader) (*PhotoResponse, error) {
	album, err := s.ownedAlbum(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}

	data, ve, err := validateImageUpload(fileName, r)
	if err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve
	}

	owner, err := s.userRepo.FindByID(ctx, album.OwnerID)
	if err != nil {
		return nil, err
	}

	namespace := albumsNamespace + "/" + owner.Email
	path, err := s.imageStorage.SaveImage(ctx, bytes.NewReader(data), namespace, fileName)
	if err != nil {
		return nil, err
	}

	photo := &model.AlbumPhoto{
		AlbumID:   album.ID,
		ImagePath: path,
	}

	if err := s.photoRepo.CreateWithQuota(ctx, photo, s.quotas.PhotosPerAlbum); err != nil {
		if delErr := s.imageStorage.DeleteImage(ctx, path); delErr != nil {
			log.Printf("Failed to clean up photo file %s: %v", path, delErr)
		}
		if errors.Is(err, apperror.ErrQuotaExceeded) {
			return nil, fmt.Errorf("ensure that an album has no more than %d elements: %w",
				s.quotas.PhotosPerAlbum, apperror.ErrQuotaExceeded)
		}
		return nil, err
	}

	return &PhotoResponse{ID: photo.ID, Image: photo.ImagePath}, nil
}

func (s *albumService) DeletePhoto(ctx context.Context, userID, albumID, photoID uuid.UUID) error {
	album, err := s.ownedAlbum(ctx, userID, albumID)
	if err != nil {
		return err
	}

	photo, err := s.photoRepo.FindByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if photo.AlbumID != album.ID {
		return fmt.Errorf("photo does not belong to this album: %w", apperror.ErrBadRequest)
	}

	if err := s.photoRepo.Delete(ctx, photo.ID); err != nil {
		return err
	}

	if err := s.imageStorage.DeleteImage(ctx, photo.ImagePath); err != nil {
		log.Printf("Failed to delete photo file %s: %v", photo.ImagePath, err)
	}

	return nil
}

// LikeAlbum creates the (album, user) edge. Any authenticated user may like
// any album, including their own.
func (s *albumService) LikeAlbum(ctx context.Context, userID, albumID uuid.UUID) error {
	if _, err := s.albumRepo.FindByID(ctx, albumID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.likeRepo.Like(ctx, userID, albumID); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return fmt.Errorf("album is already liked or disliked: %w", apperror.ErrConflict)
		}
		return err
	}

	return nil
}

func (s *albumService) UnlikeAlbum(ctx context.Context, userID, albumID uuid.UUID) error {
	if _, err := s.albumRepo.FindByID(ctx, albumID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.likeRepo.Unlike(ctx, userID, albumID); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return fmt.Errorf("album is already liked or disliked: %w", apperror.ErrConflict)
		}
		return err
	}

	return nil
}

// ownedAlbum resolves the album and enforces the write-ownership rule.
func (s *albumService) ownedAlbum(ctx context.Context, userID, albumID uuid.UUID) (*model.Album, error) {
	album, err := s.albumRepo.FindByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if album.OwnerID != userID {
		return nil, apperror.ErrForbidden
	}

	return album, nil
}
