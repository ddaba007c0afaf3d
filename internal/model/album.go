package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Album struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_date"`

	Photos []AlbumPhoto `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE" json:"-"`
	Likes  []AlbumLike  `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type AlbumPhoto struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AlbumID   uuid.UUID `gorm:"type:uuid;not null;index" json:"album_id"`
	Album     Album     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ImagePath string    `gorm:"type:text;not null" json:"image"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *AlbumPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AlbumLike joins users and albums. The unique index is the race backstop
// for the at-most-one-like invariant.
type AlbumLike struct {
	AlbumID uuid.UUID `gorm:"type:uuid;primaryKey" json:"album_id"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
}
