package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"size:30;uniqueIndex;not null" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     bool      `gorm:"default:false" json:"is_active"`
	IsStaff      bool      `gorm:"default:false" json:"-"`
	IsSuperuser  bool      `gorm:"default:false" json:"-"`
	// ActivationToken is generated once at creation and never rotated.
	ActivationToken uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	ImagePath       *string   `gorm:"type:text" json:"image,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	Albums []Album     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Likes  []AlbumLike `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.ActivationToken == uuid.Nil {
		u.ActivationToken = uuid.New()
	}
	return nil
}
