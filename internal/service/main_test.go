package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/internal/repository"
	"github.com/kmatek/photoalbum-api/pkg/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Album{},
		&model.AlbumPhoto{},
		&model.AlbumLike{},
	))

	return db
}

func newTestStorage(t *testing.T) storage.ImageStorage {
	t.Helper()
	return storage.NewDiskStorage(t.TempDir())
}

// recordingNotifier captures sends instead of delivering them.
type recordingNotifier struct {
	mu          sync.Mutex
	activations []*model.User
	resetTokens map[string]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{resetTokens: make(map[string]string)}
}

func (n *recordingNotifier) SendActivation(_ context.Context, user *model.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activations = append(n.activations, user)
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, user *model.User, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetTokens[user.Email] = token
}

func (n *recordingNotifier) StartWorker(_ context.Context) {}

func (n *recordingNotifier) activationCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.activations)
}

func (n *recordingNotifier) lastResetToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resetTokens[email]
}

func testAccountConfig() AccountConfig {
	return AccountConfig{
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		ResetRateLimit:  5,
		ResetRateWindow: time.Hour,
	}
}

func newAccountService(t *testing.T, db *gorm.DB, notifier Notifier) AccountService {
	t.Helper()
	codec := NewTokenCodec("test-secret", time.Hour)
	return NewAccountService(
		repository.NewUserRepository(db), newTestStorage(t),
		codec, notifier, nil, testAccountConfig())
}

func newAlbumService(t *testing.T, db *gorm.DB, store storage.ImageStorage) AlbumService {
	t.Helper()
	return NewAlbumService(
		repository.NewAlbumRepository(db),
		repository.NewPhotoRepository(db),
		repository.NewLikeRepository(db),
		repository.NewUserRepository(db),
		store,
		AlbumQuotas{AlbumsPerOwner: 3, PhotosPerAlbum: 10})
}

func createTestUser(t *testing.T, db *gorm.DB, email, name string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// pngBytes renders a width x height PNG for upload tests.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
