package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kmatek/photoalbum-api/internal/middleware"
	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/internal/repository"
	"github.com/kmatek/photoalbum-api/internal/service"
	"github.com/kmatek/photoalbum-api/pkg/storage"
)

const (
	testSecret   = "test-secret"
	testPassword = "Testpassword!123"
)

// silentNotifier satisfies service.Notifier without delivering anything.
type silentNotifier struct{}

func (silentNotifier) SendActivation(context.Context, *model.User)            {}
func (silentNotifier) SendPasswordReset(context.Context, *model.User, string) {}
func (silentNotifier) StartWorker(context.Context)                            {}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	accounts service.AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Album{}, &model.AlbumPhoto{}, &model.AlbumLike{}))

	store := storage.NewDiskStorage(t.TempDir())
	codec := service.NewTokenCodec(testSecret, time.Hour)
	userRepo := repository.NewUserRepository(db)

	accounts := service.NewAccountService(userRepo, store, codec, silentNotifier{}, nil,
		service.AccountConfig{
			JWTSecret:       testSecret,
			JWTTTL:          time.Hour,
			ResetRateLimit:  5,
			ResetRateWindow: time.Hour,
		})
	albums := service.NewAlbumService(
		repository.NewAlbumRepository(db),
		repository.NewPhotoRepository(db),
		repository.NewLikeRepository(db),
		userRepo,
		store,
		service.AlbumQuotas{AlbumsPerOwner: 3, PhotosPerAlbum: 10})

	userHandler := NewUserHandler(accounts)
	albumHandler := NewAlbumHandler(albums)
	auth := middleware.NewAuthMiddleware(testSecret)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/users", userHandler.Register)
	api.GET("/users/activate/:uid/:token", userHandler.Activate)
	api.POST("/auth/login", userHandler.Login)
	api.GET("/albums", albumHandler.ListAlbums)
	api.GET("/albums/:id", albumHandler.GetAlbum)

	protected := api.Group("")
	protected.Use(auth.RequireAuth())
	protected.GET("/users/me", userHandler.Me)
	protected.DELETE("/users/me", userHandler.DeleteAccount)
	protected.POST("/users/change-password", userHandler.ChangePassword)
	protected.POST("/albums", albumHandler.CreateAlbum)
	protected.POST("/albums/:id/like", albumHandler.LikeAlbum)
	protected.DELETE("/albums/:id/like", albumHandler.UnlikeAlbum)

	return &testEnv{router: router, db: db, accounts: accounts}
}

func (e *testEnv) doJSON(method, path, token string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an activated user over the API and returns a token.
func (e *testEnv) registerAndLogin(t *testing.T, email, name string) string {
	t.Helper()

	rec := e.doJSON(http.MethodPost, "/api/users", "", gin.H{
		"email": email, "name": name, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, e.db.Model(&model.User{}).
		Where("email = ?", strings.ToLower(email)).Update("is_active", true).Error)

	rec = e.doJSON(http.MethodPost, "/api/auth/login", "", gin.H{
		"email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("created", func(t *testing.T) {
		rec := env.doJSON(http.MethodPost, "/api/users", "", gin.H{
			"email": "test@email.com", "name": "testname", "password": testPassword,
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "test@email.com", body["email"])
		assert.Equal(t, false, body["is_active"])
	})

	t.Run("field keyed validation errors", func(t *testing.T) {
		rec := env.doJSON(http.MethodPost, "/api/users", "", gin.H{
			"email": "other@email.com", "name": "othername", "password": "12345678",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Errors map[string][]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Errors["password"])
	})
}

func TestActivateEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(http.MethodPost, "/api/users", "", gin.H{
		"email": "test@email.com", "name": "testname", "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user model.User
	require.NoError(t, env.db.First(&user, "email = ?", "test@email.com").Error)

	codec := service.NewTokenCodec(testSecret, time.Hour)
	path := fmt.Sprintf("/api/users/activate/%s/%s",
		codec.EncodeUserID(user.ID), user.ActivationToken)

	t.Run("activates", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("second call is rejected", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("garbage uid", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, "/api/users/activate/garbage/garbage", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, "/api/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("mangled token", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, "/api/users/me", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token reaches the profile", func(t *testing.T) {
		token := env.registerAndLogin(t, "test@email.com", "testname")

		rec := env.doJSON(http.MethodGet, "/api/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "test@email.com", body["email"])
		assert.NotContains(t, body, "password_hash")
	})
}

func TestAlbumEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "owner@email.com", "ownername")

	var albumID string

	t.Run("create", func(t *testing.T) {
		rec := env.doJSON(http.MethodPost, "/api/albums", token, gin.H{"title": "holiday"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		albumID, _ = body["id"].(string)
		require.NotEmpty(t, albumID)
		assert.Equal(t, "ownername", body["owner"])
	})

	t.Run("public read", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, "/api/albums/"+albumID, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = env.doJSON(http.MethodGet, "/api/albums", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Data, 1)
	})

	t.Run("like and unlike", func(t *testing.T) {
		rec := env.doJSON(http.MethodPost, "/api/albums/"+albumID+"/like", token, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)

		rec = env.doJSON(http.MethodPost, "/api/albums/"+albumID+"/like", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = env.doJSON(http.MethodDelete, "/api/albums/"+albumID+"/like", token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("bad album id", func(t *testing.T) {
		rec := env.doJSON(http.MethodGet, "/api/albums/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteAccountEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "owner@email.com", "ownername")

	rec := env.doJSON(http.MethodDelete, "/api/users/me", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The bearer token still parses, but the user row is gone.
	rec = env.doJSON(http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
