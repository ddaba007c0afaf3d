package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/internal/repository"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
	"github.com/kmatek/photoalbum-api/pkg/imaging"
	"github.com/kmatek/photoalbum-api/pkg/storage"
)

const (
	profileImageMinDim  = 200
	profileImageThumb   = 200
	resetRateAction     = "password_reset"
	profilePicNamespace = "profile_pics"
	albumsNamespace     = "albums"
)

type RegisterInput struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Name     string `json:"name" form:"name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        *model.User `json:"user"`
}

// AccountConfig carries the lifecycle service's tunables so nothing is read
// from ambient process state.
type AccountConfig struct {
	JWTSecret       string
	JWTTTL          time.Duration
	ResetRateLimit  int
	ResetRateWindow time.Duration
}

type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	CreateSuperuser(ctx context.Context, email, name, password string) (*model.User, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Activate(ctx context.Context, uidToken, activationToken string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email, caller string) error
	ConfirmPasswordReset(ctx context.Context, uidToken, token, newPassword string) error
	UploadProfileImage(ctx context.Context, userID uuid.UUID, fileName string, r io.Reader) (*model.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type accountService struct {
	repo         repository.UserRepository
	imageStorage storage.ImageStorage
	codec        *TokenCodec
	notifier     Notifier
	redisClient  *redis.Client
	cfg          AccountConfig
}

func NewAccountService(repo repository.UserRepository, imageStorage storage.ImageStorage, codec *TokenCodec, notifier Notifier, redisClient *redis.Client, cfg AccountConfig) AccountService {
	return &accountService{
		repo:         repo,
		imageStorage: imageStorage,
		codec:        codec,
		notifier:     notifier,
		redisClient:  redisClient,
		cfg:          cfg,
	}
}

func (s *accountService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.ToLower(strings.TrimSpace(input.Name))

	ve := apperror.NewValidation()
	if email == "" {
		ve.Add("email", "This field is required.")
	}
	validateName(ve, name)
	validatePassword(ve, "password", input.Password)

	if email != "" {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			ve.Add("email", "This email is already registered.")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if name != "" {
		if _, err := s.repo.FindByName(ctx, name); err == nil {
			ve.Add("name", "This name is already taken.")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if ve.HasErrors() {
		return nil, ve
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.notifier.SendActivation(ctx, user)

	return user, nil
}

// CreateSuperuser skips the activation flow entirely.
func (s *accountService) CreateSuperuser(ctx context.Context, email, name, password string) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.ToLower(strings.TrimSpace(name)),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *accountService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is not activated: %w", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

func (s *accountService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Activate transitions a pending user to active. The transition is one-way;
// a second call fails with ErrAlreadyActive.
func (s *accountService) Activate(ctx context.Context, uidToken, activationToken string) error {
	userID, err := s.codec.DecodeUserID(uidToken)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.codec.CheckActivationToken(user, activationToken); err != nil {
		return err
	}

	return s.repo.Activate(ctx, user.ID)
}

func (s *accountService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperror.ErrWrongPassword
	}

	return s.commitNewPassword(ctx, user, newPassword)
}

// RequestPasswordReset is throttled per unauthenticated caller. The miss on
// an unknown email is surfaced rather than swallowed, which leaks account
// existence; kept to match the established API contract.
func (s *accountService) RequestPasswordReset(ctx context.Context, email, caller string) error {
	allowed, err := CheckAndCountRateLimit(ctx, s.redisClient, caller, resetRateAction, s.cfg.ResetRateLimit, s.cfg.ResetRateWindow)
	if err != nil {
		return err
	}
	if !allowed {
		return apperror.ErrRateLimitExceeded
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	token := s.codec.MakeResetToken(user, time.Now())
	s.notifier.SendPasswordReset(ctx, user, token)

	return nil
}

func (s *accountService) ConfirmPasswordReset(ctx context.Context, uidToken, token, newPassword string) error {
	userID, err := s.codec.DecodeUserID(uidToken)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.codec.CheckResetToken(user, token, time.Now()); err != nil {
		return err
	}

	return s.commitNewPassword(ctx, user, newPassword)
}

// commitNewPassword applies the shared weak-password policy and the
// same-password rule, then replaces the hash. Replacing the hash invalidates
// every previously issued reset token.
func (s *accountService) commitNewPassword(ctx context.Context, user *model.User, newPassword string) error {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		return apperror.ErrSamePassword
	}

	ve := apperror.NewValidation()
	validatePassword(ve, "new_password", newPassword)
	if ve.HasErrors() {
		return ve
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, string(hashedPassword))
}

// UploadProfileImage validates size, extension and dimensions, then stores a
// normalized PNG thumbnail, replacing any previous image.
func (s *accountService) UploadProfileImage(ctx context.Context, userID uuid.UUID, fileName string, r io.Reader) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	data, ve, err := validateImageUpload(fileName, r)
	if err != nil {
		return nil, err
	}

	if !ve.HasErrors() {
		width, height, err := imaging.Dimensions(data)
		if err != nil {
			ve.Add("image", "Upload a valid image.")
		} else if width < profileImageMinDim || height < profileImageMinDim {
			ve.Add("image", "The dimensions of the image must not be less than 200x200.")
		}
	}
	if ve.HasErrors() {
		return nil, ve
	}

	thumb, err := imaging.Thumbnail(profileImageThumb, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail: %w", err)
	}

	namespace := profilePicNamespace + "/" + user.Email
	path, err := s.imageStorage.SaveImage(ctx, bytes.NewReader(thumb), namespace, "image.png")
	if err != nil {
		return nil, err
	}

	if user.ImagePath != nil {
		if err := s.imageStorage.DeleteImage(ctx, *user.ImagePath); err != nil {
			log.Printf("Failed to delete previous profile image for %s: %v", user.Email, err)
		}
	}

	if err := s.repo.UpdateImagePath(ctx, user.ID, path); err != nil {
		return nil, err
	}

	user.ImagePath = &path
	return user, nil
}

// DeleteAccount removes the user with all owned albums, photos and likes,
// then clears the user's storage namespaces. File cleanup is best-effort.
func (s *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return err
	}

	for _, ns := range []string{
		profilePicNamespace + "/" + user.Email,
		albumsNamespace + "/" + user.Email,
	} {
		if err := s.imageStorage.DeleteNamespace(ctx, ns); err != nil {
			log.Printf("Failed to delete storage namespace %s: %v", ns, err)
		}
	}

	return nil
}

func (s *accountService) buildAuthResponse(user *model.User) (*AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
	}, nil
}

func (s *accountService) generateToken(user *model.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.cfg.JWTTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

// validateImageUpload enforces the rules shared by profile and album photo
// uploads: at most 1MB and no gif extension.
func validateImageUpload(fileName string, r io.Reader) ([]byte, *apperror.ValidationError, error) {
	ve := apperror.NewValidation()

	if imaging.IsGifExt(fileName) {
		ve.Add("image", "Gif extensions are not allowed.")
	}

	data, err := imaging.ReadAll(r, imaging.MaxImageSize)
	if err != nil {
		return nil, nil, err
	}
	if len(data) > imaging.MaxImageSize {
		ve.Add("image", "Max image file is 1MB")
	}

	return data, ve, nil
}
