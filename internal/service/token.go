package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

// TokenCodec produces the opaque URL-safe tokens used by the activation and
// password-reset flows. Activation tokens are the user's stored one-time
// value; reset tokens are derived from the current password hash so they die
// the moment the password changes.
type TokenCodec struct {
	secret   []byte
	resetTTL time.Duration
}

func NewTokenCodec(secret string, resetTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		secret:   []byte(secret),
		resetTTL: resetTTL,
	}
}

func (c *TokenCodec) EncodeUserID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

func (c *TokenCodec) DecodeUserID(encoded string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidToken
	}

	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidToken
	}

	return id, nil
}

// CheckActivationToken validates the token against the user's stored
// activation value and current state.
func (c *TokenCodec) CheckActivationToken(user *model.User, token string) error {
	if user.IsActive {
		return apperror.ErrAlreadyActive
	}
	if user.ActivationToken.String() != token {
		return apperror.ErrInvalidToken
	}
	return nil
}

// MakeResetToken issues a token bound to the user's id, current password hash
// and issue time: "<ts-hex>.<signature>".
func (c *TokenCodec) MakeResetToken(user *model.User, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 16)
	return ts + "." + c.signReset(user, ts)
}

// CheckResetToken fails once the bound password hash no longer matches the
// current one or the expiry window has elapsed.
func (c *TokenCodec) CheckResetToken(user *model.User, token string, now time.Time) error {
	dot := strings.IndexByte(token, '.')
	if dot <= 0 || dot == len(token)-1 {
		return apperror.ErrInvalidToken
	}
	ts, sig := token[:dot], token[dot+1:]

	issued, err := strconv.ParseInt(ts, 16, 64)
	if err != nil {
		return apperror.ErrInvalidToken
	}

	expected := c.signReset(user, ts)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return apperror.ErrExpiredToken
	}

	if now.Sub(time.Unix(issued, 0)) > c.resetTTL {
		return apperror.ErrExpiredToken
	}

	return nil
}

func (c *TokenCodec) signReset(user *model.User, ts string) string {
	mac := hmac.New(sha256.New, c.secret)
	fmt.Fprintf(mac, "%s|%s|%s", user.ID, user.PasswordHash, ts)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
