package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/apperror"
)

func TestEncodeDecodeUserID(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	id := uuid.New()

	encoded := codec.EncodeUserID(id)
	assert.NotContains(t, encoded, id.String())

	decoded, err := codec.DecodeUserID(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestDecodeUserIDInvalid(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)

	for _, bad := range []string{"", "!!!", "bm90LWEtdXVpZA"} {
		_, err := codec.DecodeUserID(bad)
		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	}
}

func TestCheckActivationToken(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	user := &model.User{ID: uuid.New(), ActivationToken: uuid.New()}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, codec.CheckActivationToken(user, user.ActivationToken.String()))
	})

	t.Run("wrong token", func(t *testing.T) {
		err := codec.CheckActivationToken(user, uuid.New().String())
		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("already active", func(t *testing.T) {
		active := &model.User{ID: user.ID, ActivationToken: user.ActivationToken, IsActive: true}
		err := codec.CheckActivationToken(active, active.ActivationToken.String())
		assert.ErrorIs(t, err, apperror.ErrAlreadyActive)
	})
}

func TestResetToken(t *testing.T) {
	codec := NewTokenCodec("secret", time.Hour)
	user := &model.User{ID: uuid.New(), PasswordHash: "hash-one"}
	now := time.Now()

	t.Run("valid within window", func(t *testing.T) {
		token := codec.MakeResetToken(user, now)
		assert.NoError(t, codec.CheckResetToken(user, token, now.Add(30*time.Minute)))
	})

	t.Run("expired after window", func(t *testing.T) {
		token := codec.MakeResetToken(user, now)
		err := codec.CheckResetToken(user, token, now.Add(2*time.Hour))
		assert.ErrorIs(t, err, apperror.ErrExpiredToken)
	})

	t.Run("invalid once password hash changes", func(t *testing.T) {
		token := codec.MakeResetToken(user, now)
		changed := &model.User{ID: user.ID, PasswordHash: "hash-two"}
		err := codec.CheckResetToken(changed, token, now.Add(time.Minute))
		assert.ErrorIs(t, err, apperror.ErrExpiredToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		for _, bad := range []string{"", ".", "abc", "abc.", ".def", "zzzz.sig"} {
			err := codec.CheckResetToken(user, bad, now)
			assert.Error(t, err)
		}
	})

	t.Run("different secret", func(t *testing.T) {
		other := NewTokenCodec("other-secret", time.Hour)
		token := codec.MakeResetToken(user, now)
		err := other.CheckResetToken(user, token, now.Add(time.Minute))
		assert.ErrorIs(t, err, apperror.ErrExpiredToken)
	})
}
