package auth

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilchouksey/learnpath/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestJWTManager_IssueAndValidate(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "secret", Issuer: "learnpath"})
	id := Identity{UserID: 7, Email: "a@example.com", Role: model.RoleStudent, TokenVersion: 2}

	pair, err := m.IssuePair(id)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access.JTI, pair.Refresh.JTI)
	assert.True(t, pair.Refresh.ExpiresAt.After(pair.Access.ExpiresAt))

	claims, err := m.Validate(pair.Access.Token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Equal(t, pair.Access.JTI, claims.ID)

	_, err = m.Validate(pair.Refresh.Token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenUse)

	other := NewJWTManager(JWTConfig{Secret: "other", Issuer: "learnpath"})
	_, err = other.Validate(pair.Access.Token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewJWTManager(JWTConfig{Secret: "secret", Issuer: "someone-else"})
	_, err = wrongIssuer.Validate(pair.Access.Token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager(JWTConfig{Secret: "secret", Issuer: "learnpath", Expiry: -time.Minute})
	tok, err := expired.Issue(TokenTypeAccess, id)
	require.NoError(t, err)
	_, err = m.Validate(tok.Token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPassword(t *testing.T) {
	BcryptCost = bcrypt.MinCost

	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("long-enough")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "long-enough"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong-password"), ErrPasswordMismatch)
}

func TestBlacklist(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.JWTTokenBlacklist{}))
	ctx := context.Background()

	user := model.User{Email: "b@example.com", PasswordHash: "x", Name: "B", Role: model.RoleStudent}
	require.NoError(t, db.Create(&user).Error)

	b := NewBlacklist(db)
	require.NoError(t, b.Revoke(ctx, "live", user.ID, time.Now().Add(time.Hour), "logout"))
	require.NoError(t, b.Revoke(ctx, "stale", user.ID, time.Now().Add(-time.Hour), "logout"))

	revoked, err := b.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = b.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	purged, err := b.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, b.RevokeAll(ctx, user.ID))
	require.NoError(t, b.RevokeAll(ctx, user.ID))
	version, err := b.TokenVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
