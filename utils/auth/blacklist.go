package auth

import (
	"context"
	"time"

	"github.com/sahilchouksey/learnpath/model"
	"gorm.io/gorm"
)

// Blacklist revokes tokens by JTI and tracks per-user token versions
type Blacklist struct {
	db *gorm.DB
}

// NewBlacklist creates a blacklist over db
func NewBlacklist(db *gorm.DB) *Blacklist {
	return &Blacklist{db: db}
}

// Revoke stores jti until expiresAt
func (b *Blacklist) Revoke(ctx context.Context, jti string, userID uint, expiresAt time.Time, reason string) error {
	return b.db.WithContext(ctx).Create(&model.JWTTokenBlacklist{
		Token:     jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt.UTC(),
	}).Error
}

// IsRevoked reports whether jti is blacklisted and not yet expired
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := b.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("token = ? AND expires_at > ?", jti, time.Now().UTC()).
		Count(&count).Error
	return count > 0, err
}

// RevokeAll bumps the user's token version so every issued token stops validating
func (b *Blacklist) RevokeAll(ctx context.Context, userID uint) error {
	return b.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).Error
}

// TokenVersion returns the user's current token version
func (b *Blacklist) TokenVersion(ctx context.Context, userID uint) (int, error) {
	var user model.User
	if err := b.db.WithContext(ctx).Select("id", "token_version").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.TokenVersion, nil
}

// PurgeExpired deletes entries past their expiry and returns how many went
func (b *Blacklist) PurgeExpired(ctx context.Context) (int64, error) {
	result := b.db.WithContext(ctx).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
