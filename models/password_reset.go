package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

const (
	// ResetTokenTTL 重置令牌有效期，链接过期后需重新申请
	ResetTokenTTL = 30 * time.Minute
	// resetTokenBytes 令牌随机字节数，hex 编码后正好填满 token 列的 64 字符
	resetTokenBytes = 32
)

// PasswordReset 密码重置令牌模型
// 令牌一次性使用，过期或已使用的令牌由 IsValid 统一判定
type PasswordReset struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Token     string         `json:"token" gorm:"uniqueIndex;size:64;not null"`
	Email     string         `json:"email" gorm:"size:100;not null"`
	ExpiresAt time.Time      `json:"expires_at" gorm:"not null"`
	Used      bool           `json:"used" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (PasswordReset) TableName() string {
	return "password_resets"
}

// GenerateToken 生成随机重置令牌
func GenerateToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewPasswordReset 为用户生成一条待发送的重置令牌记录
func NewPasswordReset(userID uint, email string) (*PasswordReset, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	return &PasswordReset{
		UserID:    userID,
		Token:     token,
		Email:     email,
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}, nil
}

// IsExpired 检查令牌是否过期
func (p *PasswordReset) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// IsValid 检查令牌是否有效
func (p *PasswordReset) IsValid() bool {
	return !p.Used && !p.IsExpired()
}
