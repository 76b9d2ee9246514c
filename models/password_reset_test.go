package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordReset_GenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 64, "hex of 32 bytes = 64 chars")

	hexRegex := regexp.MustCompile(`^[0-9a-f]{64}$`)
	assert.True(t, hexRegex.MatchString(token), "token should be hex string")
}

func TestPasswordReset_New(t *testing.T) {
	p, err := NewPasswordReset(1, "user@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint(1), p.UserID)
	assert.Equal(t, "user@x.com", p.Email)
	assert.Len(t, p.Token, 64)

	// 有效期按 ResetTokenTTL 计
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), p.ExpiresAt, time.Minute)
	assert.True(t, p.IsValid())
}

func TestPasswordReset_IsExpired(t *testing.T) {
	now := time.Now()

	p := &PasswordReset{ExpiresAt: now.Add(-time.Hour)}
	assert.True(t, p.IsExpired())

	p2 := &PasswordReset{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, p2.IsExpired())
}

func TestPasswordReset_IsValid(t *testing.T) {
	now := time.Now()

	// 未使用且未过期
	p := &PasswordReset{Used: false, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, p.IsValid())

	// 已使用
	p.Used = true
	assert.False(t, p.IsValid())

	// 已过期
	p2 := &PasswordReset{Used: false, ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, p2.IsValid())
}
