// Package crypto 加密工具单元测试
package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret-password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "secret-password", hash)

	assert.True(t, VerifyPassword("secret-password", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("secret-password", 0)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHashPassword_DifferentSalts(t *testing.T) {
	hash1, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)
	hash2, err := HashPassword("same-password", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2, "相同密码应该因盐值不同产生不同哈希")
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	assert.False(t, VerifyPassword("password", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("password", ""))
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"普通邮箱", "ambassador@example.com", "am***@example.com"},
		{"短用户名保持原样", "ab@example.com", "ab@example.com"},
		{"单字符用户名保持原样", "a@example.com", "a@example.com"},
		{"无@符号保持原样", "not-an-email", "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.email))
		})
	}
}

func TestMaskWallet(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"TRC20 地址", "TN3W4H6rK2ce4vX9YnFQHwKENnHjoxb3m9", "TN3W...b3m9"},
		{"BTC bech32 地址", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", "bc1q...5mdq"},
		{"ETH 地址", "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", "0x71...976F"},
		{"过短地址完全隐藏", "abcd1234", "****"},
		{"空地址", "", "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskWallet(tt.address))
		})
	}
}
