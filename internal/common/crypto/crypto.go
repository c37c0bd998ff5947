// Package crypto 提供口令哈希与敏感数据脱敏工具
package crypto

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 对密码进行 bcrypt 哈希
// cost 小于等于 0 时使用 bcrypt 默认成本
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword 验证密码
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// MaskEmail 邮箱脱敏，保留前两个字符与域名
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 2 {
		return email
	}
	return email[:2] + "***" + email[at:]
}

// MaskWallet 钱包地址脱敏，保留首尾各 4 位
// 通知与审计日志中只展示脱敏后的地址
func MaskWallet(address string) string {
	if len(address) <= 8 {
		return "****"
	}
	return address[:4] + "..." + address[len(address)-4:]
}
