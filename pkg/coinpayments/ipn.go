package coinpayments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// IPNHeader IPN 回调签名头
const IPNHeader = "HMAC"

// 收款交易状态阈值
const (
	// TxStatusCompleted 状态值大于等于该阈值表示支付完成
	TxStatusCompleted = 100
)

// 提现 IPN 状态
const (
	WithdrawalStatusCompleted = 2
	WithdrawalStatusFailed    = -1
)

// IsTxCompleted 判断收款交易是否完成
func IsTxCompleted(status int) bool {
	return status >= TxStatusCompleted
}

// IsTxFailed 判断收款交易是否失败（取消/超时/退款）
func IsTxFailed(status int) bool {
	return status < 0
}

// SignIPN 计算 IPN 请求体签名（供测试和模拟回调使用）
func SignIPN(ipnSecret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(ipnSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyIPN 校验 IPN 回调签名
//
// CoinPayments 对原始请求体做 HMAC-SHA512，结果放在 HMAC 头中。
func VerifyIPN(ipnSecret string, body []byte, signature string) bool {
	if ipnSecret == "" || signature == "" {
		return false
	}
	expected := SignIPN(ipnSecret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
