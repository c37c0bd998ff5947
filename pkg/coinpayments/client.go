// Package coinpayments 提供 CoinPayments API 封装
package coinpayments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// APIBaseURL CoinPayments API 地址
const APIBaseURL = "https://www.coinpayments.net/api.php"

// Config CoinPayments 配置
type Config struct {
	APIKey     string
	APISecret  string
	IPNSecret  string
	MerchantID string
	IPNURL     string
	Timeout    time.Duration
	BaseURL    string // 为空时使用官方地址，测试时可指向模拟服务
}

// Client CoinPayments 客户端
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient 创建 CoinPayments 客户端
func NewClient(config *Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// apiResponse API 响应外层结构
type apiResponse struct {
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

// call 调用 API 命令
func (c *Client) call(ctx context.Context, cmd string, params map[string]string, out interface{}) error {
	form := make(map[string]string, len(params)+3)
	for k, v := range params {
		form[k] = v
	}
	form["cmd"] = cmd
	form["key"] = c.config.APIKey
	form["version"] = "1"
	form["sign"] = Sign(c.config.APISecret, form)

	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("构造 CoinPayments 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 CoinPayments 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CoinPayments 返回状态码 %d", resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("解析 CoinPayments 响应失败: %w", err)
	}
	if envelope.Error != "ok" {
		return fmt.Errorf("CoinPayments 错误: %s", envelope.Error)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("解析 CoinPayments 结果失败: %w", err)
		}
	}
	return nil
}

// Sign 生成参数签名（按键排序后拼接 k=v& 串做 HMAC-SHA512）
func Sign(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	paramString := strings.Join(pairs, "&")

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(paramString))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreateTransactionRequest 创建收款交易请求
type CreateTransactionRequest struct {
	Amount     float64
	Currency1  string // 计价货币（如 EUR）
	Currency2  string // 支付货币（如 BTC）
	BuyerEmail string
	ItemName   string
}

// TransactionResult 创建收款交易结果
type TransactionResult struct {
	TxnID          string `json:"txn_id"`
	Address        string `json:"address"`
	Amount         string `json:"amount"`
	ConfirmsNeeded string `json:"confirms_needed"`
	Timeout        int64  `json:"timeout"`
	CheckoutURL    string `json:"checkout_url"`
	StatusURL      string `json:"status_url"`
	QRCodeURL      string `json:"qrcode_url"`
}

// CreateTransaction 创建收款交易
func (c *Client) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*TransactionResult, error) {
	currency2 := req.Currency2
	if currency2 == "" {
		currency2 = "BTC"
	}

	params := map[string]string{
		"amount":    fmt.Sprintf("%.2f", req.Amount),
		"currency1": req.Currency1,
		"currency2": currency2,
		"item_name": req.ItemName,
		"ipn_url":   c.config.IPNURL,
	}
	if req.BuyerEmail != "" {
		params["buyer_email"] = req.BuyerEmail
	}

	var result TransactionResult
	if err := c.call(ctx, "create_transaction", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TransactionInfo 收款交易状态
type TransactionInfo struct {
	Status        int     `json:"status"`
	StatusText    string  `json:"status_text"`
	Coin          string  `json:"coin"`
	Amount        float64 `json:"amountf,string"`
	Received      float64 `json:"receivedf,string"`
	TimeCreated   int64   `json:"time_created"`
	TimeCompleted int64   `json:"time_completed"`
}

// GetTransactionInfo 查询收款交易状态
func (c *Client) GetTransactionInfo(ctx context.Context, txnID string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := c.call(ctx, "get_tx_info", map[string]string{"txid": txnID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateWithdrawalRequest 创建提现请求
type CreateWithdrawalRequest struct {
	Amount      float64
	Currency    string
	Address     string
	AutoConfirm bool
	IPNURL      string
	Note        string
}

// WithdrawalResult 创建提现结果
type WithdrawalResult struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
	Amount string `json:"amount"`
}

// CreateWithdrawal 创建提现
func (c *Client) CreateWithdrawal(ctx context.Context, req *CreateWithdrawalRequest) (*WithdrawalResult, error) {
	params := map[string]string{
		"amount":   fmt.Sprintf("%.8f", req.Amount),
		"currency": req.Currency,
		"address":  req.Address,
	}
	if req.AutoConfirm {
		params["auto_confirm"] = "1"
	}
	if req.IPNURL != "" {
		params["ipn_url"] = req.IPNURL
	}
	if req.Note != "" {
		params["note"] = req.Note
	}

	var result WithdrawalResult
	if err := c.call(ctx, "create_withdrawal", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WithdrawalInfo 提现状态
type WithdrawalInfo struct {
	Status      int    `json:"status"`
	StatusText  string `json:"status_text"`
	Coin        string `json:"coin"`
	SendTxID    string `json:"send_txid"`
	TimeCreated int64  `json:"time_created"`
}

// GetWithdrawalInfo 查询提现状态
func (c *Client) GetWithdrawalInfo(ctx context.Context, withdrawalID string) (*WithdrawalInfo, error) {
	var info WithdrawalInfo
	if err := c.call(ctx, "get_withdrawal_info", map[string]string{"id": withdrawalID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// rateEntry 汇率条目
type rateEntry struct {
	Rate string `json:"rate_btc"`
}

// GetRates 查询汇率表
func (c *Client) GetRates(ctx context.Context) (map[string]float64, error) {
	var raw map[string]rateEntry
	if err := c.call(ctx, "rates", map[string]string{"short": "1"}, &raw); err != nil {
		return nil, err
	}

	rates := make(map[string]float64, len(raw))
	for coin, entry := range raw {
		var rate float64
		if _, err := fmt.Sscanf(entry.Rate, "%f", &rate); err == nil {
			rates[coin] = rate
		}
	}
	return rates, nil
}
