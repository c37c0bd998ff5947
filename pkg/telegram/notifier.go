// Package telegram 提供 Telegram 通知推送
package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier 通知发送器接口
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	NotifyAdmin(ctx context.Context, text string) error
}

// Config 通知发送器配置
type Config struct {
	BotToken      string
	AdminChatID   int64
	RetryAttempts int
	RetryBackoff  time.Duration
}

// BotNotifier 基于 Bot API 的通知发送器
type BotNotifier struct {
	bot    *tgbotapi.BotAPI
	config *Config
	logger *zap.Logger
}

// ErrPermanent 不可重试的发送错误
var ErrPermanent = errors.New("telegram: permanent send failure")

// NewBotNotifier 创建 Telegram 通知发送器
func NewBotNotifier(config *Config, logger *zap.Logger) (*BotNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("创建 Telegram Bot 失败: %w", err)
	}

	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = 2 * time.Second
	}

	return &BotNotifier{
		bot:    bot,
		config: config,
		logger: logger,
	}, nil
}

// SendMessage 发送 HTML 格式消息（瞬时错误自动重试）
func (n *BotNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	var lastErr error
	for attempt := 1; attempt <= n.config.RetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := n.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if isPermanentError(err) {
			n.logger.Warn("Telegram 消息发送被永久拒绝",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}

		n.logger.Warn("Telegram 消息发送失败，准备重试",
			zap.Int64("chat_id", chatID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < n.config.RetryAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.config.RetryBackoff):
			}
		}
	}

	return fmt.Errorf("Telegram 消息发送失败（已重试 %d 次）: %w", n.config.RetryAttempts, lastErr)
}

// NotifyAdmin 发送管理员告警
func (n *BotNotifier) NotifyAdmin(ctx context.Context, text string) error {
	if n.config.AdminChatID == 0 {
		return nil
	}
	return n.SendMessage(ctx, n.config.AdminChatID, text)
}

// isPermanentError 判断是否为不可重试的错误
//
// 4xx 为请求本身的问题（chat 不存在、被用户拉黑、消息格式错误），
// 重试不会成功；其余视为瞬时错误。
func isPermanentError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429
	}
	return false
}
