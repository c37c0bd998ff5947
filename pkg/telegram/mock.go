package telegram

import (
	"context"
	"sync"
	"time"
)

// MockNotifier 模拟通知发送器（用于开发/测试）
type MockNotifier struct {
	mu           sync.Mutex
	SentMessages []MockMessage
	FailWith     error
}

// MockMessage 模拟消息
type MockMessage struct {
	ChatID int64
	Text   string
	SentAt time.Time
}

// NewMockNotifier 创建模拟通知发送器
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		SentMessages: make([]MockMessage, 0),
	}
}

// SendMessage 模拟发送
func (m *MockNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, MockMessage{
		ChatID: chatID,
		Text:   text,
		SentAt: time.Now(),
	})
	return nil
}

// NotifyAdmin 模拟管理员告警
func (m *MockNotifier) NotifyAdmin(ctx context.Context, text string) error {
	return m.SendMessage(ctx, 0, text)
}

// GetLastMessage 获取最后发送的消息
func (m *MockNotifier) GetLastMessage() *MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentMessages) == 0 {
		return nil
	}
	return &m.SentMessages[len(m.SentMessages)-1]
}

// Clear 清空消息记录
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = make([]MockMessage, 0)
}
