package supabase

import (
	"context"
	"encoding/json"
	"sync"
)

// MockMirror 模拟镜像客户端（用于开发/测试）
type MockMirror struct {
	mu       sync.Mutex
	Upserts  []MockUpsert
	FailWith error
}

// MockUpsert 记录的一次写入
type MockUpsert struct {
	Table string
	Row   interface{}
}

// NewMockMirror 创建模拟镜像客户端
func NewMockMirror() *MockMirror {
	return &MockMirror{
		Upserts: make([]MockUpsert, 0),
	}
}

// Upsert 模拟写入
func (m *MockMirror) Upsert(ctx context.Context, table, conflictCol string, row interface{}) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserts = append(m.Upserts, MockUpsert{Table: table, Row: row})
	return nil
}

// GetOne 模拟查询，返回最近一次写入该表的行
func (m *MockMirror) GetOne(ctx context.Context, table, column, value string, out interface{}) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Upserts) - 1; i >= 0; i-- {
		if m.Upserts[i].Table == table {
			data, err := json.Marshal(m.Upserts[i].Row)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, out)
		}
	}
	return ErrNotFound
}

// CountByTable 统计写入某表的次数
func (m *MockMirror) CountByTable(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, u := range m.Upserts {
		if u.Table == table {
			count++
		}
	}
	return count
}

// Clear 清空记录
func (m *MockMirror) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Upserts = make([]MockUpsert, 0)
}
