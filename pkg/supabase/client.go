// Package supabase 提供 Supabase PostgREST 数据镜像客户端
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config Supabase 配置
type Config struct {
	URL        string // 项目地址，如 https://xyz.supabase.co
	ServiceKey string // service_role 密钥
	Timeout    time.Duration
}

// Mirror 数据镜像接口
type Mirror interface {
	Upsert(ctx context.Context, table, conflictCol string, row interface{}) error
	GetOne(ctx context.Context, table, column, value string, out interface{}) error
}

// Client 基于 PostgREST 的镜像客户端
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient 创建 Supabase 客户端
func NewClient(config *Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// restURL 拼接 PostgREST 表地址
func (c *Client) restURL(table string) string {
	return strings.TrimRight(c.config.URL, "/") + "/rest/v1/" + table
}

// setHeaders 设置认证头
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.config.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.config.ServiceKey)
	req.Header.Set("Content-Type", "application/json")
}

// Upsert 按冲突列写入或更新一行
func (c *Client) Upsert(ctx context.Context, table, conflictCol string, row interface{}) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("序列化 Supabase 数据失败: %w", err)
	}

	target := c.restURL(table)
	if conflictCol != "" {
		target += "?on_conflict=" + url.QueryEscape(conflictCol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造 Supabase 请求失败: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 Supabase 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Supabase 返回状态码 %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

// GetOne 按单列等值条件查询一行
func (c *Client) GetOne(ctx context.Context, table, column, value string, out interface{}) error {
	query := url.Values{}
	query.Set(column, "eq."+value)
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL(table)+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("构造 Supabase 请求失败: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 Supabase 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Supabase 返回状态码 %d", resp.StatusCode)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return fmt.Errorf("解析 Supabase 响应失败: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal(rows[0], out)
}

// ErrNotFound 查询无结果
var ErrNotFound = fmt.Errorf("supabase: row not found")
