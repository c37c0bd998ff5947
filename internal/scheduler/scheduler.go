// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/escortdollars/affiliate-backend/internal/common/logger"
)

// TaskTimeout 单次任务执行超时
const TaskTimeout = 5 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
	}
}

// AddTask 按 cron 表达式注册任务
func (s *Scheduler) AddTask(name, spec string, handler func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), TaskTimeout)
		defer cancel()

		start := time.Now()
		if err := handler(ctx); err != nil {
			logger.Error("定时任务执行失败",
				zap.String("task", name),
				zap.Error(err),
			)
			return
		}
		logger.Info("定时任务完成",
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
	return err
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info("定时任务调度器启动", zap.Int("tasks", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop 停止调度器并等待在途任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("定时任务调度器已停止")
}
