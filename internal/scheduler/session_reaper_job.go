package scheduler

import (
	"time"

	"github.com/blues/livepay/internal/config"
	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/session"
	"github.com/go-co-op/gocron/v2"
)

// SessionReaperJob 空闲会话回收任务：主播断线不会产生 leave 事件，
// 长时间无成员活动的会话由这里兜底结束。
type SessionReaperJob struct {
	config      *config.Config
	coordinator *session.Coordinator
}

// NewSessionReaperJob 创建空闲会话回收任务
func NewSessionReaperJob(cfg *config.Config, coordinator *session.Coordinator) *SessionReaperJob {
	return &SessionReaperJob{
		config:      cfg,
		coordinator: coordinator,
	}
}

// GetName 获取任务名称
func (j *SessionReaperJob) GetName() string {
	return "session_reaper"
}

// GetSchedule 获取调度配置
func (j *SessionReaperJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.ReaperInterval) * time.Second)
}

// Execute 执行任务
func (j *SessionReaperJob) Execute() {
	timeout := time.Duration(j.config.Billing.IdleTimeout) * time.Second
	reaped := j.coordinator.ReapIdle(timeout)
	if reaped > 0 {
		logger.Info("Session reaper ended %d idle sessions", reaped)
	}
}
