package scheduler

import (
	"github.com/blues/livepay/internal/config"
	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/logic"
	"github.com/blues/livepay/internal/session"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager 创建新的任务管理器
func NewManager() *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{scheduler: s}
}

// Start 启动任务管理器
func Start(
	cfg *config.Config,
	guard *logic.GuardLogic,
	ledger *logic.LedgerLogic,
	settlement *logic.SettlementLogic,
	coordinator *session.Coordinator,
) *Manager {
	manager := NewManager()

	// 注册所有任务
	manager.Register(NewSettlementRecoveryJob(cfg, guard, ledger, settlement))
	manager.Register(NewSessionReaperJob(cfg, coordinator))

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// Register 注册任务
func (m *Manager) Register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return
	}
	m.jobs = append(m.jobs, job)
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
