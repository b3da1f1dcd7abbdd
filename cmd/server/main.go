package main

import (
	"time"

	"github.com/blues/livepay/internal/billing"
	"github.com/blues/livepay/internal/config"
	"github.com/blues/livepay/internal/event"
	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/logic"
	"github.com/blues/livepay/internal/notify"
	"github.com/blues/livepay/internal/repository"
	"github.com/blues/livepay/internal/router"
	"github.com/blues/livepay/internal/scheduler"
	"github.com/blues/livepay/internal/session"
	"github.com/gin-gonic/gin"
)

// 事件总线分发协程池大小
const dispatchPoolSize = 64

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Setup(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 通知出口（实际推送通道由信令服务接入）
	notifier := notify.NewLogNotifier()

	// 业务逻辑
	balances := logic.NewBalanceLogic(db)
	commissions := logic.NewCommissionLogic(db, logic.SnapshotFromConfig(cfg.Commission))
	guard := logic.NewGuardLogic(db)
	ledger := logic.NewLedgerLogic(db, cfg.Token.ConversionRate)
	rates := logic.NewRateLogic(db)
	settlement := logic.NewSettlementLogic(db, guard, balances, commissions, ledger, notifier)

	// 会话协调与计费环
	coordinator := session.NewCoordinator(db, notifier)
	meter := billing.NewMeter(
		coordinator,
		settlement,
		balances,
		notifier,
		time.Duration(cfg.Billing.TickInterval)*time.Second,
		cfg.Billing.SettleRetry,
	)
	coordinator.AddListener(meter)
	defer meter.Stop()

	// 事件总线与处理器
	bus, err := event.NewBus(dispatchPoolSize)
	if err != nil {
		logger.Fatal("Failed to create event bus: %v", err)
	}
	defer bus.Close()
	bus.Subscribe(event.TopicPresence, event.NewPresenceProcessor(coordinator).Handle)
	bus.Subscribe(event.TopicMonetization, event.NewMonetizationProcessor(settlement).Handle)

	// 启动定时任务
	manager := scheduler.Start(cfg, guard, ledger, settlement, coordinator)
	defer manager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		Coordinator: coordinator,
		Balances:    balances,
		Ledger:      ledger,
		Rates:       rates,
		Bus:         bus,
	})

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
