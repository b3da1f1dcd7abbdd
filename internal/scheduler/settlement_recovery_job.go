package scheduler

import (
	"errors"
	"time"

	"github.com/blues/livepay/internal/config"
	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// 单轮恢复任务处理的认领上限
const recoveryBatchSize = 100

// SettlementRecoveryJob 结算恢复任务：重驱动已认领但长时间未结算的事件。
// 进程在认领与结算事务之间崩溃时，认领记录停留在 claimed，
// 这里按台账为准补齐或补标状态。结算路径本身幂等，重驱动安全。
type SettlementRecoveryJob struct {
	config     *config.Config
	guard      *logic.GuardLogic
	ledger     *logic.LedgerLogic
	settlement *logic.SettlementLogic
}

// NewSettlementRecoveryJob 创建结算恢复任务
func NewSettlementRecoveryJob(
	cfg *config.Config,
	guard *logic.GuardLogic,
	ledger *logic.LedgerLogic,
	settlement *logic.SettlementLogic,
) *SettlementRecoveryJob {
	return &SettlementRecoveryJob{
		config:     cfg,
		guard:      guard,
		ledger:     ledger,
		settlement: settlement,
	}
}

// GetName 获取任务名称
func (j *SettlementRecoveryJob) GetName() string {
	return "settlement_recovery"
}

// GetSchedule 获取调度配置
func (j *SettlementRecoveryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.RecoveryInterval) * time.Second)
}

// Execute 执行任务
func (j *SettlementRecoveryJob) Execute() {
	grace := time.Duration(j.config.Scheduler.RecoveryGrace) * time.Second
	claims, err := j.guard.UnsettledClaims(time.Now().Add(-grace), recoveryBatchSize)
	if err != nil {
		logger.Error("Failed to fetch unsettled claims: %v", err)
		return
	}
	if len(claims) == 0 {
		return
	}

	logger.Info("Starting settlement recovery, %d unsettled claims", len(claims))

	recovered := 0
	for i := range claims {
		claim := claims[i]

		// 台账已有记录说明结算成功、只是状态标记丢失
		exists, err := j.ledger.HasRecord(claim.TransactionId)
		if err != nil {
			logger.Error("Failed to check ledger for %s: %v", claim.TransactionId, err)
			continue
		}
		if exists {
			if err := j.guard.MarkSettled(claim.TransactionId); err != nil {
				logger.Warn("Failed to mark claim settled: %s: %v", claim.TransactionId, err)
			}
			continue
		}

		_, err = j.settlement.SettleClaimed(&claim, j.settlement.CurrentSnapshot())
		switch {
		case err == nil, errors.Is(err, logic.ErrDuplicateEvent):
			recovered++
		case errors.Is(err, logic.ErrInsufficientFunds):
			// SettleClaimed 已把认领标记为 failed，不再重试
			logger.Warn("Recovery settle rejected, insufficient funds: txid=%s", claim.TransactionId)
		default:
			logger.Error("Recovery settle failed: txid=%s: %v", claim.TransactionId, err)
		}
	}

	logger.Info("Settlement recovery completed. Recovered %d claims", recovered)
}
