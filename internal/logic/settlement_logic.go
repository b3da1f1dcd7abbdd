package logic

import (
	"errors"
	"fmt"

	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/model"
	"github.com/blues/livepay/internal/notify"
	"gorm.io/gorm"
)

// SettlementLogic 结算编排：认领去重 -> 扣款 -> 分成 -> 入账 -> 写台账 -> 通知。
// 扣款、入账与台账写入在同一个数据库事务中，认领与事务之间崩溃不会留下
// 部分变更，由恢复任务按认领记录重驱动。
type SettlementLogic struct {
	db          *gorm.DB
	guard       *GuardLogic
	balances    *BalanceLogic
	commissions *CommissionLogic
	ledger      *LedgerLogic
	notifier    notify.Notifier
}

// NewSettlementLogic 创建结算编排逻辑
func NewSettlementLogic(
	db *gorm.DB,
	guard *GuardLogic,
	balances *BalanceLogic,
	commissions *CommissionLogic,
	ledger *LedgerLogic,
	notifier notify.Notifier,
) *SettlementLogic {
	return &SettlementLogic{
		db:          db,
		guard:       guard,
		balances:    balances,
		commissions: commissions,
		ledger:      ledger,
		notifier:    notifier,
	}
}

// CurrentSnapshot 当前分成配置快照（计费环在排期时捕获）
func (s *SettlementLogic) CurrentSnapshot() CommissionSnapshot {
	return s.commissions.Snapshot()
}

// Settle 使用当前配置快照结算事件
func (s *SettlementLogic) Settle(event *model.MonetizationEventModel) (*model.EarningRecordModel, error) {
	return s.SettleWithSnapshot(event, s.commissions.Snapshot())
}

// SettleWithSnapshot 结算事件。重复投递返回 ErrDuplicateEvent（对调用方是成功）。
// 余额不足返回 ErrInsufficientFunds，且认领保留——失败的交易号不允许重试。
func (s *SettlementLogic) SettleWithSnapshot(event *model.MonetizationEventModel, snap CommissionSnapshot) (*model.EarningRecordModel, error) {
	if err := s.validateEvent(event); err != nil {
		return nil, err
	}

	claimed, err := s.guard.TryClaim(event)
	if err != nil {
		return nil, fmt.Errorf("结算认领失败: %w", err)
	}
	if !claimed {
		existing, gerr := s.guard.GetByTransactionId(event.TransactionId)
		if gerr == nil && existing.Status == string(model.EventStatusClaimed) {
			// 先前的认领者崩溃或仍在结算中：重驱动。并发竞争由台账唯一约束兜底。
			logger.Info("Re-driving unsettled claim: txid=%s", event.TransactionId)
			return s.SettleClaimed(existing, snap)
		}
		logger.Info("Duplicate monetization event skipped: txid=%s kind=%s", event.TransactionId, event.Kind)
		return nil, ErrDuplicateEvent
	}

	return s.SettleClaimed(event, snap)
}

// SettleClaimed 结算已认领的事件（首次结算与恢复任务重驱动共用此路径）。
// 事务内的台账唯一约束兜底了两个实例同时越过认领检查的竞争。
func (s *SettlementLogic) SettleClaimed(event *model.MonetizationEventModel, snap CommissionSnapshot) (*model.EarningRecordModel, error) {
	resolution := s.commissions.ResolveWith(snap, event.PayeeId, event.Kind)

	var record *model.EarningRecordModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.balances.Debit(tx, event.PayerId, event.GrossAmount); err != nil {
			return err
		}

		gross := event.GrossAmount
		credits := []struct {
			subjectId string
			amount    int64
		}{
			{event.PayeeId, gross * resolution.Split.PerformerBps / TotalBps},
			{resolution.StudioId, gross * resolution.Split.StudioBps / TotalBps},
			{resolution.ReferrerId, gross * resolution.Split.ReferralBps / TotalBps},
		}
		for _, c := range credits {
			if c.subjectId == "" || c.amount <= 0 {
				continue
			}
			if err := s.balances.Credit(tx, c.subjectId, c.amount); err != nil {
				return fmt.Errorf("受益方 %s 入账失败: %w", c.subjectId, err)
			}
		}

		var err error
		record, err = s.ledger.Record(tx, event, resolution)
		return err
	})
	if err != nil {
		return nil, s.settleFailure(event, err)
	}

	if merr := s.guard.MarkSettled(event.TransactionId); merr != nil {
		// 状态标记是尽力而为，台账已落盘即结算成功
		logger.Warn("Failed to mark event settled: txid=%s: %v", event.TransactionId, merr)
	}

	s.notifyPayer(event)

	return record, nil
}

// settleFailure 结算事务失败的归类处理
func (s *SettlementLogic) settleFailure(event *model.MonetizationEventModel, err error) error {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		// 认领保留：失败的 transaction_id 不允许重试，防止重试风暴
		if merr := s.guard.MarkFailed(event.TransactionId); merr != nil {
			logger.Warn("Failed to mark event failed: txid=%s: %v", event.TransactionId, merr)
		}
		return ErrInsufficientFunds
	case errors.Is(err, ErrDuplicateEvent):
		// 两个实例同时越过认领检查，台账唯一约束挡下了后到者
		logger.Info("Ledger uniqueness backstop hit: txid=%s", event.TransactionId)
		return ErrDuplicateEvent
	case errors.Is(err, ErrSubjectNotFound):
		if merr := s.guard.MarkFailed(event.TransactionId); merr != nil {
			logger.Warn("Failed to mark event failed: txid=%s: %v", event.TransactionId, merr)
		}
		logger.Error("Settlement aborted, subject missing: txid=%s payer=%s payee=%s", event.TransactionId, event.PayerId, event.PayeeId)
		return err
	default:
		// 认领保持 claimed，恢复任务稍后重驱动；完整事件载荷进日志供人工对账
		logger.Error("Settlement failed, will be re-driven: txid=%s kind=%s payer=%s payee=%s gross=%d: %v",
			event.TransactionId, event.Kind, event.PayerId, event.PayeeId, event.GrossAmount, err)
		return fmt.Errorf("结算事务失败: %w", err)
	}
}

func (s *SettlementLogic) notifyPayer(event *model.MonetizationEventModel) {
	balance, err := s.balances.GetBalance(event.PayerId)
	if err != nil {
		logger.Warn("Failed to load payer balance for notification: %s: %v", event.PayerId, err)
		return
	}
	s.notifier.BalanceChanged(event.PayerId, -event.GrossAmount, balance)
}

// validateEvent 验证事件数据
func (s *SettlementLogic) validateEvent(event *model.MonetizationEventModel) error {
	if event.TransactionId == "" {
		return errors.New("transaction_id不能为空")
	}
	if event.PayerId == "" {
		return errors.New("付费方不能为空")
	}
	if event.PayeeId == "" {
		return errors.New("收款方不能为空")
	}
	if event.GrossAmount <= 0 {
		return errors.New("金额必须大于0")
	}
	return nil
}
