package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/logic"
	"github.com/blues/livepay/internal/model"
	"github.com/blues/livepay/internal/notify"
	"github.com/blues/livepay/internal/session"
)

// Coordinator 计费环依赖的会话协调器能力
type Coordinator interface {
	IsActive(sessionId string) bool
	End(sessionId, reason string) error
	RecordTick(sessionId string)
}

// Settler 计费环依赖的结算能力
type Settler interface {
	CurrentSnapshot() logic.CommissionSnapshot
	SettleWithSnapshot(event *model.MonetizationEventModel, snap logic.CommissionSnapshot) (*model.EarningRecordModel, error)
}

// BalanceReader 余额预检查
type BalanceReader interface {
	GetBalance(subjectId string) (int64, error)
}

// TickTransactionId 计费周期的去重键：由会话ID与周期序号确定性导出，
// 同一周期的重试天然去重。
func TickTransactionId(sessionId string, seq int64) string {
	return fmt.Sprintf("tick:%s:%d", sessionId, seq)
}

// Meter 按分钟计费环。每个计费会话一个 goroutine，会话结束（任何原因）
// 即取消待执行的下一个周期——绝不允许僵尸定时器在会话结束后继续扣款。
type Meter struct {
	coordinator Coordinator
	settler     Settler
	balances    BalanceReader
	notifier    notify.Notifier
	clock       Clock
	interval    time.Duration
	retries     int

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewMeter 创建计费环
func NewMeter(
	coordinator Coordinator,
	settler Settler,
	balances BalanceReader,
	notifier notify.Notifier,
	interval time.Duration,
	retries int,
) *Meter {
	return &Meter{
		coordinator: coordinator,
		settler:     settler,
		balances:    balances,
		notifier:    notifier,
		clock:       realClock{},
		interval:    interval,
		retries:     retries,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// OnSessionActive 实现 session.LifecycleListener：
// 有付费方且单价大于0的会话进入 active 即开始计费。
func (m *Meter) OnSessionActive(snap session.Snapshot) {
	if snap.PayerId == "" || snap.UnitPrice <= 0 {
		return
	}

	m.mu.Lock()
	if _, running := m.cancels[snap.Id]; running {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[snap.Id] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	logger.Info("Metering started: session=%s payer=%s price=%d/min", snap.Id, snap.PayerId, snap.UnitPrice)
	go m.loop(ctx, snap)
}

// OnSessionEnded 实现 session.LifecycleListener：取消该会话的计费定时器。
// 进行中的结算允许完成（已产生的欠费照常收取），但不再排期新的周期。
func (m *Meter) OnSessionEnded(sessionId string, reason string) {
	m.mu.Lock()
	cancel, ok := m.cancels[sessionId]
	if ok {
		delete(m.cancels, sessionId)
	}
	m.mu.Unlock()

	if ok {
		cancel()
		logger.Info("Metering cancelled: session=%s reason=%s", sessionId, reason)
	}
}

// Stop 停止全部计费环并等待退出
func (m *Meter) Stop() {
	m.mu.Lock()
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Meter) loop(ctx context.Context, snap session.Snapshot) {
	defer m.wg.Done()
	defer m.release(snap.Id)

	// 配置快照在排期时捕获：本会话的全部周期用同一份分成配置
	cfgSnap := m.settler.CurrentSnapshot()

	for seq := int64(1); ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.interval):
		}

		// 成员事件与计费周期各自独立到达：会话已不在 active 时该周期退化为 no-op
		if !m.coordinator.IsActive(snap.Id) {
			return
		}
		if !m.tick(snap, cfgSnap, seq) {
			return
		}
	}
}

// tick 执行一个计费周期，返回 false 表示停止计费
func (m *Meter) tick(snap session.Snapshot, cfgSnap logic.CommissionSnapshot, seq int64) bool {
	// 预检查：余额不足先通知再终止，不进入结算
	balance, err := m.balances.GetBalance(snap.PayerId)
	if err != nil {
		logger.Warn("Balance pre-check failed for %s, deferring to settlement: %v", snap.PayerId, err)
	} else if balance < snap.UnitPrice {
		m.insufficient(snap)
		return false
	}

	event := &model.MonetizationEventModel{
		EventId:       fmt.Sprintf("meter:%s", snap.Id),
		TransactionId: TickTransactionId(snap.Id, seq),
		Kind:          string(model.EventKindTick),
		SessionId:     snap.Id,
		PayerId:       snap.PayerId,
		PayeeId:       snap.HostPerformerId,
		GrossAmount:   snap.UnitPrice,
		OccurredAt:    m.clock.Now(),
	}

	for attempt := 0; ; attempt++ {
		_, err := m.settler.SettleWithSnapshot(event, cfgSnap)
		switch {
		case err == nil, errors.Is(err, logic.ErrDuplicateEvent):
			m.coordinator.RecordTick(snap.Id)
			return true
		case errors.Is(err, logic.ErrInsufficientFunds):
			m.insufficient(snap)
			return false
		default:
			logger.Error("Tick settlement failed: session=%s seq=%d attempt=%d: %v", snap.Id, seq, attempt+1, err)
			if attempt >= m.retries {
				// 依赖持续故障时不允许盲目计费，防御性结束会话
				if eerr := m.coordinator.End(snap.Id, model.SessionEndReasonSettleFailure); eerr != nil {
					logger.Error("Failed to end session %s: %v", snap.Id, eerr)
				}
				return false
			}
		}
	}
}

func (m *Meter) insufficient(snap session.Snapshot) {
	m.notifier.InsufficientFunds(snap.PayerId, snap.Id, snap.UnitPrice)
	if err := m.coordinator.End(snap.Id, model.SessionEndReasonInsufficientFunds); err != nil {
		logger.Error("Failed to end session %s: %v", snap.Id, err)
	}
}

func (m *Meter) release(sessionId string) {
	m.mu.Lock()
	cancel, ok := m.cancels[sessionId]
	if ok {
		delete(m.cancels, sessionId)
	}
	m.mu.Unlock()
	if ok {
		cancel()
	}
}
