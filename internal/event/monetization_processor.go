package event

import (
	"errors"

	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/logic"
	"github.com/blues/livepay/internal/model"
)

// Settler 货币化事件处理器依赖的结算能力
type Settler interface {
	Settle(event *model.MonetizationEventModel) (*model.EarningRecordModel, error)
}

// MonetizationProcessor 货币化事件处理器：把 monetization 主题的打赏触发
// 交给结算编排。重复投递由结算层的幂等认领挡下。
type MonetizationProcessor struct {
	settler Settler
}

// NewMonetizationProcessor 创建货币化事件处理器
func NewMonetizationProcessor(settler Settler) *MonetizationProcessor {
	return &MonetizationProcessor{settler: settler}
}

// Handle 处理单个打赏事件
func (p *MonetizationProcessor) Handle(payload interface{}) {
	tip, ok := payload.(TipEvent)
	if !ok {
		logger.Warn("Monetization processor received unexpected payload type %T", payload)
		return
	}

	event := &model.MonetizationEventModel{
		EventId:       tip.EventId,
		TransactionId: tip.TipId,
		Kind:          string(model.EventKindTip),
		SessionId:     tip.SessionId,
		PayerId:       tip.PayerId,
		PayeeId:       tip.PayeeId,
		GrossAmount:   tip.Amount,
		OccurredAt:    tip.OccurredAt,
	}

	_, err := p.settler.Settle(event)
	switch {
	case err == nil:
	case errors.Is(err, logic.ErrDuplicateEvent):
		logger.Info("Duplicate tip skipped: tip=%s", tip.TipId)
	case errors.Is(err, logic.ErrInsufficientFunds):
		logger.Warn("Tip rejected, insufficient funds: tip=%s payer=%s amount=%d", tip.TipId, tip.PayerId, tip.Amount)
	default:
		logger.Error("Tip settlement failed: tip=%s: %v", tip.TipId, err)
	}
}
