package model

import (
	"time"
)

// MonetizationEventModel 货币化事件认领记录（transaction_id 唯一约束即幂等保证）
type MonetizationEventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId       string    `json:"event_id"`                                 // 发起方标识（审计用，多生产者竞争时区分来源）
	TransactionId string    `json:"transaction_id" gorm:"uniqueIndex;not null"` // 业务去重键
	Kind          string    `json:"kind" gorm:"not null"`                     // tip, tick, purchase
	SessionId     string    `json:"session_id"`
	PayerId       string    `json:"payer_id" gorm:"not null"`
	PayeeId       string    `json:"payee_id" gorm:"not null"`
	GrossAmount   int64     `json:"gross_amount" gorm:"not null"`
	OccurredAt    time.Time `json:"occurred_at"`
	Status        string    `json:"status" gorm:"default:'claimed'"` // claimed, settled, failed
}

// EventKind 货币化事件类型
type EventKind string

const (
	EventKindTip      EventKind = "tip"      // 打赏
	EventKindTick     EventKind = "tick"     // 计费周期
	EventKindPurchase EventKind = "purchase" // 商品购买
)

// EventStatus 事件认领状态
type EventStatus string

const (
	EventStatusClaimed EventStatus = "claimed" // 已认领，结算中
	EventStatusSettled EventStatus = "settled" // 已结算
	EventStatusFailed  EventStatus = "failed"  // 结算失败（认领保留，防止重试风暴）
)

// TableName 自定义表名
func (MonetizationEventModel) TableName() string {
	return "monetization_event"
}
