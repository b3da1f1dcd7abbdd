package model

import (
	"time"
)

// SessionModel 直播会话记录（成员列表由协调器在内存中维护，此表用于生命周期与报表）
type SessionModel struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind            string     `json:"kind" gorm:"not null"`              // private, group, public
	HostPerformerId string     `json:"host_performer_id" gorm:"not null"` // 主播
	PayerId         string     `json:"payer_id"`                          // 计费方，公开直播为空
	UnitPrice       int64      `json:"unit_price" gorm:"default:0"`       // 单价（代币/分钟）
	Status          string     `json:"status" gorm:"default:'requested'"` // requested, active, ended
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	EndReason       string     `json:"end_reason"`
	TotalTicks      int64      `json:"total_ticks" gorm:"default:0"` // 已结算的计费周期数
}

// SessionKind 会话类型
type SessionKind string

const (
	SessionKindPrivate SessionKind = "private" // 私聊
	SessionKindGroup   SessionKind = "group"   // 群聊
	SessionKindPublic  SessionKind = "public"  // 公开直播
)

// SessionStatus 会话状态
type SessionStatus string

const (
	SessionStatusRequested SessionStatus = "requested" // 已发起，等待加入
	SessionStatusActive    SessionStatus = "active"    // 进行中
	SessionStatusEnded     SessionStatus = "ended"     // 已结束（终态）
)

// SessionEndReason 会话结束原因
const (
	SessionEndReasonHostStop          = "host_stop"          // 主播主动结束
	SessionEndReasonEmpty             = "empty"              // 成员全部离开
	SessionEndReasonInsufficientFunds = "insufficient_funds" // 余额不足
	SessionEndReasonSettleFailure     = "settle_failure"     // 结算持续失败
	SessionEndReasonIdle              = "idle"               // 空闲超时回收
)

// TableName 自定义表名
func (SessionModel) TableName() string {
	return "live_session"
}
