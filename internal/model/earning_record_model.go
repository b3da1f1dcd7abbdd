package model

import (
	"time"
)

// EarningRecordModel 收益台账（只追加，结算时的分成快照随记录冻结）
type EarningRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TransactionId string `json:"transaction_id" gorm:"uniqueIndex;not null"`
	Kind          string `json:"kind" gorm:"not null"` // tip, tick, purchase
	SessionId     string `json:"session_id"`
	PayerId       string `json:"payer_id" gorm:"not null"`
	PayeeId       string `json:"payee_id" gorm:"not null;index"` // 主播
	StudioId      string `json:"studio_id" gorm:"index"`
	ReferrerId    string `json:"referrer_id"`

	GrossAmount    int64 `json:"gross_amount" gorm:"not null"`
	ConversionRate int64 `json:"conversion_rate" gorm:"not null"` // 结算时刻的代币折算率（分/代币）

	// 分成快照（基点，合计10000）
	PlatformBps  int64 `json:"platform_bps"`
	StudioBps    int64 `json:"studio_bps"`
	PerformerBps int64 `json:"performer_bps"`
	ReferralBps  int64 `json:"referral_bps"`

	// 各方净额（合计等于 GrossAmount，取整余数归平台）
	NetToPlatform  int64 `json:"net_to_platform"`
	NetToStudio    int64 `json:"net_to_studio"`
	NetToPerformer int64 `json:"net_to_performer"`
	NetToReferrer  int64 `json:"net_to_referrer"`

	PayoutStatus string `json:"payout_status" gorm:"default:'pending';index"` // pending, approved, done, rejected
}

// PayoutStatus 提现审批状态
type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"  // 待审批
	PayoutStatusApproved PayoutStatus = "approved" // 已批准
	PayoutStatusDone     PayoutStatus = "done"     // 已支付
	PayoutStatusRejected PayoutStatus = "rejected" // 已驳回
)

// TableName 自定义表名
func (EarningRecordModel) TableName() string {
	return "earning_record"
}
