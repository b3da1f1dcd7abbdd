package model

import (
	"time"
)

// ReferralModel 推荐关系记录
type ReferralModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ReferrerId    string    `json:"referrer_id" gorm:"not null"`        // 推荐人
	PerformerId   string    `json:"performer_id" gorm:"not null;index"` // 被推荐主播
	CommissionBps int64     `json:"commission_bps" gorm:"default:0"`    // 推荐分成（基点），0表示使用全局默认
	ExpiresAt     time.Time `json:"expires_at" gorm:"not null"`         // 到期时间（创建后一年）
}

// Active 推荐关系在给定时间是否有效
func (r *ReferralModel) Active(at time.Time) bool {
	return at.Before(r.ExpiresAt)
}

// TableName 自定义表名
func (ReferralModel) TableName() string {
	return "referral"
}
