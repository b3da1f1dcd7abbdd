package model

import (
	"time"
)

// PerformerModel 主播资料（价目表与分成覆盖）
type PerformerModel struct {
	Id        string    `json:"id" gorm:"primaryKey"` // 与 SubjectModel.Id 一致
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StudioId     string `json:"studio_id" gorm:"index"`          // 所属公会，空表示独立主播
	PrivatePrice int64  `json:"private_price" gorm:"default:0"`  // 私聊价格（代币/分钟）
	GroupPrice   int64  `json:"group_price" gorm:"default:0"`    // 群聊价格（代币/分钟）

	// 按交易类型覆盖平台分成（基点），为空时使用全局默认
	TipPlatformBps  *int64 `json:"tip_platform_bps"`
	TickPlatformBps *int64 `json:"tick_platform_bps"`
}

// TableName 自定义表名
func (PerformerModel) TableName() string {
	return "performer"
}
