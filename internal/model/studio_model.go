package model

import (
	"time"
)

// StudioModel 公会（主播经纪方）
type StudioModel struct {
	Id        string    `json:"id" gorm:"primaryKey"` // 与 SubjectModel.Id 一致
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string `json:"name"`
	CommissionBps int64  `json:"commission_bps" gorm:"default:0"` // 公会从主播侧份额中抽取的比例（基点）
}

// TableName 自定义表名
func (StudioModel) TableName() string {
	return "studio"
}
