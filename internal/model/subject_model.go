package model

import (
	"time"
)

// SubjectModel 余额主体（用户/主播/公会）
type SubjectModel struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Role             string `json:"role" gorm:"not null"`      // user, performer, studio
	Balance          int64  `json:"balance" gorm:"default:0"`  // 余额（代币最小单位）
	TotalTokenEarned int64  `json:"total_token_earned" gorm:"default:0"` // 累计收入（统计用）
	TotalTokenSpent  int64  `json:"total_token_spent" gorm:"default:0"`  // 累计支出（统计用）
}

// SubjectRole 主体角色
type SubjectRole string

const (
	SubjectRoleUser      SubjectRole = "user"      // 观众
	SubjectRolePerformer SubjectRole = "performer" // 主播
	SubjectRoleStudio    SubjectRole = "studio"    // 公会
)

// TableName 自定义表名
func (SubjectModel) TableName() string {
	return "subject"
}
