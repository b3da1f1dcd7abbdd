package logic

import (
	"errors"
	"fmt"

	"github.com/blues/livepay/internal/model"
	"gorm.io/gorm"
)

// RateLogic 主播价目表查询
type RateLogic struct {
	db *gorm.DB
}

// NewRateLogic 创建价目表逻辑
func NewRateLogic(db *gorm.DB) *RateLogic {
	return &RateLogic{db: db}
}

// UnitPrice 查询主播在指定会话类型下的每分钟价格。公开直播不计费。
func (r *RateLogic) UnitPrice(performerId string, kind model.SessionKind) (int64, error) {
	if kind == model.SessionKindPublic {
		return 0, nil
	}

	var performer model.PerformerModel
	if err := r.db.First(&performer, "id = ?", performerId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.New("主播不存在")
		}
		return 0, fmt.Errorf("查询主播价目表失败: %w", err)
	}

	switch kind {
	case model.SessionKindPrivate:
		return performer.PrivatePrice, nil
	case model.SessionKindGroup:
		return performer.GroupPrice, nil
	default:
		return 0, fmt.Errorf("未知的会话类型: %s", kind)
	}
}
