package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/livepay/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GuardLogic 事件幂等认领逻辑。认领即插入带唯一约束的记录，
// 冲突解释为"已被认领"而非错误。
type GuardLogic struct {
	db *gorm.DB
}

// NewGuardLogic 创建幂等认领逻辑
func NewGuardLogic(db *gorm.DB) *GuardLogic {
	return &GuardLogic{db: db}
}

// TryClaim 尝试认领事件。返回 false 表示该 transaction_id 已被认领过。
// 认领本身是原子的唯一约束插入，不是先查后插。
func (g *GuardLogic) TryClaim(event *model.MonetizationEventModel) (bool, error) {
	if event.TransactionId == "" {
		return false, errors.New("事件缺少transaction_id")
	}

	err := g.db.Create(event).Error
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("认领事件失败: %w", err)
	}

	return true, nil
}

// MarkSettled 标记事件已结算（尽力而为，台账才是事实来源）
func (g *GuardLogic) MarkSettled(transactionId string) error {
	return g.updateStatus(transactionId, model.EventStatusSettled)
}

// MarkFailed 标记事件结算失败。认领保留，防止重试风暴。
func (g *GuardLogic) MarkFailed(transactionId string) error {
	return g.updateStatus(transactionId, model.EventStatusFailed)
}

func (g *GuardLogic) updateStatus(transactionId string, status model.EventStatus) error {
	err := g.db.Model(&model.MonetizationEventModel{}).
		Where("transaction_id = ?", transactionId).
		Update("status", string(status)).Error
	if err != nil {
		return fmt.Errorf("更新事件状态失败: %w", err)
	}
	return nil
}

// GetByTransactionId 按去重键查询认领记录
func (g *GuardLogic) GetByTransactionId(transactionId string) (*model.MonetizationEventModel, error) {
	var event model.MonetizationEventModel
	if err := g.db.Where("transaction_id = ?", transactionId).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("事件不存在")
		}
		return nil, fmt.Errorf("查询事件失败: %w", err)
	}
	return &event, nil
}

// UnsettledClaims 查询已认领但长时间未结算的事件，供恢复任务重驱动
func (g *GuardLogic) UnsettledClaims(olderThan time.Time, limit int) ([]model.MonetizationEventModel, error) {
	var events []model.MonetizationEventModel
	err := g.db.Where("status = ? AND created_at < ?", string(model.EventStatusClaimed), olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("查询未结算事件失败: %w", err)
	}
	return events, nil
}

// isDuplicateKey 识别唯一约束冲突。gorm 的 TranslateError 覆盖常见驱动，
// 直连 postgres 时再兜底检查 23505。
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
