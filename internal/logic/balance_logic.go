package logic

import (
	"errors"
	"fmt"

	"github.com/blues/livepay/internal/model"
	"gorm.io/gorm"
)

// BalanceLogic 余额业务逻辑
type BalanceLogic struct {
	db *gorm.DB
}

// NewBalanceLogic 创建余额业务逻辑
func NewBalanceLogic(db *gorm.DB) *BalanceLogic {
	return &BalanceLogic{db: db}
}

// Debit 扣减余额。条件更新保证原子性：两个并发扣款之和超过余额时必有一个失败。
// tx 为调用方的事务句柄，传入 nil 时使用默认连接。
func (b *BalanceLogic) Debit(tx *gorm.DB, subjectId string, amount int64) error {
	if amount <= 0 {
		return errors.New("扣款金额必须大于0")
	}
	if tx == nil {
		tx = b.db
	}

	res := tx.Model(&model.SubjectModel{}).
		Where("id = ? AND balance >= ?", subjectId, amount).
		Updates(map[string]interface{}{
			"balance":           gorm.Expr("balance - ?", amount),
			"total_token_spent": gorm.Expr("total_token_spent + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("扣减余额失败: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// 区分主体不存在与余额不足
		var count int64
		if err := tx.Model(&model.SubjectModel{}).Where("id = ?", subjectId).Count(&count).Error; err != nil {
			return fmt.Errorf("查询主体失败: %w", err)
		}
		if count == 0 {
			return ErrSubjectNotFound
		}
		return ErrInsufficientFunds
	}

	return nil
}

// Credit 增加余额，可安全乱序执行
func (b *BalanceLogic) Credit(tx *gorm.DB, subjectId string, amount int64) error {
	if amount <= 0 {
		return errors.New("入账金额必须大于0")
	}
	if tx == nil {
		tx = b.db
	}

	res := tx.Model(&model.SubjectModel{}).
		Where("id = ?", subjectId).
		Updates(map[string]interface{}{
			"balance":            gorm.Expr("balance + ?", amount),
			"total_token_earned": gorm.Expr("total_token_earned + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("增加余额失败: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrSubjectNotFound
	}

	return nil
}

// GetBalance 查询主体余额（不加锁，适用于读接口与计费预检查）
func (b *BalanceLogic) GetBalance(subjectId string) (int64, error) {
	var subject model.SubjectModel
	if err := b.db.First(&subject, "id = ?", subjectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrSubjectNotFound
		}
		return 0, fmt.Errorf("查询余额失败: %w", err)
	}

	return subject.Balance, nil
}

// GetSubject 查询主体
func (b *BalanceLogic) GetSubject(subjectId string) (*model.SubjectModel, error) {
	var subject model.SubjectModel
	if err := b.db.First(&subject, "id = ?", subjectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("查询主体失败: %w", err)
	}

	return &subject, nil
}
