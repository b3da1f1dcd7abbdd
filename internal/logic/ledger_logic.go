package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/blues/livepay/internal/model"
	"gorm.io/gorm"
)

// LedgerLogic 收益台账业务逻辑（只追加）
type LedgerLogic struct {
	db             *gorm.DB
	conversionRate int64 // 结算时刻冻结进台账的折算率
}

// NewLedgerLogic 创建台账业务逻辑
func NewLedgerLogic(db *gorm.DB, conversionRate int64) *LedgerLogic {
	return &LedgerLogic{db: db, conversionRate: conversionRate}
}

// Record 追加一条收益记录。各方净额由毛额与分成快照计算，
// 整数取整的余数归平台，保证四项净额之和恒等于毛额。
// transaction_id 的唯一约束是幂等保证在存储层的兜底。
func (l *LedgerLogic) Record(tx *gorm.DB, event *model.MonetizationEventModel, res Resolution) (*model.EarningRecordModel, error) {
	if tx == nil {
		tx = l.db
	}

	gross := event.GrossAmount
	netStudio := gross * res.Split.StudioBps / TotalBps
	netPerformer := gross * res.Split.PerformerBps / TotalBps
	netReferrer := gross * res.Split.ReferralBps / TotalBps
	netPlatform := gross - netStudio - netPerformer - netReferrer

	record := &model.EarningRecordModel{
		TransactionId:  event.TransactionId,
		Kind:           event.Kind,
		SessionId:      event.SessionId,
		PayerId:        event.PayerId,
		PayeeId:        event.PayeeId,
		StudioId:       res.StudioId,
		ReferrerId:     res.ReferrerId,
		GrossAmount:    gross,
		ConversionRate: l.conversionRate,
		PlatformBps:    res.Split.PlatformBps,
		StudioBps:      res.Split.StudioBps,
		PerformerBps:   res.Split.PerformerBps,
		ReferralBps:    res.Split.ReferralBps,
		NetToPlatform:  netPlatform,
		NetToStudio:    netStudio,
		NetToPerformer: netPerformer,
		NetToReferrer:  netReferrer,
		PayoutStatus:   string(model.PayoutStatusPending),
	}

	if err := tx.Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEvent
		}
		return nil, fmt.Errorf("写入收益记录失败: %w", err)
	}

	return record, nil
}

// HasRecord 查询台账中是否已有该交易的记录
func (l *LedgerLogic) HasRecord(transactionId string) (bool, error) {
	var count int64
	err := l.db.Model(&model.EarningRecordModel{}).
		Where("transaction_id = ?", transactionId).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询收益记录失败: %w", err)
	}
	return count > 0, nil
}

// EarningFilter 台账查询条件
type EarningFilter struct {
	PerformerId  string
	StudioId     string
	PayoutStatus string
	From         time.Time
	To           time.Time
}

func (l *LedgerLogic) filteredQuery(filter EarningFilter) *gorm.DB {
	query := l.db.Model(&model.EarningRecordModel{})
	if filter.PerformerId != "" {
		query = query.Where("payee_id = ?", filter.PerformerId)
	}
	if filter.StudioId != "" {
		query = query.Where("studio_id = ?", filter.StudioId)
	}
	if filter.PayoutStatus != "" {
		query = query.Where("payout_status = ?", filter.PayoutStatus)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}
	return query
}

// GetEarnings 分页查询收益记录
func (l *LedgerLogic) GetEarnings(filter EarningFilter, page, pageSize int) ([]model.EarningRecordModel, int64, error) {
	var records []model.EarningRecordModel
	var total int64

	// 获取总数
	if err := l.filteredQuery(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取收益记录总数失败: %w", err)
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := l.filteredQuery(filter).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取收益记录列表失败: %w", err)
	}

	return records, total, nil
}

// GetEarningStats 获取收益统计信息
func (l *LedgerLogic) GetEarningStats(filter EarningFilter) (map[string]interface{}, error) {
	var stats struct {
		TotalRecords   int64 `json:"total_records"`
		TotalGross     int64 `json:"total_gross"`
		TotalPerformer int64 `json:"total_performer"`
		TotalStudio    int64 `json:"total_studio"`
		TotalPlatform  int64 `json:"total_platform"`
		TotalReferrer  int64 `json:"total_referrer"`
	}

	if err := l.filteredQuery(filter).Count(&stats.TotalRecords).Error; err != nil {
		return nil, fmt.Errorf("获取记录总数失败: %w", err)
	}

	row := l.filteredQuery(filter).Select(
		"COALESCE(SUM(gross_amount), 0) AS total_gross, " +
			"COALESCE(SUM(net_to_performer), 0) AS total_performer, " +
			"COALESCE(SUM(net_to_studio), 0) AS total_studio, " +
			"COALESCE(SUM(net_to_platform), 0) AS total_platform, " +
			"COALESCE(SUM(net_to_referrer), 0) AS total_referrer")
	if err := row.Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("获取收益汇总失败: %w", err)
	}

	return map[string]interface{}{
		"total_records":   stats.TotalRecords,
		"total_gross":     stats.TotalGross,
		"total_performer": stats.TotalPerformer,
		"total_studio":    stats.TotalStudio,
		"total_platform":  stats.TotalPlatform,
		"total_referrer":  stats.TotalReferrer,
	}, nil
}

// UpdatePayoutStatus 更新提现审批状态。台账其余字段只追加、不回改。
func (l *LedgerLogic) UpdatePayoutStatus(id int64, status string) error {
	var record model.EarningRecordModel
	if err := l.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("收益记录不存在")
		}
		return fmt.Errorf("查询收益记录失败: %w", err)
	}

	if !payoutTransitionAllowed(record.PayoutStatus, status) {
		return fmt.Errorf("提现状态不允许从 %s 变更为 %s", record.PayoutStatus, status)
	}

	if err := l.db.Model(&record).Update("payout_status", status).Error; err != nil {
		return fmt.Errorf("更新提现状态失败: %w", err)
	}

	return nil
}

// payoutTransitionAllowed 提现状态机：pending -> approved|rejected, approved -> done
func payoutTransitionAllowed(from, to string) bool {
	switch model.PayoutStatus(from) {
	case model.PayoutStatusPending:
		return to == string(model.PayoutStatusApproved) || to == string(model.PayoutStatusRejected)
	case model.PayoutStatusApproved:
		return to == string(model.PayoutStatusDone)
	default:
		return false
	}
}
