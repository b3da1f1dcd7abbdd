package logic

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/blues/livepay/internal/config"
	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/model"
	"gorm.io/gorm"
)

// TotalBps 分成比例总量（基点，万分之一）
const TotalBps int64 = 10000

// CommissionSplit 结算时刻的分成快照，四项合计恒为 TotalBps
type CommissionSplit struct {
	PlatformBps  int64 `json:"platform_bps"`
	StudioBps    int64 `json:"studio_bps"`
	PerformerBps int64 `json:"performer_bps"`
	ReferralBps  int64 `json:"referral_bps"`
}

// AllPlatformSplit 全部归平台的分成（配置缺失时的兜底，保证结算不中断）
func AllPlatformSplit() CommissionSplit {
	return CommissionSplit{PlatformBps: TotalBps}
}

// Resolution 分成解析结果（含受益方）
type Resolution struct {
	Split      CommissionSplit
	StudioId   string
	ReferrerId string
}

// CommissionSnapshot 分成配置快照。显式注入、带版本号：新会话取新配置，
// 进行中的结算使用排期时捕获的快照。
type CommissionSnapshot struct {
	Version          int64
	PlatformBps      int64
	ReferralBps      int64
	ReferralValidity time.Duration
}

// SnapshotFromConfig 从配置构建分成快照
func SnapshotFromConfig(cfg config.CommissionConfig) CommissionSnapshot {
	return CommissionSnapshot{
		Version:          time.Now().UnixNano(),
		PlatformBps:      clampBps(cfg.PlatformBps),
		ReferralBps:      clampBps(cfg.ReferralBps),
		ReferralValidity: time.Duration(cfg.ReferralValidityDays) * 24 * time.Hour,
	}
}

// CommissionLogic 分成业务逻辑
type CommissionLogic struct {
	db       *gorm.DB
	snapshot atomic.Pointer[CommissionSnapshot]
}

// NewCommissionLogic 创建分成业务逻辑
func NewCommissionLogic(db *gorm.DB, snap CommissionSnapshot) *CommissionLogic {
	c := &CommissionLogic{db: db}
	c.snapshot.Store(&snap)
	return c
}

// Snapshot 当前配置快照
func (c *CommissionLogic) Snapshot() CommissionSnapshot {
	return *c.snapshot.Load()
}

// Reload 热更新配置快照（重载边界：只影响之后开始的结算）
func (c *CommissionLogic) Reload(snap CommissionSnapshot) {
	c.snapshot.Store(&snap)
	logger.Info("Commission snapshot reloaded, version %d", snap.Version)
}

// Resolve 使用当前快照解析分成
func (c *CommissionLogic) Resolve(performerId string, kind string) Resolution {
	return c.ResolveWith(c.Snapshot(), performerId, kind)
}

// ResolveWith 解析主播在指定交易类型下的分成。
// 顺序：主播按类型覆盖 > 全局默认；公会从主播侧份额中两段切分；
// 有效推荐关系再从主播净份额中划出推荐分成。
// 任何配置或查询问题都降级为全平台分成并告警，绝不返回错误——计费不能因配置问题停摆。
func (c *CommissionLogic) ResolveWith(snap CommissionSnapshot, performerId string, kind string) Resolution {
	switch model.EventKind(kind) {
	case model.EventKindTip, model.EventKindTick, model.EventKindPurchase:
	default:
		logger.Warn("Unknown transaction kind %q for performer %s, falling back to platform-only split", kind, performerId)
		return Resolution{Split: AllPlatformSplit()}
	}

	var performer model.PerformerModel
	if err := c.db.First(&performer, "id = ?", performerId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Performer %s has no rate card, falling back to platform-only split", performerId)
		} else {
			logger.Error("Failed to load performer %s: %v", performerId, err)
		}
		return Resolution{Split: AllPlatformSplit()}
	}

	// 第一段：平台 vs 公会侧（公会+主播+推荐人）
	platformBps := snap.PlatformBps
	switch model.EventKind(kind) {
	case model.EventKindTip:
		if performer.TipPlatformBps != nil {
			platformBps = clampBps(*performer.TipPlatformBps)
		}
	case model.EventKindTick:
		if performer.TickPlatformBps != nil {
			platformBps = clampBps(*performer.TickPlatformBps)
		}
	}
	combinedBps := TotalBps - platformBps

	// 第二段：公会按合约比例从公会侧份额中抽成
	var studioBps int64
	res := Resolution{}
	if performer.StudioId != "" {
		var studio model.StudioModel
		if err := c.db.First(&studio, "id = ?", performer.StudioId).Error; err != nil {
			logger.Warn("Studio %s for performer %s not resolvable: %v", performer.StudioId, performerId, err)
		} else {
			studioBps = combinedBps * clampBps(studio.CommissionBps) / TotalBps
			res.StudioId = studio.Id
		}
	}
	performerBps := combinedBps - studioBps

	// 推荐分成从主播净份额中划出，不叠加
	var referralBps int64
	referral, err := c.activeReferral(performerId, snap)
	if err != nil {
		logger.Error("Failed to load referral for performer %s: %v", performerId, err)
	} else if referral != nil {
		cut := snap.ReferralBps
		if referral.CommissionBps > 0 {
			cut = clampBps(referral.CommissionBps)
		}
		referralBps = performerBps * cut / TotalBps
		performerBps -= referralBps
		res.ReferrerId = referral.ReferrerId
	}

	res.Split = CommissionSplit{
		PlatformBps:  platformBps,
		StudioBps:    studioBps,
		PerformerBps: performerBps,
		ReferralBps:  referralBps,
	}
	return res
}

// activeReferral 查询主播当前有效的推荐关系（一年有效期）
func (c *CommissionLogic) activeReferral(performerId string, snap CommissionSnapshot) (*model.ReferralModel, error) {
	var referral model.ReferralModel
	err := c.db.Where("performer_id = ?", performerId).
		Order("created_at DESC").
		First(&referral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	if !referral.ExpiresAt.IsZero() {
		if !referral.Active(now) {
			return nil, nil
		}
	} else if now.After(referral.CreatedAt.Add(snap.ReferralValidity)) {
		return nil, nil
	}

	return &referral, nil
}

func clampBps(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > TotalBps {
		return TotalBps
	}
	return v
}
