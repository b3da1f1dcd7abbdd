package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/model"
	"github.com/blues/livepay/internal/notify"
	"gorm.io/gorm"
)

// LifecycleListener 会话生命周期监听器（计费环通过它挂接）
type LifecycleListener interface {
	// OnSessionActive 会话进入 active 状态
	OnSessionActive(snap Snapshot)
	// OnSessionEnded 会话结束（任何原因），必须取消该会话的全部待执行定时器
	OnSessionEnded(sessionId string, reason string)
}

// Snapshot 会话内存态的只读快照
type Snapshot struct {
	Id              string
	Kind            model.SessionKind
	HostPerformerId string
	PayerId         string
	UnitPrice       int64
	Status          model.SessionStatus
	Members         []string
	TotalTicks      int64
}

// liveSession 会话内存态。成员集合以内存为准，数据库行只用于生命周期与报表。
type liveSession struct {
	id              string
	kind            model.SessionKind
	hostPerformerId string
	payerId         string
	unitPrice       int64
	status          model.SessionStatus
	members         map[string]struct{}
	startedAt       time.Time
	lastChange      time.Time
	ticks           int64
}

// Coordinator 会话协调器：维护直播会话的成员与状态机，
// requested -> active -> ended，ended 为终态。
// 实时传输层的事件至少一次投递且可能乱序，全部操作按幂等实现。
type Coordinator struct {
	db       *gorm.DB
	notifier notify.Notifier

	mu        sync.RWMutex
	sessions  map[string]*liveSession
	listeners []LifecycleListener
}

// NewCoordinator 创建会话协调器
func NewCoordinator(db *gorm.DB, notifier notify.Notifier) *Coordinator {
	return &Coordinator{
		db:       db,
		notifier: notifier,
		sessions: make(map[string]*liveSession),
	}
}

// AddListener 注册生命周期监听器（启动期调用，不加锁保护）
func (c *Coordinator) AddListener(l LifecycleListener) {
	c.listeners = append(c.listeners, l)
}

// Request 发起新会话，初始状态 requested
func (c *Coordinator) Request(kind model.SessionKind, hostPerformerId, payerId string, unitPrice int64) (Snapshot, error) {
	if hostPerformerId == "" {
		return Snapshot{}, errors.New("主播ID不能为空")
	}
	switch kind {
	case model.SessionKindPrivate, model.SessionKindGroup, model.SessionKindPublic:
	default:
		return Snapshot{}, fmt.Errorf("未知的会话类型: %s", kind)
	}
	if kind != model.SessionKindPublic && payerId == "" {
		return Snapshot{}, errors.New("计费会话必须指定付费方")
	}

	now := time.Now()
	s := &liveSession{
		id:              fmt.Sprintf("sess_%d", now.UnixNano()),
		kind:            kind,
		hostPerformerId: hostPerformerId,
		payerId:         payerId,
		unitPrice:       unitPrice,
		status:          model.SessionStatusRequested,
		members:         make(map[string]struct{}),
		lastChange:      now,
	}

	c.mu.Lock()
	c.sessions[s.id] = s
	snap := snapshotOf(s)
	c.mu.Unlock()

	// 报表行，写失败不影响内存状态
	row := &model.SessionModel{
		Id:              s.id,
		Kind:            string(kind),
		HostPerformerId: hostPerformerId,
		PayerId:         payerId,
		UnitPrice:       unitPrice,
		Status:          string(model.SessionStatusRequested),
	}
	if err := c.db.Create(row).Error; err != nil {
		logger.Error("Failed to persist session %s: %v", s.id, err)
	}

	logger.Info("Session requested: id=%s kind=%s host=%s payer=%s price=%d", s.id, kind, hostPerformerId, payerId, unitPrice)
	return snap, nil
}

// Join 成员加入。首个匹配的加入确认把会话从 requested 置为 active；
// 重复加入幂等；结束后的迟到加入是 no-op。
func (c *Coordinator) Join(sessionId, subjectId string) error {
	if subjectId == "" {
		return errors.New("成员ID不能为空")
	}

	c.mu.Lock()
	s, ok := c.sessions[sessionId]
	if !ok {
		c.mu.Unlock()
		return errors.New("会话不存在")
	}
	if s.status == model.SessionStatusEnded {
		c.mu.Unlock()
		return nil
	}

	activated := false
	if s.status == model.SessionStatusRequested {
		s.status = model.SessionStatusActive
		s.startedAt = time.Now()
		activated = true
	}

	_, already := s.members[subjectId]
	if already && !activated {
		c.mu.Unlock()
		return nil
	}
	s.members[subjectId] = struct{}{}
	s.lastChange = time.Now()
	snap := snapshotOf(s)
	c.mu.Unlock()

	if activated {
		c.persistActive(snap)
		for _, l := range c.listeners {
			l.OnSessionActive(snap)
		}
		logger.Info("Session activated: id=%s first_member=%s", sessionId, subjectId)
	}

	c.notifier.RoomChanged(sessionId, len(snap.Members), snap.Members)
	return nil
}

// Leave 成员离开。重复离开幂等。主播离开或房间清空都会结束会话。
func (c *Coordinator) Leave(sessionId, subjectId string) error {
	c.mu.Lock()
	s, ok := c.sessions[sessionId]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if s.status == model.SessionStatusEnded {
		c.mu.Unlock()
		return nil
	}

	if _, exists := s.members[subjectId]; !exists {
		c.mu.Unlock()
		return nil
	}
	delete(s.members, subjectId)
	s.lastChange = time.Now()

	endReason := ""
	if subjectId == s.hostPerformerId {
		endReason = model.SessionEndReasonHostStop
	} else if len(s.members) == 0 {
		endReason = model.SessionEndReasonEmpty
	}
	snap := snapshotOf(s)
	c.mu.Unlock()

	c.notifier.RoomChanged(sessionId, len(snap.Members), snap.Members)

	if endReason != "" {
		return c.End(sessionId, endReason)
	}
	return nil
}

// HostStop 主播主动结束会话
func (c *Coordinator) HostStop(sessionId string) error {
	return c.End(sessionId, model.SessionEndReasonHostStop)
}

// End 结束会话（任何原因）。幂等；ended 为终态，后续交互需要新会话。
func (c *Coordinator) End(sessionId, reason string) error {
	c.mu.Lock()
	s, ok := c.sessions[sessionId]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	s.status = model.SessionStatusEnded
	delete(c.sessions, sessionId)
	ticks := s.ticks
	c.mu.Unlock()

	now := time.Now()
	err := c.db.Model(&model.SessionModel{}).
		Where("id = ?", sessionId).
		Updates(map[string]interface{}{
			"status":      string(model.SessionStatusEnded),
			"ended_at":    &now,
			"end_reason":  reason,
			"total_ticks": ticks,
		}).Error
	if err != nil {
		logger.Error("Failed to persist session end %s: %v", sessionId, err)
	}

	for _, l := range c.listeners {
		l.OnSessionEnded(sessionId, reason)
	}

	logger.Info("Session ended: id=%s reason=%s ticks=%d", sessionId, reason, ticks)
	return nil
}

// Get 查询会话快照
func (c *Coordinator) Get(sessionId string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[sessionId]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(s), true
}

// IsActive 会话是否进行中。对已结束/未知会话的计费周期由此退化为 no-op。
func (c *Coordinator) IsActive(sessionId string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[sessionId]
	return ok && s.status == model.SessionStatusActive
}

// RecordTick 累计已结算的计费周期数（报表用，尽力而为）
func (c *Coordinator) RecordTick(sessionId string) {
	c.mu.Lock()
	s, ok := c.sessions[sessionId]
	var ticks int64
	if ok {
		s.ticks++
		ticks = s.ticks
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	err := c.db.Model(&model.SessionModel{}).
		Where("id = ?", sessionId).
		Update("total_ticks", ticks).Error
	if err != nil {
		logger.Warn("Failed to persist tick count for session %s: %v", sessionId, err)
	}
}

// ReapIdle 回收空闲会话：成员已清空或一直无人加入、且超过空闲时限的会话。
// 处理主播断线却没有 leave 事件的情况。返回回收数量。
func (c *Coordinator) ReapIdle(timeout time.Duration) int {
	cutoff := time.Now().Add(-timeout)

	c.mu.RLock()
	var idle []string
	for id, s := range c.sessions {
		if s.lastChange.After(cutoff) {
			continue
		}
		if s.status == model.SessionStatusRequested || len(s.members) == 0 {
			idle = append(idle, id)
		}
	}
	c.mu.RUnlock()

	for _, id := range idle {
		if err := c.End(id, model.SessionEndReasonIdle); err != nil {
			logger.Error("Failed to reap session %s: %v", id, err)
		}
	}
	return len(idle)
}

func (c *Coordinator) persistActive(snap Snapshot) {
	now := time.Now()
	err := c.db.Model(&model.SessionModel{}).
		Where("id = ?", snap.Id).
		Updates(map[string]interface{}{
			"status":     string(model.SessionStatusActive),
			"started_at": &now,
		}).Error
	if err != nil {
		logger.Error("Failed to persist session activation %s: %v", snap.Id, err)
	}
}

func snapshotOf(s *liveSession) Snapshot {
	members := make([]string, 0, len(s.members))
	for m := range s.members {
		members = append(members, m)
	}
	return Snapshot{
		Id:              s.id,
		Kind:            s.kind,
		HostPerformerId: s.hostPerformerId,
		PayerId:         s.payerId,
		UnitPrice:       s.unitPrice,
		Status:          s.status,
		Members:         members,
		TotalTicks:      s.ticks,
	}
}
