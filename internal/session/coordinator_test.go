package session

import (
	"sync"
	"testing"
	"time"

	"github.com/blues/livepay/internal/model"
	"github.com/blues/livepay/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		NamingStrategy: &schema.NamingStrategy{SingularTable: true},
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}

	return db
}

type recordingNotifier struct {
	mu          sync.Mutex
	roomChanged []int // 每次通知的成员总数
}

func (n *recordingNotifier) RoomChanged(sessionId string, total int, members []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roomChanged = append(n.roomChanged, total)
}

func (n *recordingNotifier) BalanceChanged(subjectId string, delta int64, balance int64) {}

func (n *recordingNotifier) InsufficientFunds(subjectId string, sessionId string, required int64) {}

func (n *recordingNotifier) roomChangedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.roomChanged)
}

type recordingListener struct {
	mu      sync.Mutex
	active  []Snapshot
	endedBy map[string]string
}

func newRecordingListener() *recordingListener {
	return &recordingListener{endedBy: make(map[string]string)}
}

func (l *recordingListener) OnSessionActive(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = append(l.active, snap)
}

func (l *recordingListener) OnSessionEnded(sessionId string, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endedBy[sessionId] = reason
}

func (l *recordingListener) activeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

func (l *recordingListener) endReason(sessionId string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.endedBy[sessionId]
}

func newTestCoordinator(t *testing.T) (*Coordinator, *recordingNotifier, *recordingListener, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	notifier := &recordingNotifier{}
	listener := newRecordingListener()
	c := NewCoordinator(db, notifier)
	c.AddListener(listener)
	return c, notifier, listener, db
}

func sessionRow(t *testing.T, db *gorm.DB, id string) *model.SessionModel {
	t.Helper()
	var row model.SessionModel
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		t.Fatalf("查询会话行 %s 失败: %v", id, err)
	}
	return &row
}

func TestRequestValidation(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	if _, err := c.Request(model.SessionKindPrivate, "", "u1", 100); err == nil {
		t.Error("empty host must be rejected")
	}
	if _, err := c.Request("karaoke", "p1", "u1", 100); err == nil {
		t.Error("unknown kind must be rejected")
	}
	if _, err := c.Request(model.SessionKindPrivate, "p1", "", 100); err == nil {
		t.Error("billed session without payer must be rejected")
	}
	if _, err := c.Request(model.SessionKindPublic, "p1", "", 0); err != nil {
		t.Errorf("public session without payer: %v", err)
	}
}

func TestJoinActivatesOnce(t *testing.T) {
	c, notifier, listener, db := newTestCoordinator(t)

	snap, err := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if snap.Status != model.SessionStatusRequested {
		t.Errorf("status = %q, want requested", snap.Status)
	}

	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if !c.IsActive(snap.Id) {
		t.Error("session must be active after first join")
	}
	if listener.activeCount() != 1 {
		t.Errorf("OnSessionActive calls = %d, want 1", listener.activeCount())
	}

	// 重复加入幂等：不再次激活，也不再广播
	before := notifier.roomChangedCount()
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("duplicate Join() error = %v", err)
	}
	if listener.activeCount() != 1 {
		t.Errorf("OnSessionActive calls after duplicate join = %d, want 1", listener.activeCount())
	}
	if notifier.roomChangedCount() != before {
		t.Errorf("duplicate join must not rebroadcast")
	}

	row := sessionRow(t, db, snap.Id)
	if row.Status != string(model.SessionStatusActive) {
		t.Errorf("persisted status = %q, want active", row.Status)
	}
	if row.StartedAt == nil {
		t.Error("started_at must be set")
	}
}

func TestJoinUnknownSession(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)
	if err := c.Join("sess_missing", "u1"); err == nil {
		t.Error("join on unknown session must be rejected")
	}
}

func TestLateJoinAfterEnd(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	snap, _ := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if err := c.HostStop(snap.Id); err != nil {
		t.Fatalf("HostStop() error = %v", err)
	}

	// 迟到的加入确认是 no-op，不复活会话
	if err := c.Join(snap.Id, "u2"); err != nil {
		t.Errorf("late join must be a no-op, got %v", err)
	}
	if c.IsActive(snap.Id) {
		t.Error("ended session must stay ended")
	}
}

func TestLeaveEmptyEndsSession(t *testing.T) {
	c, _, listener, db := newTestCoordinator(t)

	snap, _ := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if err := c.Leave(snap.Id, "u1"); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if c.IsActive(snap.Id) {
		t.Error("empty session must end")
	}
	if got := listener.endReason(snap.Id); got != model.SessionEndReasonEmpty {
		t.Errorf("end reason = %q, want empty", got)
	}

	// 重复离开幂等
	if err := c.Leave(snap.Id, "u1"); err != nil {
		t.Errorf("duplicate Leave() error = %v", err)
	}

	row := sessionRow(t, db, snap.Id)
	if row.Status != string(model.SessionStatusEnded) || row.EndReason != model.SessionEndReasonEmpty {
		t.Errorf("persisted end = %q/%q, want ended/empty", row.Status, row.EndReason)
	}
}

func TestHostLeaveEndsSession(t *testing.T) {
	c, _, listener, _ := newTestCoordinator(t)

	snap, _ := c.Request(model.SessionKindGroup, "p1", "u1", 50)
	if err := c.Join(snap.Id, "p1"); err != nil {
		t.Fatalf("Join(host) error = %v", err)
	}
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join(viewer) error = %v", err)
	}

	if err := c.Leave(snap.Id, "p1"); err != nil {
		t.Fatalf("Leave(host) error = %v", err)
	}
	if c.IsActive(snap.Id) {
		t.Error("session must end when host leaves")
	}
	if got := listener.endReason(snap.Id); got != model.SessionEndReasonHostStop {
		t.Errorf("end reason = %q, want host_stop", got)
	}
}

func TestEndIdempotent(t *testing.T) {
	c, _, listener, _ := newTestCoordinator(t)

	snap, _ := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	if err := c.End(snap.Id, model.SessionEndReasonInsufficientFunds); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := c.End(snap.Id, model.SessionEndReasonHostStop); err != nil {
		t.Fatalf("second End() error = %v", err)
	}

	// 第二次 End 对已移除的会话是 no-op，原因不被覆盖
	if got := listener.endReason(snap.Id); got != model.SessionEndReasonInsufficientFunds {
		t.Errorf("end reason = %q, want insufficient_funds", got)
	}
}

func TestRecordTickPersists(t *testing.T) {
	c, _, _, db := newTestCoordinator(t)

	snap, _ := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	c.RecordTick(snap.Id)
	c.RecordTick(snap.Id)

	if row := sessionRow(t, db, snap.Id); row.TotalTicks != 2 {
		t.Errorf("total_ticks = %d, want 2", row.TotalTicks)
	}

	if err := c.HostStop(snap.Id); err != nil {
		t.Fatalf("HostStop() error = %v", err)
	}
	// 结束后的周期统计是 no-op
	c.RecordTick(snap.Id)
	if row := sessionRow(t, db, snap.Id); row.TotalTicks != 2 {
		t.Errorf("total_ticks after end = %d, want 2", row.TotalTicks)
	}
}

func TestReapIdle(t *testing.T) {
	c, _, listener, _ := newTestCoordinator(t)

	// 一直无人加入的会话
	stale, _ := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	// 活跃会话
	fresh, _ := c.Request(model.SessionKindPrivate, "p2", "u2", 100)
	if err := c.Join(fresh.Id, "u2"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	c.mu.Lock()
	c.sessions[stale.Id].lastChange = time.Now().Add(-time.Hour)
	c.mu.Unlock()

	if got := c.ReapIdle(30 * time.Minute); got != 1 {
		t.Errorf("ReapIdle() = %d, want 1", got)
	}
	if got := listener.endReason(stale.Id); got != model.SessionEndReasonIdle {
		t.Errorf("end reason = %q, want idle", got)
	}
	if !c.IsActive(fresh.Id) {
		t.Error("fresh session must survive the reaper")
	}
}

func TestGetSnapshot(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	snap, _ := c.Request(model.SessionKindPrivate, "p1", "u1", 100)
	if err := c.Join(snap.Id, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	got, ok := c.Get(snap.Id)
	if !ok {
		t.Fatal("Get() must find the session")
	}
	if got.HostPerformerId != "p1" || got.PayerId != "u1" || got.UnitPrice != 100 {
		t.Errorf("snapshot = %+v", got)
	}
	if len(got.Members) != 1 || got.Members[0] != "u1" {
		t.Errorf("members = %v, want [u1]", got.Members)
	}

	if _, ok := c.Get("sess_missing"); ok {
		t.Error("Get() on unknown session must report absence")
	}
}
