package logic

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

// newTestDB 内存数据库。限制单连接：内存库不在连接之间共享。
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

func createSubject(t *testing.T, db *gorm.DB, id string, role model.SubjectRole, balance int64) {
	t.Helper()
	s := &model.SubjectModel{Id: id, Role: string(role), Balance: balance}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("创建主体 %s 失败: %v", id, err)
	}
}

func getSubject(t *testing.T, db *gorm.DB, id string) *model.SubjectModel {
	t.Helper()
	var s model.SubjectModel
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		t.Fatalf("查询主体 %s 失败: %v", id, err)
	}
	return &s
}

func testSnapshot() CommissionSnapshot {
	return CommissionSnapshot{
		Version:          1,
		PlatformBps:      4000,
		ReferralBps:      500,
		ReferralValidity: 365 * 24 * time.Hour,
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

// recordingNotifier 测试用通知记录器
type recordingNotifier struct {
	mu              sync.Mutex
	balanceChanged  []string
	insufficientIds []string
	roomChanged     []string
}

func (n *recordingNotifier) RoomChanged(sessionId string, total int, members []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roomChanged = append(n.roomChanged, sessionId)
}

func (n *recordingNotifier) BalanceChanged(subjectId string, delta int64, balance int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balanceChanged = append(n.balanceChanged, subjectId)
}

func (n *recordingNotifier) InsufficientFunds(subjectId string, sessionId string, required int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.insufficientIds = append(n.insufficientIds, subjectId)
}

func (n *recordingNotifier) balanceChangedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.balanceChanged)
}
