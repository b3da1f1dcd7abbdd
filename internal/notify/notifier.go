package notify

import (
	"github.com/blues/livepay/internal/logger"
)

// Notifier 核心对外的实时通知出口。实际推送通道（WebSocket/信令服务）
// 不在本服务范围内，由接入方实现此接口。
type Notifier interface {
	// RoomChanged 会话成员变更，广播给当前所有成员
	RoomChanged(sessionId string, total int, members []string)
	// BalanceChanged 余额变动，推送给受影响主体
	BalanceChanged(subjectId string, delta int64, balance int64)
	// InsufficientFunds 余额不足，会话终止前推送给付费方
	InsufficientFunds(subjectId string, sessionId string, required int64)
}

// LogNotifier 默认实现，仅落日志
type LogNotifier struct{}

// NewLogNotifier 创建日志通知器
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) RoomChanged(sessionId string, total int, members []string) {
	logger.Info("Room changed: session=%s total=%d", sessionId, total)
}

func (n *LogNotifier) BalanceChanged(subjectId string, delta int64, balance int64) {
	logger.Info("Balance changed: subject=%s delta=%d balance=%d", subjectId, delta, balance)
}

func (n *LogNotifier) InsufficientFunds(subjectId string, sessionId string, required int64) {
	logger.Warn("Insufficient funds: subject=%s session=%s required=%d", subjectId, sessionId, required)
}
