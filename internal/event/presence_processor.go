package event

import (
	"github.com/blues/livepay/internal/logger"
	"github.com/blues/livepay/internal/session"
)

// PresenceProcessor 成员事件处理器：把 presence 主题的事件翻译为协调器操作。
// 协调器的操作全部幂等，重复投递无副作用。
type PresenceProcessor struct {
	coordinator *session.Coordinator
}

// NewPresenceProcessor 创建成员事件处理器
func NewPresenceProcessor(coordinator *session.Coordinator) *PresenceProcessor {
	return &PresenceProcessor{coordinator: coordinator}
}

// Handle 处理单个成员事件
func (p *PresenceProcessor) Handle(payload interface{}) {
	ev, ok := payload.(PresenceEvent)
	if !ok {
		logger.Warn("Presence processor received unexpected payload type %T", payload)
		return
	}

	var err error
	switch ev.Type {
	case PresenceJoin:
		err = p.coordinator.Join(ev.SessionId, ev.SubjectId)
	case PresenceLeave:
		err = p.coordinator.Leave(ev.SessionId, ev.SubjectId)
	case PresenceHostStop:
		err = p.coordinator.HostStop(ev.SessionId)
	default:
		logger.Warn("Unknown presence event type: %s", ev.Type)
		return
	}

	if err != nil {
		// 单个会话的错误绝不影响其他会话，只记录
		logger.Error("Presence event failed: type=%s session=%s subject=%s: %v", ev.Type, ev.SessionId, ev.SubjectId, err)
	}
}
