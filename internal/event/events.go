package event

import "time"

// PresenceType 成员事件类型
type PresenceType string

const (
	PresenceJoin     PresenceType = "join"
	PresenceLeave    PresenceType = "leave"
	PresenceHostStop PresenceType = "host_stop"
)

// PresenceEvent 实时传输层投递的成员事件（至少一次，可能乱序）
type PresenceEvent struct {
	Type      PresenceType `json:"type"`
	SessionId string       `json:"session_id"`
	SubjectId string       `json:"subject_id"`
}

// TipEvent 支付子系统投递的打赏触发，TipId 即去重键
type TipEvent struct {
	TipId      string    `json:"tip_id"`
	EventId    string    `json:"event_id"` // 发起方标识（审计用）
	SessionId  string    `json:"session_id"`
	PayerId    string    `json:"payer_id"`
	PayeeId    string    `json:"payee_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
