package handler

import (
	"time"

	"github.com/blues/livepay/internal/model"
	"github.com/blues/livepay/internal/session"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 会话相关请求/响应模型

// CreateSessionRequest 发起会话请求
type CreateSessionRequest struct {
	Kind            string `json:"kind" binding:"required"`
	HostPerformerId string `json:"host_performer_id" binding:"required"`
	PayerId         string `json:"payer_id"`
}

// PresenceRequest 成员事件回调（由实时传输层调用）
type PresenceRequest struct {
	SubjectId string `json:"subject_id" binding:"required"`
}

// SessionResponse 会话响应模型
type SessionResponse struct {
	Id              string   `json:"id"`
	Kind            string   `json:"kind"`
	HostPerformerId string   `json:"hostPerformerId"`
	PayerId         string   `json:"payerId,omitempty"`
	UnitPrice       int64    `json:"unitPrice"`
	Status          string   `json:"status"`
	Total           int      `json:"total"`
	Members         []string `json:"members"`
	TotalTicks      int64    `json:"totalTicks"`
}

// ToSessionResponse 会话快照转响应模型
func ToSessionResponse(snap session.Snapshot) SessionResponse {
	return SessionResponse{
		Id:              snap.Id,
		Kind:            string(snap.Kind),
		HostPerformerId: snap.HostPerformerId,
		PayerId:         snap.PayerId,
		UnitPrice:       snap.UnitPrice,
		Status:          string(snap.Status),
		Total:           len(snap.Members),
		Members:         snap.Members,
		TotalTicks:      snap.TotalTicks,
	}
}

// 打赏相关请求模型

// CreateTipRequest 打赏触发请求（来自支付子系统）
type CreateTipRequest struct {
	TipId     string `json:"tip_id" binding:"required"`
	EventId   string `json:"event_id"`
	SessionId string `json:"session_id"`
	PayerId   string `json:"payer_id" binding:"required"`
	PayeeId   string `json:"payee_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
}

// 余额相关响应模型

// BalanceResponse 余额响应模型
type BalanceResponse struct {
	SubjectId        string `json:"subjectId"`
	Role             string `json:"role"`
	Balance          int64  `json:"balance"`
	TotalTokenEarned int64  `json:"totalTokenEarned"`
	TotalTokenSpent  int64  `json:"totalTokenSpent"`
}

// 收益台账相关响应模型

// EarningRecordResponse 收益记录响应模型
type EarningRecordResponse struct {
	Id             int64     `json:"id"`
	TransactionId  string    `json:"transactionId"`
	Kind           string    `json:"kind"`
	SessionId      string    `json:"sessionId,omitempty"`
	PayerId        string    `json:"payerId"`
	PayeeId        string    `json:"payeeId"`
	StudioId       string    `json:"studioId,omitempty"`
	ReferrerId     string    `json:"referrerId,omitempty"`
	GrossAmount    int64     `json:"grossAmount"`
	ConversionRate int64     `json:"conversionRate"`
	NetToPlatform  int64     `json:"netToPlatform"`
	NetToStudio    int64     `json:"netToStudio"`
	NetToPerformer int64     `json:"netToPerformer"`
	NetToReferrer  int64     `json:"netToReferrer"`
	PayoutStatus   string    `json:"payoutStatus"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToEarningRecordResponse 收益记录转响应模型
func ToEarningRecordResponse(r model.EarningRecordModel) EarningRecordResponse {
	return EarningRecordResponse{
		Id:             r.Id,
		TransactionId:  r.TransactionId,
		Kind:           r.Kind,
		SessionId:      r.SessionId,
		PayerId:        r.PayerId,
		PayeeId:        r.PayeeId,
		StudioId:       r.StudioId,
		ReferrerId:     r.ReferrerId,
		GrossAmount:    r.GrossAmount,
		ConversionRate: r.ConversionRate,
		NetToPlatform:  r.NetToPlatform,
		NetToStudio:    r.NetToStudio,
		NetToPerformer: r.NetToPerformer,
		NetToReferrer:  r.NetToReferrer,
		PayoutStatus:   r.PayoutStatus,
		CreatedAt:      r.CreatedAt,
	}
}

// ToEarningRecordResponseList 收益记录列表转响应模型
func ToEarningRecordResponseList(records []model.EarningRecordModel) []EarningRecordResponse {
	out := make([]EarningRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToEarningRecordResponse(r))
	}
	return out
}

// GetEarningsResponse 收益记录列表响应
type GetEarningsResponse struct {
	Records    []EarningRecordResponse `json:"records"`
	Pagination Pagination              `json:"pagination"`
}

// GetEarningStatsResponse 收益统计响应
type GetEarningStatsResponse struct {
	Stats map[string]interface{} `json:"stats"`
}

// UpdatePayoutStatusRequest 更新提现状态请求
type UpdatePayoutStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
