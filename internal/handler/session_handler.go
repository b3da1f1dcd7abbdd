package handler

import (
	"net/http"

	"github.com/blues/livepay/internal/event"
	"github.com/blues/livepay/internal/logic"
	"github.com/blues/livepay/internal/model"
	"github.com/blues/livepay/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionHandler 会话处理器
type SessionHandler struct {
	coordinator *session.Coordinator
	rates       *logic.RateLogic
	bus         *event.Bus
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(coordinator *session.Coordinator, rates *logic.RateLogic, bus *event.Bus) *SessionHandler {
	return &SessionHandler{
		coordinator: coordinator,
		rates:       rates,
		bus:         bus,
	}
}

// CreateSession 发起会话。单价从主播价目表读取。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	kind := model.SessionKind(req.Kind)
	unitPrice, err := h.rates.UnitPrice(req.HostPerformerId, kind)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.coordinator.Request(kind, req.HostPerformerId, req.PayerId, unitPrice)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "会话已发起", ToSessionResponse(snap))
}

// GetSession 查询会话状态
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionId := c.Param("id")

	snap, ok := h.coordinator.Get(sessionId)
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "会话不存在或已结束")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取会话成功", ToSessionResponse(snap))
}

// Join 成员加入回调（实时传输层投递，至少一次）
func (h *SessionHandler) Join(c *gin.Context) {
	h.publishPresence(c, event.PresenceJoin)
}

// Leave 成员离开回调
func (h *SessionHandler) Leave(c *gin.Context) {
	h.publishPresence(c, event.PresenceLeave)
}

// Stop 主播结束会话
func (h *SessionHandler) Stop(c *gin.Context) {
	sessionId := c.Param("id")

	h.bus.Publish(event.TopicPresence, event.PresenceEvent{
		Type:      event.PresenceHostStop,
		SessionId: sessionId,
	})

	SuccessResponse(c, http.StatusAccepted, "结束请求已受理", gin.H{"session_id": sessionId})
}

func (h *SessionHandler) publishPresence(c *gin.Context, typ event.PresenceType) {
	sessionId := c.Param("id")

	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	h.bus.Publish(event.TopicPresence, event.PresenceEvent{
		Type:      typ,
		SessionId: sessionId,
		SubjectId: req.SubjectId,
	})

	SuccessResponse(c, http.StatusAccepted, "成员事件已受理", gin.H{
		"session_id": sessionId,
		"subject_id": req.SubjectId,
	})
}
