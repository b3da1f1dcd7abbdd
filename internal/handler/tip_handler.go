package handler

import (
	"net/http"
	"time"

	"github.com/blues/livepay/internal/event"
	"github.com/gin-gonic/gin"
)

// TipHandler 打赏处理器
type TipHandler struct {
	bus *event.Bus
}

// NewTipHandler 创建打赏处理器
func NewTipHandler(bus *event.Bus) *TipHandler {
	return &TipHandler{bus: bus}
}

// CreateTip 打赏触发。tip_id 即去重键，重复投递由结算层的幂等认领挡下，
// 因此这里直接受理后异步结算。
func (h *TipHandler) CreateTip(c *gin.Context) {
	var req CreateTipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}
	if req.Amount <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "打赏金额必须大于0")
		return
	}

	h.bus.Publish(event.TopicMonetization, event.TipEvent{
		TipId:      req.TipId,
		EventId:    req.EventId,
		SessionId:  req.SessionId,
		PayerId:    req.PayerId,
		PayeeId:    req.PayeeId,
		Amount:     req.Amount,
		OccurredAt: time.Now(),
	})

	SuccessResponse(c, http.StatusAccepted, "打赏已受理", gin.H{"tip_id": req.TipId})
}
