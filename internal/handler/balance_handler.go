package handler

import (
	"errors"
	"net/http"

	"github.com/blues/livepay/internal/logic"
	"github.com/gin-gonic/gin"
)

// BalanceHandler 余额处理器
type BalanceHandler struct {
	balances *logic.BalanceLogic
}

// NewBalanceHandler 创建余额处理器
func NewBalanceHandler(balances *logic.BalanceLogic) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// GetBalance 查询主体余额
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	subjectId := c.Param("id")

	subject, err := h.balances.GetSubject(subjectId)
	if err != nil {
		if errors.Is(err, logic.ErrSubjectNotFound) {
			ErrorResponse(c, http.StatusNotFound, "主体不存在")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取余额成功", BalanceResponse{
		SubjectId:        subject.Id,
		Role:             subject.Role,
		Balance:          subject.Balance,
		TotalTokenEarned: subject.TotalTokenEarned,
		TotalTokenSpent:  subject.TotalTokenSpent,
	})
}
