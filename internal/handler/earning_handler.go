package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blues/livepay/internal/logic"
	"github.com/gin-gonic/gin"
)

// EarningHandler 收益台账处理器（报表/提现审批侧的只读查询入口）
type EarningHandler struct {
	ledger *logic.LedgerLogic
}

// NewEarningHandler 创建收益台账处理器
func NewEarningHandler(ledger *logic.LedgerLogic) *EarningHandler {
	return &EarningHandler{ledger: ledger}
}

// GetEarnings 分页查询收益记录
func (h *EarningHandler) GetEarnings(c *gin.Context) {
	filter, err := parseEarningFilter(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	records, total, err := h.ledger.GetEarnings(filter, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取收益记录成功", GetEarningsResponse{
		Records:    ToEarningRecordResponseList(records),
		Pagination: pagination,
	})
}

// GetEarningStats 获取收益统计信息
func (h *EarningHandler) GetEarningStats(c *gin.Context) {
	filter, err := parseEarningFilter(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.ledger.GetEarningStats(filter)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取收益统计成功", GetEarningStatsResponse{Stats: stats})
}

// UpdatePayoutStatus 更新提现审批状态
func (h *EarningHandler) UpdatePayoutStatus(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	var req UpdatePayoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "请求参数无效: "+err.Error())
		return
	}

	if err := h.ledger.UpdatePayoutStatus(id, req.Status); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "提现状态已更新", gin.H{"id": id, "status": req.Status})
}

// parseEarningFilter 解析台账查询条件
func parseEarningFilter(c *gin.Context) (logic.EarningFilter, error) {
	filter := logic.EarningFilter{
		PerformerId:  c.Query("performer_id"),
		StudioId:     c.Query("studio_id"),
		PayoutStatus: c.Query("payout_status"),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, errTimeFormat("from")
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, errTimeFormat("to")
		}
		filter.To = t
	}

	return filter, nil
}

type filterError string

func (e filterError) Error() string { return string(e) }

func errTimeFormat(field string) error {
	return filterError("时间参数 " + field + " 格式无效，需要RFC3339")
}
