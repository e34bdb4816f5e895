package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blues/ivs/internal/logic"
)

// EventHandler 引擎事件查询
type EventHandler struct {
	eventLogic *logic.EventLogic
}

func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{eventLogic: logic.NewEventLogic(db)}
}

// GetEvents 获取事件列表，可按类型过滤
func (h *EventHandler) GetEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, total, err := h.eventLogic.GetEvents(c.Query("type"), page, pageSize)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件成功", ListResponse{
		Records:    events,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetEvent 获取单个事件
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventLogic.GetEvent(c.Param("id"))
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件成功", event)
}

// GetEventStatistics 获取事件处理统计
func (h *EventHandler) GetEventStatistics(c *gin.Context) {
	stats, err := h.eventLogic.GetEventStatistics()
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取事件统计成功", stats)
}
