package handler

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blues/ivs/internal/logic"
)

// RefundRecordHandler 退款与结算记录处理器
type RefundRecordHandler struct {
	refundLogic *logic.RefundRecordLogic
}

// NewRefundRecordHandler 创建退款记录处理器
func NewRefundRecordHandler(db *gorm.DB) *RefundRecordHandler {
	return &RefundRecordHandler{
		refundLogic: logic.NewRefundRecordLogic(db),
	}
}

// GetRefunds 获取退款记录
func (h *RefundRecordHandler) GetRefunds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	refunds, total, err := h.refundLogic.GetRefundRecords(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       refunds,
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetRefundByAddress 获取某地址的退款记录
func (h *RefundRecordHandler) GetRefundByAddress(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的地址"})
		return
	}

	refund, err := h.refundLogic.GetRefundByAddress(common.HexToAddress(address).Hex())
	if err != nil {
		c.JSON(StatusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": refund,
	})
}

// GetRefundStatistics 获取退款统计信息
func (h *RefundRecordHandler) GetRefundStatistics(c *gin.Context) {
	stats, err := h.refundLogic.GetRefundStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats,
	})
}

// GetSettlementRecord 获取持久化的结算记录
func (h *RefundRecordHandler) GetSettlementRecord(c *gin.Context) {
	record, err := h.refundLogic.GetSettlementRecord()
	if err != nil {
		c.JSON(StatusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": record,
	})
}
