package handler

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blues/ivs/internal/logic"
)

// ContributeRecordHandler 出资记录处理器
type ContributeRecordHandler struct {
	contributeLogic *logic.ContributeRecordLogic
}

// NewContributeRecordHandler 创建出资记录处理器
func NewContributeRecordHandler(db *gorm.DB) *ContributeRecordHandler {
	return &ContributeRecordHandler{
		contributeLogic: logic.NewContributeRecordLogic(db),
	}
}

// GetContributeRecords 获取出资记录，可按地址过滤
func (h *ContributeRecordHandler) GetContributeRecords(c *gin.Context) {
	address := c.Query("address")
	if address != "" {
		if !common.IsHexAddress(address) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的地址"})
			return
		}
		address = common.HexToAddress(address).Hex()
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	// 调用logic层获取出资记录
	records, total, err := h.contributeLogic.GetContributeRecords(address, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       records,
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetContributeStatistics 获取出资统计信息
func (h *ContributeRecordHandler) GetContributeStatistics(c *gin.Context) {
	stats, err := h.contributeLogic.GetContributeStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats,
	})
}
