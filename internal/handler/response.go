package handler

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/logic"
)

// CallerHeader 调用者地址请求头
const CallerHeader = "X-Caller-Address"

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

var kindStatus = map[engine.ErrorKind]int{
	engine.KindUnauthorized:       http.StatusForbidden,
	engine.KindWrongPhase:         http.StatusConflict,
	engine.KindInvalidPhase:       http.StatusConflict,
	engine.KindAlreadyRegistered:  http.StatusConflict,
	engine.KindAlreadyVoted:       http.StatusConflict,
	engine.KindDuplicateProposal:  http.StatusConflict,
	engine.KindNotFound:           http.StatusNotFound,
	engine.KindEmptyValue:         http.StatusBadRequest,
	engine.KindNoWinningProposal:  http.StatusConflict,
	engine.KindGoalReached:        http.StatusConflict,
	engine.KindMissingTokenParams: http.StatusPreconditionFailed,
	engine.KindTransferFailed:     http.StatusUnprocessableEntity,
	engine.KindInconsistent:       http.StatusInternalServerError,
}

// StatusOf 错误对应的 HTTP 状态码
func StatusOf(err error) int {
	if kind := engine.KindOf(err); kind != "" {
		if status, ok := kindStatus[kind]; ok {
			return status
		}
	}
	if errors.Is(err, logic.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// FailResponse 按错误类别返回
func FailResponse(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
		"kind":    engine.KindOf(err),
		"data":    nil,
	})
}

// callerFrom 读取调用者地址，失败时已写入响应
func callerFrom(c *gin.Context) (common.Address, bool) {
	return parseAddress(c, c.GetHeader(CallerHeader), "无效的调用者地址")
}

func parseAddress(c *gin.Context, raw, message string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		ErrorResponse(c, http.StatusBadRequest, message)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
