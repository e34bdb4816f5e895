package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/blues/ivs/internal/logic"
)

// FundingHandler 出资与结算处理器
type FundingHandler struct {
	voting *logic.VotingLogic
}

func NewFundingHandler(voting *logic.VotingLogic) *FundingHandler {
	return &FundingHandler{voting: voting}
}

// Contribute 向获胜提案出资，超出目标部分原路退回
func (h *FundingHandler) Contribute(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	value, err := uint256.FromDecimal(req.Value)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的出资金额")
		return
	}

	receipt, err := h.voting.Contribute(c.Request.Context(), caller, value)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "出资成功", receipt)
}

// SetRewardParams 管理员设置奖励代币参数
func (h *FundingHandler) SetRewardParams(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req RewardParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.voting.SetRewardParams(c.Request.Context(), caller, req.Name, req.Symbol); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "奖励参数设置成功", req)
}

// GetSettlement 结算结果
func (h *FundingHandler) GetSettlement(c *gin.Context) {
	settlement, ok := h.voting.Settlement()
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "尚未结算")
		return
	}
	SuccessResponse(c, http.StatusOK, "获取结算结果成功", settlement)
}

// GetBalances 资金与奖励代币余额
func (h *FundingHandler) GetBalances(c *gin.Context) {
	addr, ok := parseAddress(c, c.Param("address"), "无效的地址")
	if !ok {
		return
	}
	balance, holdings := h.voting.Balances(addr)
	rewards := make([]RewardBalance, 0, len(holdings))
	for _, r := range holdings {
		rewards = append(rewards, RewardBalance{
			Token:   r.Token.Hex(),
			Symbol:  r.Symbol,
			Balance: r.Balance.Dec(),
		})
	}
	SuccessResponse(c, http.StatusOK, "获取余额成功", BalanceResponse{
		Address: addr.Hex(),
		Balance: balance.Dec(),
		Rewards: rewards,
	})
}
