package handler

import (
	"github.com/blues/ivs/internal/engine"
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

func newPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 请求模型，金额均为十进制字符串

type RegisterVoterRequest struct {
	Voter string `json:"voter" binding:"required"`
}

type SubmitProposalRequest struct {
	Description string `json:"description"`
	FundingGoal string `json:"fundingGoal" binding:"required"`
}

type VoteRequest struct {
	ProposalIndex *uint64 `json:"proposalIndex" binding:"required"`
}

type ContributeRequest struct {
	Value string `json:"value" binding:"required"`
}

type RewardParamsRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// 响应模型

type PhaseResponse struct {
	Phase engine.Phase `json:"phase"`
	Next  string       `json:"next,omitempty"`
}

type ProposalIndexResponse struct {
	Index uint64 `json:"index"`
}

type VoteOfResponse struct {
	Voter       string `json:"voter"`
	Description string `json:"description"`
}

type WinnerResponse struct {
	Index    uint64              `json:"index"`
	Proposal engine.Proposal     `json:"proposal"`
	Tally    *engine.TallyResult `json:"tally,omitempty"`
}

type RewardBalance struct {
	Token   string `json:"token"`
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

type BalanceResponse struct {
	Address string          `json:"address"`
	Balance string          `json:"balance"`
	Rewards []RewardBalance `json:"rewards"`
}

type ListResponse struct {
	Records    interface{} `json:"records"`
	Pagination Pagination  `json:"pagination"`
}
