package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/logic"
)

// VotingHandler 投票流程处理器
type VotingHandler struct {
	voting *logic.VotingLogic
}

func NewVotingHandler(voting *logic.VotingLogic) *VotingHandler {
	return &VotingHandler{voting: voting}
}

// RegisterVoter 管理员登记投票人
func (h *VotingHandler) RegisterVoter(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req RegisterVoterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	voter, ok := parseAddress(c, req.Voter, "无效的投票人地址")
	if !ok {
		return
	}

	if err := h.voting.Register(c.Request.Context(), caller, voter); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "投票人登记成功", gin.H{"voter": voter.Hex()})
}

// GetParticipant 查询参与者状态
func (h *VotingHandler) GetParticipant(c *gin.Context) {
	addr, ok := parseAddress(c, c.Param("address"), "无效的地址")
	if !ok {
		return
	}
	p, found := h.voting.Participant(addr)
	if !found {
		ErrorResponse(c, http.StatusNotFound, "参与者不存在")
		return
	}
	SuccessResponse(c, http.StatusOK, "获取参与者成功", p)
}

// SubmitProposal 投票人提交提案
func (h *VotingHandler) SubmitProposal(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := uint256.FromDecimal(req.FundingGoal)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的目标金额")
		return
	}

	index, err := h.voting.SubmitProposal(c.Request.Context(), caller, req.Description, goal)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "提案提交成功", ProposalIndexResponse{Index: index})
}

// ListProposals 提案截止前列出全部提案描述
func (h *VotingHandler) ListProposals(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	descriptions, err := h.voting.ListProposals(caller)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取提案列表成功", descriptions)
}

// Vote 投票
func (h *VotingHandler) Vote(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.voting.Vote(c.Request.Context(), caller, *req.ProposalIndex); err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "投票成功", gin.H{"proposalIndex": *req.ProposalIndex})
}

// GetVote 查询某投票人所投提案
func (h *VotingHandler) GetVote(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	voter, ok := parseAddress(c, c.Param("address"), "无效的投票人地址")
	if !ok {
		return
	}

	description, err := h.voting.VoteOf(caller, voter)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取投票成功", VoteOfResponse{Voter: voter.Hex(), Description: description})
}

// GetPhase 当前阶段
func (h *VotingHandler) GetPhase(c *gin.Context) {
	phase := h.voting.Phase()
	resp := PhaseResponse{Phase: phase}
	if next, ok := engine.NextPhase(phase); ok {
		resp.Next = next.String()
	}
	SuccessResponse(c, http.StatusOK, "获取阶段成功", resp)
}

// AdvancePhase 管理员推进阶段
func (h *VotingHandler) AdvancePhase(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	phase, err := h.voting.Advance(c.Request.Context(), caller)
	if err != nil {
		FailResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "阶段推进成功", PhaseResponse{Phase: phase})
}

// GetWinner 计票后的获胜提案
func (h *VotingHandler) GetWinner(c *gin.Context) {
	index, proposal, err := h.voting.Winner()
	if err != nil {
		FailResponse(c, err)
		return
	}
	tally, _ := h.voting.Tally()
	SuccessResponse(c, http.StatusOK, "获取获胜提案成功", WinnerResponse{Index: index, Proposal: proposal, Tally: tally})
}
