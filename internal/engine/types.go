package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Participant 投票人记录，登记后永不删除
type Participant struct {
	Registered    bool         `json:"registered"`
	HasVoted      bool         `json:"has_voted"`
	VotedProposal uint64       `json:"voted_proposal"`
	Contributed   *uint256.Int `json:"contributed"`
}

// Proposal 提案；VoteCount 与 Contributed 只增不减
type Proposal struct {
	Description string         `json:"description"`
	FundingGoal *uint256.Int   `json:"funding_goal"`
	VoteCount   uint64         `json:"vote_count"`
	Contributed *uint256.Int   `json:"contributed"`
	Proposer    common.Address `json:"proposer"`
}

// Contribution 一次出资。出资人列表即按 Seq 排列的 Contributor
type Contribution struct {
	Seq         uint64         `json:"seq"`
	Contributor common.Address `json:"contributor"`
	Sent        *uint256.Int   `json:"sent"`
	Accepted    *uint256.Int   `json:"accepted"`
	Returned    *uint256.Int   `json:"returned"`
}

// RewardParams 奖励代币参数
type RewardParams struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// TallyResult 计票结果
type TallyResult struct {
	WinningIndex uint64   `json:"winning_index"`
	TopVotes     uint64   `json:"top_votes"`
	Tied         []uint64 `json:"tied"`
	Timestamp    uint64   `json:"timestamp"`
	Caller       string   `json:"caller"`
}

// SettlementOutcome 结算结果类型
type SettlementOutcome string

const (
	SettlementFunded   SettlementOutcome = "funded"   // 达到目标，发放奖励代币
	SettlementRefunded SettlementOutcome = "refunded" // 未达目标，全额退款
	SettlementEmpty    SettlementOutcome = "empty"    // 没有提案
)

// Payout 单个地址的奖励或退款
type Payout struct {
	Address common.Address `json:"address"`
	Amount  *uint256.Int   `json:"amount"`
}

// Settlement 结算记录，整个生命周期只产生一次
type Settlement struct {
	Outcome          SettlementOutcome `json:"outcome"`
	HasWinner        bool              `json:"has_winner"`
	WinningIndex     uint64            `json:"winning_index"`
	TotalContributed *uint256.Int      `json:"total_contributed"`
	RewardToken      common.Address    `json:"reward_token"`
	Rewards          []Payout          `json:"rewards"`
	Refunds          []Payout          `json:"refunds"`
	AdminRemainder   *uint256.Int      `json:"admin_remainder"`
}

func cloneInt(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

func (p Participant) clone() Participant {
	p.Contributed = cloneInt(p.Contributed)
	return p
}

func (p Proposal) clone() Proposal {
	p.FundingGoal = cloneInt(p.FundingGoal)
	p.Contributed = cloneInt(p.Contributed)
	return p
}

func (c Contribution) clone() Contribution {
	c.Sent = cloneInt(c.Sent)
	c.Accepted = cloneInt(c.Accepted)
	c.Returned = cloneInt(c.Returned)
	return c
}

func clonePayouts(in []Payout) []Payout {
	if in == nil {
		return nil
	}
	out := make([]Payout, len(in))
	for i, p := range in {
		out[i] = Payout{Address: p.Address, Amount: cloneInt(p.Amount)}
	}
	return out
}

func (s *Settlement) clone() *Settlement {
	if s == nil {
		return nil
	}
	c := *s
	c.TotalContributed = cloneInt(s.TotalContributed)
	c.AdminRemainder = cloneInt(s.AdminRemainder)
	c.Rewards = clonePayouts(s.Rewards)
	c.Refunds = clonePayouts(s.Refunds)
	return &c
}

func (t *TallyResult) clone() *TallyResult {
	if t == nil {
		return nil
	}
	c := *t
	c.Tied = append([]uint64(nil), t.Tied...)
	return &c
}
