package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	EventTypePhaseChanged         = "PhaseChanged"
	EventTypeVoterRegistered      = "VoterRegistered"
	EventTypeProposalSubmitted    = "ProposalSubmitted"
	EventTypeVoteCast             = "VoteCast"
	EventTypeContributionReceived = "ContributionReceived"
	EventTypeRewardParamsSet      = "RewardParamsSet"
)

// Event 引擎通知事件
type Event interface {
	EventType() string
}

// Emitter 事件发布者
type Emitter interface {
	Emit(Event)
}

// NoopEmitter 丢弃所有事件
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// EmitterFunc 函数适配器
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(evt Event) { f(evt) }

type PhaseChanged struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

func (PhaseChanged) EventType() string { return EventTypePhaseChanged }

type VoterRegistered struct {
	Voter common.Address `json:"voter"`
}

func (VoterRegistered) EventType() string { return EventTypeVoterRegistered }

type ProposalSubmitted struct {
	Index       uint64         `json:"index"`
	Proposer    common.Address `json:"proposer"`
	Description string         `json:"description"`
}

func (ProposalSubmitted) EventType() string { return EventTypeProposalSubmitted }

type VoteCast struct {
	Voter         common.Address `json:"voter"`
	ProposalIndex uint64         `json:"proposal_index"`
}

func (VoteCast) EventType() string { return EventTypeVoteCast }

// ContributionReceived 只记录实际接受的金额
type ContributionReceived struct {
	Contributor common.Address `json:"contributor"`
	Amount      *uint256.Int   `json:"amount"`
}

func (ContributionReceived) EventType() string { return EventTypeContributionReceived }

type RewardParamsSet struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

func (RewardParamsSet) EventType() string { return EventTypeRewardParamsSet }
