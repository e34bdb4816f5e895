package engine

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SubmitProposal 投票人在提案阶段提交提案，返回提案序号
func (e *Engine) SubmitProposal(caller common.Address, description string, fundingGoal *uint256.Int) (uint64, error) {
	if _, err := e.requireVoter(caller); err != nil {
		return 0, err
	}
	if err := e.requirePhase(PhaseProposalsOpen); err != nil {
		return 0, err
	}
	if description == "" {
		return 0, newError(KindEmptyValue, "proposal description is empty")
	}
	if fundingGoal == nil || fundingGoal.IsZero() {
		return 0, newError(KindEmptyValue, "funding goal must be positive")
	}
	if idx, ok := e.st.descriptions[description]; ok {
		return 0, newError(KindDuplicateProposal, "description already used by proposal %d", idx)
	}

	var index uint64
	err := e.atomically(func() error {
		index = uint64(len(e.st.proposals))
		e.st.proposals = append(e.st.proposals, &Proposal{
			Description: description,
			FundingGoal: cloneInt(fundingGoal),
			Contributed: zero(),
			Proposer:    caller,
		})
		e.st.descriptions[description] = index
		e.emit(ProposalSubmitted{Index: index, Proposer: caller, Description: description})
		return nil
	})
	return index, err
}

// ListProposals 提案登记界面使用的描述列表，提案截止后不可用
func (e *Engine) ListProposals(caller common.Address) ([]string, error) {
	if _, err := e.requireVoter(caller); err != nil {
		return nil, err
	}
	if e.st.phase > PhaseProposalsOpen {
		return nil, newError(KindWrongPhase, "requires phase at most %s, current phase is %s", PhaseProposalsOpen, e.st.phase)
	}
	out := make([]string, len(e.st.proposals))
	for i, p := range e.st.proposals {
		out[i] = p.Description
	}
	return out, nil
}

// VoteOf 返回指定投票人所投提案的描述，投票截止后不可用
func (e *Engine) VoteOf(caller, voter common.Address) (string, error) {
	if _, err := e.requireVoter(caller); err != nil {
		return "", err
	}
	if e.st.phase > PhaseVotingOpen {
		return "", newError(KindWrongPhase, "requires phase at most %s, current phase is %s", PhaseVotingOpen, e.st.phase)
	}
	p, ok := e.st.participants[voter]
	if !ok || !p.Registered {
		return "", newError(KindNotFound, "voter %s is not registered", voter.Hex())
	}
	if !p.HasVoted {
		return "", newError(KindNotFound, "voter %s has not voted", voter.Hex())
	}
	return e.st.proposals[p.VotedProposal].Description, nil
}

// ProposalCount 提案数量
func (e *Engine) ProposalCount() int { return len(e.st.proposals) }

// Proposal 按序号返回提案副本
func (e *Engine) Proposal(index uint64) (Proposal, error) {
	if index >= uint64(len(e.st.proposals)) {
		return Proposal{}, newError(KindNotFound, "proposal %d does not exist", index)
	}
	return e.st.proposals[index].clone(), nil
}

// Proposals 返回全部提案副本，供持久化和管理视图使用
func (e *Engine) Proposals() []Proposal {
	out := make([]Proposal, len(e.st.proposals))
	for i, p := range e.st.proposals {
		out[i] = p.clone()
	}
	return out
}
