package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Vote 投票人在投票阶段投票，每人只能投一次
func (e *Engine) Vote(caller common.Address, proposalIndex uint64) error {
	voter, err := e.requireVoter(caller)
	if err != nil {
		return err
	}
	if err := e.requirePhase(PhaseVotingOpen); err != nil {
		return err
	}
	if proposalIndex >= uint64(len(e.st.proposals)) {
		return newError(KindNotFound, "proposal %d does not exist", proposalIndex)
	}
	if voter.HasVoted {
		return newError(KindAlreadyVoted, "voter %s already voted for proposal %d", caller.Hex(), voter.VotedProposal)
	}
	return e.atomically(func() error {
		p := e.st.participants[caller]
		p.HasVoted = true
		p.VotedProposal = proposalIndex
		e.st.proposals[proposalIndex].VoteCount++
		e.emit(VoteCast{Voter: caller, ProposalIndex: proposalIndex})
		return nil
	})
}

// tallyWinner 进入已计票阶段时执行一次。没有提案时保持默认值
func (e *Engine) tallyWinner(caller common.Address) error {
	if len(e.st.proposals) == 0 {
		return nil
	}

	top := e.st.proposals[0].VoteCount
	ties := 1
	for _, p := range e.st.proposals[1:] {
		switch {
		case p.VoteCount > top:
			top = p.VoteCount
			ties = 1
		case p.VoteCount == top:
			ties++
		}
	}

	tied := make([]uint64, 0, ties)
	for i, p := range e.st.proposals {
		if p.VoteCount == top {
			tied = append(tied, uint64(i))
		}
	}

	result := &TallyResult{TopVotes: top, Tied: tied, Caller: caller.Hex()}
	if len(tied) == 1 {
		result.WinningIndex = tied[0]
	} else {
		ts, err := e.entropy.Timestamp()
		if err != nil {
			return fmt.Errorf("engine: read tie-break entropy: %w", err)
		}
		result.Timestamp = ts
		result.WinningIndex = SelectAmongTied(ts, caller, tied)
	}

	e.st.winningIndex = result.WinningIndex
	e.st.tally = result
	return nil
}

// SelectAmongTied 平局抽签：keccak256(时间戳 ‖ 调用者 ‖ 平局序号...) 对平局数取模。
// 结果可由能够预测或影响时间戳的一方（尤其是触发计票的管理员）提前算出。
func SelectAmongTied(timestamp uint64, caller common.Address, tied []uint64) uint64 {
	switch len(tied) {
	case 0:
		return 0
	case 1:
		return tied[0]
	}

	buf := make([]byte, 0, 32+common.AddressLength+32*len(tied))
	ts := uint256.NewInt(timestamp).Bytes32()
	buf = append(buf, ts[:]...)
	buf = append(buf, caller.Bytes()...)
	for _, idx := range tied {
		word := uint256.NewInt(idx).Bytes32()
		buf = append(buf, word[:]...)
	}

	sel := new(uint256.Int).SetBytes(crypto.Keccak256(buf))
	sel.Mod(sel, uint256.NewInt(uint64(len(tied))))
	return tied[sel.Uint64()]
}

// Winner 返回获胜提案，计票之前或没有提案时返回错误
func (e *Engine) Winner() (uint64, Proposal, error) {
	if e.st.phase < PhaseTallied {
		return 0, Proposal{}, newError(KindWrongPhase, "requires phase at least %s, current phase is %s", PhaseTallied, e.st.phase)
	}
	if len(e.st.proposals) == 0 {
		return 0, Proposal{}, newError(KindNoWinningProposal, "no proposals were submitted")
	}
	idx := e.st.winningIndex
	return idx, e.st.proposals[idx].clone(), nil
}

// Tally 返回计票结果
func (e *Engine) Tally() (*TallyResult, bool) {
	if e.st.tally == nil {
		return nil, false
	}
	return e.st.tally.clone(), true
}
