package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Contribute 投票人向获胜提案出资。
// 超出剩余额度的部分在同一操作内退回出资人。
func (e *Engine) Contribute(caller common.Address, value *uint256.Int) (Contribution, error) {
	if _, err := e.requireVoter(caller); err != nil {
		return Contribution{}, err
	}
	if err := e.requirePhase(PhaseCollectingOpen); err != nil {
		return Contribution{}, err
	}
	if len(e.st.proposals) == 0 {
		return Contribution{}, newError(KindNoWinningProposal, "no proposals were submitted")
	}
	if value == nil || value.IsZero() {
		return Contribution{}, newError(KindEmptyValue, "contribution amount is zero")
	}
	winner := e.st.proposals[e.st.winningIndex]
	if !winner.Contributed.Lt(winner.FundingGoal) {
		return Contribution{}, newError(KindGoalReached, "proposal %d is fully funded", e.st.winningIndex)
	}

	headroom := new(uint256.Int).Sub(winner.FundingGoal, winner.Contributed)
	accepted := cloneInt(value)
	if accepted.Gt(headroom) {
		accepted = headroom
	}
	overage := new(uint256.Int).Sub(value, accepted)

	var receipt Contribution
	err := e.atomically(func() error {
		if err := e.vault.Deposit(e.pool, value); err != nil {
			return &Error{Kind: KindTransferFailed, Reason: "deposit contribution", Err: err}
		}

		p := e.st.participants[caller]
		w := e.st.proposals[e.st.winningIndex]
		p.Contributed.Add(p.Contributed, accepted)
		w.Contributed.Add(w.Contributed, accepted)
		receipt = Contribution{
			Seq:         uint64(len(e.st.contributions)),
			Contributor: caller,
			Sent:        cloneInt(value),
			Accepted:    cloneInt(accepted),
			Returned:    cloneInt(overage),
		}
		e.st.contributions = append(e.st.contributions, receipt.clone())
		if !accepted.IsZero() {
			e.emit(ContributionReceived{Contributor: caller, Amount: cloneInt(accepted)})
		}

		if !overage.IsZero() {
			if err := e.vault.Transfer(e.pool, caller, overage); err != nil {
				return &Error{Kind: KindTransferFailed, Reason: fmt.Sprintf("return overage to %s", caller.Hex()), Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return Contribution{}, err
	}
	return receipt, nil
}

// SetRewardParams 管理员在出资截止阶段设置奖励代币参数，结算前可覆盖
func (e *Engine) SetRewardParams(caller common.Address, name, symbol string) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := e.requirePhase(PhaseCollectingClosed); err != nil {
		return err
	}
	if name == "" || symbol == "" {
		return newError(KindEmptyValue, "reward token name and symbol are required")
	}
	return e.atomically(func() error {
		e.st.rewardParams = &RewardParams{Name: name, Symbol: symbol}
		e.emit(RewardParamsSet{Name: name, Symbol: symbol})
		return nil
	})
}

// RewardParams 返回已设置的奖励代币参数
func (e *Engine) RewardParams() (RewardParams, bool) {
	if e.st.rewardParams == nil {
		return RewardParams{}, false
	}
	return *e.st.rewardParams, true
}

// Contributions 按顺序返回全部出资记录
func (e *Engine) Contributions() []Contribution {
	out := make([]Contribution, len(e.st.contributions))
	for i, c := range e.st.contributions {
		out[i] = c.clone()
	}
	return out
}

// Settlement 返回结算记录，结算前返回 false
func (e *Engine) Settlement() (*Settlement, bool) {
	if e.st.settlement == nil {
		return nil, false
	}
	return e.st.settlement.clone(), true
}

// contributorTotals 按首次出资顺序去重，金额取投票人累计出资
func (e *Engine) contributorTotals() ([]Payout, *uint256.Int) {
	seen := make(map[common.Address]struct{})
	var payouts []Payout
	total := zero()
	for _, c := range e.st.contributions {
		if c.Accepted.IsZero() {
			continue
		}
		if _, ok := seen[c.Contributor]; ok {
			continue
		}
		seen[c.Contributor] = struct{}{}
		amount := cloneInt(e.st.participants[c.Contributor].Contributed)
		if amount.IsZero() {
			continue
		}
		payouts = append(payouts, Payout{Address: c.Contributor, Amount: amount})
		total.Add(total, amount)
	}
	return payouts, total
}

// closeOut 进入已结算阶段时执行一次：发放奖励或退款，剩余余额转给管理员
func (e *Engine) closeOut() error {
	result := &Settlement{
		Outcome:          SettlementEmpty,
		TotalContributed: zero(),
		AdminRemainder:   zero(),
	}
	e.st.settlement = result

	if len(e.st.proposals) > 0 {
		winner := e.st.proposals[e.st.winningIndex]
		payouts, total := e.contributorTotals()
		if !total.Eq(winner.Contributed) {
			return newError(KindInconsistent, "contributor totals %s differ from proposal total %s", total.Dec(), winner.Contributed.Dec())
		}
		result.HasWinner = true
		result.WinningIndex = e.st.winningIndex
		result.TotalContributed = cloneInt(total)

		if winner.Contributed.Eq(winner.FundingGoal) {
			if e.st.rewardParams == nil {
				return newError(KindMissingTokenParams, "reward token parameters were not set")
			}
			token, err := e.tokens.Create(e.st.rewardParams.Name, e.st.rewardParams.Symbol)
			if err != nil {
				return fmt.Errorf("engine: create reward token: %w", err)
			}
			result.Outcome = SettlementFunded
			result.RewardToken = token.Address()
			result.Rewards = clonePayouts(payouts)
			for _, p := range payouts {
				if err := token.Credit(p.Address, p.Amount); err != nil {
					return &Error{Kind: KindTransferFailed, Reason: fmt.Sprintf("credit reward to %s", p.Address.Hex()), Err: err}
				}
			}
		} else {
			balance := e.vault.BalanceOf(e.pool)
			if balance.Lt(total) {
				return newError(KindInconsistent, "pool balance %s below total contributed %s", balance.Dec(), total.Dec())
			}
			result.Outcome = SettlementRefunded
			result.Refunds = clonePayouts(payouts)
			for _, p := range payouts {
				if err := e.vault.Transfer(e.pool, p.Address, p.Amount); err != nil {
					return &Error{Kind: KindTransferFailed, Reason: fmt.Sprintf("refund %s", p.Address.Hex()), Err: err}
				}
			}
		}
	}

	remainder := e.vault.BalanceOf(e.pool)
	result.AdminRemainder = cloneInt(remainder)
	if !remainder.IsZero() {
		if err := e.vault.Transfer(e.pool, e.admin, remainder); err != nil {
			return &Error{Kind: KindTransferFailed, Reason: "sweep remainder to administrator", Err: err}
		}
	}
	return nil
}
