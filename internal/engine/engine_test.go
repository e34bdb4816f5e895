package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/token"
	"github.com/blues/ivs/internal/vault"
)

var (
	admin = common.HexToAddress("0x000000000000000000000000000000000000ad01")
	pool  = common.HexToAddress("0x000000000000000000000000000000000000f001")
	v1    = common.HexToAddress("0x0000000000000000000000000000000000000101")
	v2    = common.HexToAddress("0x0000000000000000000000000000000000000102")
	v3    = common.HexToAddress("0x0000000000000000000000000000000000000103")
	other = common.HexToAddress("0x0000000000000000000000000000000000000999")
)

type fixture struct {
	eng    *engine.Engine
	book   *vault.Book
	tokens *token.Registry
	events []engine.Event
}

func newFixture(t *testing.T, ts uint64) *fixture {
	t.Helper()
	f := &fixture{book: vault.NewBook(), tokens: token.NewRegistry(pool)}
	eng, err := engine.New(engine.Config{
		Admin:   admin,
		Pool:    pool,
		Vault:   f.book,
		Tokens:  f.tokens,
		Entropy: engine.FixedEntropy(ts),
		Emitter: engine.EmitterFunc(func(evt engine.Event) { f.events = append(f.events, evt) }),
	})
	require.NoError(t, err)
	f.eng = eng
	return f
}

func (f *fixture) advanceTo(t *testing.T, target engine.Phase) {
	t.Helper()
	for f.eng.Phase() < target {
		_, err := f.eng.Advance(admin)
		require.NoError(t, err)
	}
}

func (f *fixture) register(t *testing.T, voters ...common.Address) {
	t.Helper()
	for _, v := range voters {
		require.NoError(t, f.eng.Register(admin, v))
	}
}

func amount(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestNewValidatesConfig(t *testing.T) {
	_, err := engine.New(engine.Config{Admin: admin, Pool: pool})
	assert.Error(t, err)

	_, err = engine.New(engine.Config{Admin: admin, Pool: admin, Vault: vault.NewBook(), Tokens: token.NewRegistry(pool)})
	assert.Error(t, err)
}

func TestAdvanceWalksAllPhases(t *testing.T) {
	f := newFixture(t, 1)
	phases := engine.Phases()
	for i := 1; i < len(phases); i++ {
		next, err := f.eng.Advance(admin)
		require.NoError(t, err)
		assert.Equal(t, phases[i], next)
	}

	_, err := f.eng.Advance(admin)
	assert.True(t, errors.Is(err, engine.ErrInvalidPhase))
	assert.Equal(t, engine.PhaseClosed, f.eng.Phase())

	var changes int
	for _, evt := range f.events {
		if pc, ok := evt.(engine.PhaseChanged); ok {
			assert.Equal(t, pc.From+1, pc.To)
			changes++
		}
	}
	assert.Equal(t, len(phases)-1, changes)
}

func TestAdvanceRequiresAdmin(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.eng.Advance(v1)
	assert.True(t, errors.Is(err, engine.ErrUnauthorized))
	assert.Equal(t, engine.PhaseRegistering, f.eng.Phase())
}

func TestRegister(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.eng.Register(admin, v1))
	assert.True(t, f.eng.IsRegistered(v1))

	err := f.eng.Register(admin, v1)
	assert.Equal(t, engine.KindAlreadyRegistered, engine.KindOf(err))

	err = f.eng.Register(v1, v2)
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))

	f.advanceTo(t, engine.PhaseProposalsOpen)
	err = f.eng.Register(admin, v2)
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))
	assert.False(t, f.eng.IsRegistered(v2))
}

func TestRegisterRejectsPoolAccount(t *testing.T) {
	f := newFixture(t, 1)
	err := f.eng.Register(admin, pool)
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	assert.False(t, f.eng.IsRegistered(pool))

	f.register(t, v1)
	f.advanceTo(t, engine.PhaseProposalsOpen)
	_, err = f.eng.SubmitProposal(v1, "Park", amount(100))
	require.NoError(t, err)
	f.advanceTo(t, engine.PhaseCollectingOpen)

	_, err = f.eng.Contribute(pool, amount(30))
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	_, err = f.eng.Contribute(v1, amount(20))
	require.NoError(t, err)

	f.advanceTo(t, engine.PhaseClosed)
	st, ok := f.eng.Settlement()
	require.True(t, ok)
	require.Len(t, st.Refunds, 1)
	assert.Equal(t, v1, st.Refunds[0].Address)
	assert.Equal(t, uint64(20), st.Refunds[0].Amount.Uint64())
	assert.True(t, st.AdminRemainder.IsZero())
	assert.Equal(t, uint64(20), f.book.BalanceOf(v1).Uint64())
	assert.True(t, f.book.BalanceOf(admin).IsZero())
	assert.True(t, f.book.BalanceOf(pool).IsZero())
}

func TestUnregisteredCallerRejectedEverywhere(t *testing.T) {
	f := newFixture(t, 1)
	f.register(t, v1)
	f.advanceTo(t, engine.PhaseProposalsOpen)

	_, err := f.eng.SubmitProposal(other, "Park", amount(100))
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	_, err = f.eng.ListProposals(other)
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	_, err = f.eng.VoteOf(other, v1)
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	err = f.eng.Vote(other, 0)
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	_, err = f.eng.Contribute(other, amount(1))
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
}

func TestSubmitProposal(t *testing.T) {
	f := newFixture(t, 1)
	f.register(t, v1, v2)

	_, err := f.eng.SubmitProposal(v1, "Park", amount(100))
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))

	f.advanceTo(t, engine.PhaseProposalsOpen)
	idx, err := f.eng.SubmitProposal(v1, "Park", amount(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	idx, err = f.eng.SubmitProposal(v2, "park", amount(50))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	_, err = f.eng.SubmitProposal(v2, "Park", amount(10))
	assert.Equal(t, engine.KindDuplicateProposal, engine.KindOf(err))

	_, err = f.eng.SubmitProposal(v2, "", amount(10))
	assert.Equal(t, engine.KindEmptyValue, engine.KindOf(err))
	idx, err = f.eng.SubmitProposal(v2, "  ", amount(10))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx)
	_, err = f.eng.SubmitProposal(v2, "Library", amount(0))
	assert.Equal(t, engine.KindEmptyValue, engine.KindOf(err))

	list, err := f.eng.ListProposals(v1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Park", "park"}, list)

	f.advanceTo(t, engine.PhaseProposalsClosed)
	_, err = f.eng.ListProposals(v1)
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))
}

// 唯一最高票提案直接获胜
func TestTallySingleWinner(t *testing.T) {
	f := newFixture(t, 1)
	f.register(t, v1, v2)
	f.advanceTo(t, engine.PhaseProposalsOpen)
	_, err := f.eng.SubmitProposal(v1, "Park", amount(100))
	require.NoError(t, err)
	f.advanceTo(t, engine.PhaseVotingOpen)

	require.NoError(t, f.eng.Vote(v1, 0))
	require.NoError(t, f.eng.Vote(v2, 0))

	desc, err := f.eng.VoteOf(v1, v2)
	require.NoError(t, err)
	assert.Equal(t, "Park", desc)

	f.advanceTo(t, engine.PhaseTallied)
	idx, p, err := f.eng.Winner()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)
	assert.Equal(t, "Park", p.Description)
	assert.Equal(t, uint64(2), p.VoteCount)

	_, err = f.eng.VoteOf(v1, v2)
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))
}

func TestVoteOnce(t *testing.T) {
	f := newFixture(t, 1)
	f.register(t, v1, v2)
	f.advanceTo(t, engine.PhaseProposalsOpen)
	_, err := f.eng.SubmitProposal(v1, "Park", amount(100))
	require.NoError(t, err)
	_, err = f.eng.SubmitProposal(v2, "Pool", amount(100))
	require.NoError(t, err)

	err = f.eng.Vote(v1, 0)
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))

	f.advanceTo(t, engine.PhaseVotingOpen)
	_, err = f.eng.VoteOf(v1, v2)
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))

	require.NoError(t, f.eng.Vote(v1, 1))
	err = f.eng.Vote(v1, 0)
	assert.Equal(t, engine.KindAlreadyVoted, engine.KindOf(err))
	err = f.eng.Vote(v2, 7)
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))

	var total uint64
	for _, p := range f.eng.Proposals() {
		total += p.VoteCount
	}
	assert.Equal(t, uint64(1), total)
	part, ok := f.eng.Participant(v1)
	require.True(t, ok)
	assert.True(t, part.HasVoted)
	assert.Equal(t, uint64(1), part.VotedProposal)
}

func TestWinnerBeforeTallyAndWithoutProposals(t *testing.T) {
	f := newFixture(t, 1)
	_, _, err := f.eng.Winner()
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))

	f.advanceTo(t, engine.PhaseTallied)
	_, _, err = f.eng.Winner()
	assert.Equal(t, engine.KindNoWinningProposal, engine.KindOf(err))
}

// 平局时由时间戳和调用者决定获胜者，相同输入结果相同
func TestTallyTieBreakDeterministic(t *testing.T) {
	voters := make([]common.Address, 6)
	for i := range voters {
		voters[i] = common.BigToAddress(uint256.NewInt(uint64(0x200 + i)).ToBig())
	}

	run := func(ts uint64) uint64 {
		f := newFixture(t, ts)
		f.register(t, voters...)
		f.advanceTo(t, engine.PhaseProposalsOpen)
		_, err := f.eng.SubmitProposal(voters[0], "A", amount(10))
		require.NoError(t, err)
		_, err = f.eng.SubmitProposal(voters[0], "B", amount(10))
		require.NoError(t, err)
		f.advanceTo(t, engine.PhaseVotingOpen)
		for i, v := range voters {
			require.NoError(t, f.eng.Vote(v, uint64(i%2)))
		}
		f.advanceTo(t, engine.PhaseTallied)
		idx, _, err := f.eng.Winner()
		require.NoError(t, err)

		tally, ok := f.eng.Tally()
		require.True(t, ok)
		assert.Equal(t, []uint64{0, 1}, tally.Tied)
		assert.Equal(t, uint64(3), tally.TopVotes)
		assert.Equal(t, ts, tally.Timestamp)
		return idx
	}

	first := run(1700000000)
	assert.Equal(t, engine.SelectAmongTied(1700000000, admin, []uint64{0, 1}), first)
	assert.Equal(t, first, run(1700000000))
}

func TestSelectAmongTiedDistribution(t *testing.T) {
	tied := []uint64{2, 5, 7}
	counts := make(map[uint64]int)
	const trials = 3000
	for ts := uint64(0); ts < trials; ts++ {
		counts[engine.SelectAmongTied(ts, admin, tied)]++
	}
	require.Len(t, counts, len(tied))
	for _, idx := range tied {
		assert.InDelta(t, trials/len(tied), counts[idx], trials*0.1, fmt.Sprintf("index %d", idx))
	}
	assert.Equal(t, uint64(4), engine.SelectAmongTied(9, admin, []uint64{4}))
}

type collectingSetup struct {
	*fixture
}

func newCollecting(t *testing.T, goal uint64) collectingSetup {
	t.Helper()
	f := newFixture(t, 1)
	f.register(t, v1, v2, v3)
	f.advanceTo(t, engine.PhaseProposalsOpen)
	_, err := f.eng.SubmitProposal(v1, "Park", amount(goal))
	require.NoError(t, err)
	f.advanceTo(t, engine.PhaseVotingOpen)
	require.NoError(t, f.eng.Vote(v1, 0))
	f.advanceTo(t, engine.PhaseCollectingOpen)
	return collectingSetup{f}
}

// 第二笔出资被截断，超出部分立即退回
func TestContributeCapsAtGoal(t *testing.T) {
	s := newCollecting(t, 100)

	c1, err := s.eng.Contribute(v1, amount(60))
	require.NoError(t, err)
	assert.Equal(t, uint64(60), c1.Accepted.Uint64())
	assert.True(t, c1.Returned.IsZero())

	c2, err := s.eng.Contribute(v2, amount(60))
	require.NoError(t, err)
	assert.Equal(t, uint64(40), c2.Accepted.Uint64())
	assert.Equal(t, uint64(20), c2.Returned.Uint64())

	_, p, err := s.eng.Winner()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), p.Contributed.Uint64())
	assert.Equal(t, uint64(100), s.book.BalanceOf(pool).Uint64())
	assert.Equal(t, uint64(20), s.book.BalanceOf(v2).Uint64())

	_, err = s.eng.Contribute(v3, amount(1))
	assert.Equal(t, engine.KindGoalReached, engine.KindOf(err))
	_, err = s.eng.Contribute(v3, amount(0))
	assert.Equal(t, engine.KindEmptyValue, engine.KindOf(err))
}

func TestContributeOverageTransferFailureRollsBack(t *testing.T) {
	s := newCollecting(t, 100)
	s.book.Reject(v2)
	before := len(s.events)

	_, err := s.eng.Contribute(v2, amount(150))
	assert.Equal(t, engine.KindTransferFailed, engine.KindOf(err))

	assert.True(t, s.book.BalanceOf(pool).IsZero())
	assert.Empty(t, s.eng.Contributions())
	part, _ := s.eng.Participant(v2)
	assert.True(t, part.Contributed.IsZero())
	assert.Len(t, s.events, before)
}

func TestContributeWithoutProposals(t *testing.T) {
	f := newFixture(t, 1)
	f.register(t, v1)
	f.advanceTo(t, engine.PhaseCollectingOpen)
	_, err := f.eng.Contribute(v1, amount(5))
	assert.Equal(t, engine.KindNoWinningProposal, engine.KindOf(err))
}

func TestSetRewardParams(t *testing.T) {
	s := newCollecting(t, 100)
	err := s.eng.SetRewardParams(admin, "Share", "SHR")
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))

	s.advanceTo(t, engine.PhaseCollectingClosed)
	err = s.eng.SetRewardParams(v1, "Share", "SHR")
	assert.Equal(t, engine.KindUnauthorized, engine.KindOf(err))
	err = s.eng.SetRewardParams(admin, "Share", "")
	assert.Equal(t, engine.KindEmptyValue, engine.KindOf(err))

	require.NoError(t, s.eng.SetRewardParams(admin, "Share", "SHR"))
	rp, ok := s.eng.RewardParams()
	require.True(t, ok)
	assert.Equal(t, "SHR", rp.Symbol)
}

func TestSettlementFundedCreditsEachContributorOnce(t *testing.T) {
	s := newCollecting(t, 100)
	_, err := s.eng.Contribute(v1, amount(30))
	require.NoError(t, err)
	_, err = s.eng.Contribute(v2, amount(50))
	require.NoError(t, err)
	_, err = s.eng.Contribute(v1, amount(40))
	require.NoError(t, err)

	s.advanceTo(t, engine.PhaseCollectingClosed)
	require.NoError(t, s.eng.SetRewardParams(admin, "Share", "SHR"))
	s.advanceTo(t, engine.PhaseClosed)

	st, ok := s.eng.Settlement()
	require.True(t, ok)
	assert.Equal(t, engine.SettlementFunded, st.Outcome)
	require.Len(t, st.Rewards, 2)
	assert.Equal(t, v1, st.Rewards[0].Address)
	assert.Equal(t, uint64(50), st.Rewards[0].Amount.Uint64())
	assert.Equal(t, v2, st.Rewards[1].Address)

	tok, err := s.tokens.Get(st.RewardToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), tok.BalanceOf(v1).Uint64())
	assert.Equal(t, uint64(50), tok.BalanceOf(v2).Uint64())
	assert.Equal(t, uint64(100), tok.TotalSupply().Uint64())

	assert.True(t, s.book.BalanceOf(pool).IsZero())
	assert.Equal(t, uint64(100), s.book.BalanceOf(admin).Uint64())
	assert.Equal(t, uint64(100), st.AdminRemainder.Uint64())
	assert.Equal(t, uint64(20), s.book.BalanceOf(v1).Uint64())
}

func TestSettlementFundedRequiresRewardParams(t *testing.T) {
	s := newCollecting(t, 10)
	_, err := s.eng.Contribute(v1, amount(10))
	require.NoError(t, err)
	s.advanceTo(t, engine.PhaseCollectingClosed)

	_, err = s.eng.Advance(admin)
	assert.Equal(t, engine.KindMissingTokenParams, engine.KindOf(err))
	assert.Equal(t, engine.PhaseCollectingClosed, s.eng.Phase())
	_, settled := s.eng.Settlement()
	assert.False(t, settled)
	assert.Equal(t, uint64(10), s.book.BalanceOf(pool).Uint64())

	require.NoError(t, s.eng.SetRewardParams(admin, "Share", "SHR"))
	_, err = s.eng.Advance(admin)
	require.NoError(t, err)
	assert.Len(t, s.tokens.Tokens(), 1)
}

// 未达目标，按个人金额退款，余额转给管理员
func TestSettlementRefundsWhenGoalMissed(t *testing.T) {
	s := newCollecting(t, 100)
	_, err := s.eng.Contribute(v1, amount(20))
	require.NoError(t, err)
	_, err = s.eng.Contribute(v2, amount(30))
	require.NoError(t, err)
	require.NoError(t, s.book.Deposit(pool, amount(7)))

	s.advanceTo(t, engine.PhaseClosed)
	st, ok := s.eng.Settlement()
	require.True(t, ok)
	assert.Equal(t, engine.SettlementRefunded, st.Outcome)
	assert.Equal(t, uint64(50), st.TotalContributed.Uint64())
	require.Len(t, st.Refunds, 2)

	assert.Equal(t, uint64(20), s.book.BalanceOf(v1).Uint64())
	assert.Equal(t, uint64(30), s.book.BalanceOf(v2).Uint64())
	assert.Equal(t, uint64(7), s.book.BalanceOf(admin).Uint64())
	assert.True(t, s.book.BalanceOf(pool).IsZero())
	assert.Empty(t, s.tokens.Tokens())

	_, err = s.eng.Advance(admin)
	assert.Equal(t, engine.KindInvalidPhase, engine.KindOf(err))
}

func TestSettlementRefundFailureRollsBack(t *testing.T) {
	s := newCollecting(t, 100)
	_, err := s.eng.Contribute(v1, amount(20))
	require.NoError(t, err)
	_, err = s.eng.Contribute(v2, amount(30))
	require.NoError(t, err)
	s.advanceTo(t, engine.PhaseCollectingClosed)
	s.book.Reject(v2)

	_, err = s.eng.Advance(admin)
	assert.Equal(t, engine.KindTransferFailed, engine.KindOf(err))
	assert.Equal(t, engine.PhaseCollectingClosed, s.eng.Phase())
	assert.True(t, s.book.BalanceOf(v1).IsZero())
	assert.Equal(t, uint64(50), s.book.BalanceOf(pool).Uint64())

	s.book.Accept(v2)
	_, err = s.eng.Advance(admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), s.book.BalanceOf(v1).Uint64())
}

func TestSettlementInconsistentPool(t *testing.T) {
	s := newCollecting(t, 100)
	_, err := s.eng.Contribute(v1, amount(20))
	require.NoError(t, err)
	s.advanceTo(t, engine.PhaseCollectingClosed)
	require.NoError(t, s.book.Transfer(pool, other, amount(5)))

	_, err = s.eng.Advance(admin)
	assert.Equal(t, engine.KindInconsistent, engine.KindOf(err))
}

func TestSettlementWithoutProposalsSweepsBalance(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, f.book.Deposit(pool, amount(9)))
	f.advanceTo(t, engine.PhaseClosed)

	st, ok := f.eng.Settlement()
	require.True(t, ok)
	assert.Equal(t, engine.SettlementEmpty, st.Outcome)
	assert.False(t, st.HasWinner)
	assert.Equal(t, uint64(9), f.book.BalanceOf(admin).Uint64())
}

func TestConservationAcrossContributions(t *testing.T) {
	s := newCollecting(t, 90)
	sends := []struct {
		who common.Address
		v   uint64
	}{{v1, 25}, {v2, 25}, {v3, 25}, {v1, 25}, {v2, 25}}

	accepted := new(uint256.Int)
	for _, send := range sends {
		c, err := s.eng.Contribute(send.who, amount(send.v))
		if err != nil {
			assert.Equal(t, engine.KindGoalReached, engine.KindOf(err))
			continue
		}
		accepted.Add(accepted, c.Accepted)
		_, p, _ := s.eng.Winner()
		assert.False(t, p.Contributed.Gt(p.FundingGoal))
	}
	assert.Equal(t, uint64(90), accepted.Uint64())

	s.advanceTo(t, engine.PhaseCollectingClosed)
	require.NoError(t, s.eng.SetRewardParams(admin, "Share", "SHR"))
	s.advanceTo(t, engine.PhaseClosed)
	st, _ := s.eng.Settlement()

	refunded := new(uint256.Int)
	for _, r := range st.Refunds {
		refunded.Add(refunded, r.Amount)
	}
	sum := new(uint256.Int).Add(refunded, st.AdminRemainder)
	assert.True(t, sum.Eq(accepted))
}

func TestEventsOnlyPublishedOnSuccess(t *testing.T) {
	f := newFixture(t, 1)
	f.register(t, v1)
	require.Len(t, f.events, 1)
	assert.Equal(t, engine.EventTypeVoterRegistered, f.events[0].EventType())

	_ = f.eng.Register(admin, v1)
	assert.Len(t, f.events, 1)
}

func TestExportRestore(t *testing.T) {
	s := newCollecting(t, 100)
	_, err := s.eng.Contribute(v2, amount(35))
	require.NoError(t, err)
	snap := s.eng.Export()

	clone, err := engine.New(engine.Config{Admin: admin, Pool: pool, Vault: vault.NewBook(), Tokens: token.NewRegistry(pool)})
	require.NoError(t, err)
	require.NoError(t, clone.Restore(snap))

	assert.Equal(t, engine.PhaseCollectingOpen, clone.Phase())
	assert.Equal(t, s.eng.Proposals(), clone.Proposals())
	assert.Equal(t, s.eng.Contributions(), clone.Contributions())
	assert.Equal(t, s.eng.Voters(), clone.Voters())

	snap.Proposals = append(snap.Proposals, snap.Proposals[0])
	assert.Error(t, clone.Restore(snap))

	withPool := s.eng.Export()
	withPool.Participants = append(withPool.Participants, engine.ParticipantEntry{
		Address:     pool,
		Participant: engine.Participant{Registered: true, Contributed: amount(0)},
	})
	assert.Error(t, clone.Restore(withPool))
}

type failingEntropy struct{}

func (failingEntropy) Timestamp() (uint64, error) { return 0, errors.New("rpc down") }

func TestTieBreakEntropyFailureKeepsVotingClosed(t *testing.T) {
	eng, err := engine.New(engine.Config{
		Admin:   admin,
		Pool:    pool,
		Vault:   vault.NewBook(),
		Tokens:  token.NewRegistry(pool),
		Entropy: failingEntropy{},
	})
	require.NoError(t, err)
	for _, v := range []common.Address{v1, v2} {
		require.NoError(t, eng.Register(admin, v))
	}
	for eng.Phase() < engine.PhaseProposalsOpen {
		_, err = eng.Advance(admin)
		require.NoError(t, err)
	}
	_, err = eng.SubmitProposal(v1, "Park", amount(100))
	require.NoError(t, err)
	_, err = eng.SubmitProposal(v2, "Library", amount(100))
	require.NoError(t, err)
	for eng.Phase() < engine.PhaseVotingOpen {
		_, err = eng.Advance(admin)
		require.NoError(t, err)
	}
	require.NoError(t, eng.Vote(v1, 0))
	require.NoError(t, eng.Vote(v2, 1))
	_, err = eng.Advance(admin)
	require.NoError(t, err)
	require.Equal(t, engine.PhaseVotingClosed, eng.Phase())

	_, err = eng.Advance(admin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc down")
	assert.Equal(t, engine.ErrorKind(""), engine.KindOf(err))
	assert.Equal(t, engine.PhaseVotingClosed, eng.Phase())
	_, ok := eng.Tally()
	assert.False(t, ok)
	_, _, err = eng.Winner()
	assert.Equal(t, engine.KindWrongPhase, engine.KindOf(err))
}
