package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/blues/ivs/internal/chain"
	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/metrics"
	"github.com/blues/ivs/internal/model"
	"github.com/blues/ivs/internal/repository"
	"github.com/blues/ivs/internal/token"
	"github.com/blues/ivs/internal/vault"
)

// EventSink 接收已持久化的事件
type EventSink interface {
	Dispatch(events []model.EventModel)
}

// VotingOptions 投票业务依赖
type VotingOptions struct {
	Admin   common.Address
	Pool    common.Address
	Store   *repository.Store
	Entropy engine.EntropySource
	Codec   *chain.Codec
	Metrics *metrics.VotingMetrics
}

// VotingLogic 投票业务逻辑。所有操作串行执行，
// 引擎操作成功后在同一事务中持久化，持久化失败则恢复内存状态
type VotingLogic struct {
	mu      sync.Mutex
	eng     *engine.Engine
	book    *vault.Book
	tokens  *token.Registry
	store   *repository.Store
	codec   *chain.Codec
	metrics *metrics.VotingMetrics
	sink    EventSink
	pending []engine.Event
}

// NewVotingLogic 创建投票业务逻辑，数据库中已有状态时从中恢复
func NewVotingLogic(ctx context.Context, opts VotingOptions) (*VotingLogic, error) {
	if opts.Store == nil {
		return nil, errors.New("存储不能为空")
	}
	l := &VotingLogic{
		book:    vault.NewBook(),
		tokens:  token.NewRegistry(opts.Pool),
		store:   opts.Store,
		codec:   opts.Codec,
		metrics: opts.Metrics,
	}
	eng, err := engine.New(engine.Config{
		Admin:   opts.Admin,
		Pool:    opts.Pool,
		Vault:   l.book,
		Tokens:  l.tokens,
		Entropy: opts.Entropy,
		Emitter: engine.EmitterFunc(l.collect),
	})
	if err != nil {
		return nil, err
	}
	l.eng = eng

	loaded, ok, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载引擎状态失败: %w", err)
	}
	if !ok {
		if err := opts.Store.Save(ctx, l.state(), nil); err != nil {
			return nil, fmt.Errorf("初始化引擎状态失败: %w", err)
		}
		logger.Info("Initialized new voting engine (admin: %s, pool: %s)", opts.Admin.Hex(), opts.Pool.Hex())
		l.metrics.SetPhase(int(eng.Phase()))
		return l, nil
	}

	if err := l.restore(loaded, opts); err != nil {
		return nil, err
	}
	logger.Info("Restored voting engine at phase %s with %d proposals", eng.Phase(), eng.ProposalCount())
	l.metrics.SetPhase(int(eng.Phase()))
	return l, nil
}

func (l *VotingLogic) restore(st *repository.State, opts VotingOptions) error {
	if st.Admin != opts.Admin || st.Pool != opts.Pool {
		return fmt.Errorf("持久化的管理员或资金池地址与配置不一致: %s/%s", st.Admin.Hex(), st.Pool.Hex())
	}
	if err := l.eng.Restore(st.Engine); err != nil {
		return fmt.Errorf("恢复引擎状态失败: %w", err)
	}
	l.book.Load(st.Accounts)
	for _, ts := range st.Tokens {
		tok, err := l.tokens.Restore(ts.Name, ts.Symbol, ts.Holdings)
		if err != nil {
			return fmt.Errorf("恢复奖励代币失败: %w", err)
		}
		if tok.Address() != ts.Address {
			return fmt.Errorf("奖励代币地址不一致: %s != %s", tok.Address().Hex(), ts.Address.Hex())
		}
	}
	return nil
}

// SetSink 设置事件接收者
func (l *VotingLogic) SetSink(sink EventSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

func (l *VotingLogic) collect(evt engine.Event) {
	l.pending = append(l.pending, evt)
}

func (l *VotingLogic) state() *repository.State {
	st := &repository.State{
		Admin:    l.eng.Admin(),
		Pool:     l.eng.Pool(),
		Engine:   l.eng.Export(),
		Accounts: l.book.Accounts(),
	}
	for _, tok := range l.tokens.Tokens() {
		st.Tokens = append(st.Tokens, repository.TokenState{
			Address:  tok.Address(),
			Name:     tok.Name(),
			Symbol:   tok.Symbol(),
			Holdings: tok.Holdings(),
		})
	}
	return st
}

// buildEvents 把引擎事件转换为事件记录
func (l *VotingLogic) buildEvents() ([]model.EventModel, error) {
	records := make([]model.EventModel, 0, len(l.pending))
	for _, evt := range l.pending {
		data, err := json.Marshal(evt)
		if err != nil {
			return nil, fmt.Errorf("编码事件失败: %w", err)
		}
		rec := model.EventModel{
			EventId:   uuid.NewString(),
			EventType: evt.EventType(),
			Phase:     l.eng.Phase().String(),
			Data:      string(data),
		}
		if l.codec != nil {
			log, err := l.codec.Encode(evt)
			if err != nil {
				return nil, fmt.Errorf("ABI 编码事件失败: %w", err)
			}
			topics := make([]string, len(log.Topics))
			for i, t := range log.Topics {
				topics[i] = t.Hex()
			}
			rec.Topics = strings.Join(topics, ",")
			rec.AbiData = hexutil.Encode(log.Data)
		}
		records = append(records, rec)
	}
	return records, nil
}

// run 串行执行一次写操作
func (l *VotingLogic) run(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	before := l.eng.Export()
	vaultSnap := l.book.Snapshot()
	tokenSnap := l.tokens.Snapshot()
	l.pending = l.pending[:0]

	err := fn()
	if err == nil {
		err = l.persist(ctx)
		if err != nil {
			if rerr := l.eng.Restore(before); rerr != nil {
				logger.Error("Failed to restore engine after persistence error: %v", rerr)
			}
			l.book.RevertToSnapshot(vaultSnap)
			l.tokens.RevertToSnapshot(tokenSnap)
		}
	}
	l.pending = l.pending[:0]

	result := "ok"
	if err != nil {
		result = string(engine.KindOf(err))
		logger.Warn("Operation %s failed: %v", op, err)
	}
	l.metrics.ObserveOperation(op, result, time.Since(start))
	return err
}

func (l *VotingLogic) persist(ctx context.Context) error {
	records, err := l.buildEvents()
	if err != nil {
		return err
	}
	if err := l.store.Save(ctx, l.state(), records); err != nil {
		return fmt.Errorf("持久化失败: %w", err)
	}
	l.book.Commit()
	l.tokens.Commit()
	if l.sink != nil && len(records) > 0 {
		l.sink.Dispatch(records)
	}
	return nil
}

// Register 登记投票人
func (l *VotingLogic) Register(ctx context.Context, caller, voter common.Address) error {
	return l.run(ctx, "register", func() error {
		return l.eng.Register(caller, voter)
	})
}

// SubmitProposal 提交提案
func (l *VotingLogic) SubmitProposal(ctx context.Context, caller common.Address, description string, goal *uint256.Int) (uint64, error) {
	var index uint64
	err := l.run(ctx, "submit_proposal", func() error {
		var err error
		index, err = l.eng.SubmitProposal(caller, description, goal)
		return err
	})
	return index, err
}

// Vote 投票
func (l *VotingLogic) Vote(ctx context.Context, caller common.Address, proposalIndex uint64) error {
	return l.run(ctx, "vote", func() error {
		return l.eng.Vote(caller, proposalIndex)
	})
}

// Advance 推进阶段
func (l *VotingLogic) Advance(ctx context.Context, caller common.Address) (engine.Phase, error) {
	var phase engine.Phase
	err := l.run(ctx, "advance_phase", func() error {
		var err error
		phase, err = l.eng.Advance(caller)
		return err
	})
	if err == nil {
		logger.Info("Phase advanced to %s", phase)
	}
	return phase, err
}

// Contribute 出资
func (l *VotingLogic) Contribute(ctx context.Context, caller common.Address, value *uint256.Int) (engine.Contribution, error) {
	var receipt engine.Contribution
	err := l.run(ctx, "contribute", func() error {
		var err error
		receipt, err = l.eng.Contribute(caller, value)
		return err
	})
	return receipt, err
}

// SetRewardParams 设置奖励代币参数
func (l *VotingLogic) SetRewardParams(ctx context.Context, caller common.Address, name, symbol string) error {
	return l.run(ctx, "set_reward_params", func() error {
		return l.eng.SetRewardParams(caller, name, symbol)
	})
}

// ListProposals 提案描述列表
func (l *VotingLogic) ListProposals(caller common.Address) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.ListProposals(caller)
}

// VoteOf 查询投票人所投提案
func (l *VotingLogic) VoteOf(caller, voter common.Address) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.VoteOf(caller, voter)
}

// Winner 获胜提案
func (l *VotingLogic) Winner() (uint64, engine.Proposal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.Winner()
}

// Phase 当前阶段
func (l *VotingLogic) Phase() engine.Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.Phase()
}

func (l *VotingLogic) Admin() common.Address { return l.eng.Admin() }

// Tally 计票结果
func (l *VotingLogic) Tally() (*engine.TallyResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.Tally()
}

// Settlement 结算结果
func (l *VotingLogic) Settlement() (*engine.Settlement, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.Settlement()
}

// Participant 投票人记录
func (l *VotingLogic) Participant(addr common.Address) (engine.Participant, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.eng.Participant(addr)
}

// RewardHolding 奖励代币余额
type RewardHolding struct {
	Token   common.Address
	Symbol  string
	Balance *uint256.Int
}

// Balances 资金余额和奖励代币余额
func (l *VotingLogic) Balances(addr common.Address) (*uint256.Int, []RewardHolding) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rewards []RewardHolding
	for _, tok := range l.tokens.Tokens() {
		bal := tok.BalanceOf(addr)
		if bal.IsZero() {
			continue
		}
		rewards = append(rewards, RewardHolding{Token: tok.Address(), Symbol: tok.Symbol(), Balance: bal})
	}
	return l.book.BalanceOf(addr), rewards
}
