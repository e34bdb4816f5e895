package engine

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Config 引擎依赖
type Config struct {
	Admin      common.Address
	Pool       common.Address
	Authorizer Authorizer
	Vault      Vault
	Tokens     TokenFactory
	Entropy    EntropySource
	Emitter    Emitter
}

// state 引擎全部可变状态，每次操作前整体复制用于回滚
type state struct {
	phase         Phase
	participants  map[common.Address]*Participant
	order         []common.Address
	proposals     []*Proposal
	descriptions  map[string]uint64
	winningIndex  uint64
	tally         *TallyResult
	contributions []Contribution
	rewardParams  *RewardParams
	settlement    *Settlement
}

func newState() *state {
	return &state{
		phase:        PhaseRegistering,
		participants: make(map[common.Address]*Participant),
		descriptions: make(map[string]uint64),
	}
}

func (s *state) clone() *state {
	c := &state{
		phase:         s.phase,
		participants:  make(map[common.Address]*Participant, len(s.participants)),
		order:         append([]common.Address(nil), s.order...),
		proposals:     make([]*Proposal, len(s.proposals)),
		descriptions:  make(map[string]uint64, len(s.descriptions)),
		winningIndex:  s.winningIndex,
		tally:         s.tally.clone(),
		contributions: make([]Contribution, len(s.contributions)),
		settlement:    s.settlement.clone(),
	}
	for addr, p := range s.participants {
		cp := p.clone()
		c.participants[addr] = &cp
	}
	for i, p := range s.proposals {
		cp := p.clone()
		c.proposals[i] = &cp
	}
	for d, i := range s.descriptions {
		c.descriptions[d] = i
	}
	for i, contrib := range s.contributions {
		c.contributions[i] = contrib.clone()
	}
	if s.rewardParams != nil {
		rp := *s.rewardParams
		c.rewardParams = &rp
	}
	return c
}

// Engine 投资投票引擎。
// 非并发安全，调用方需保证所有操作串行执行。
type Engine struct {
	admin   common.Address
	pool    common.Address
	auth    Authorizer
	vault   Vault
	tokens  TokenFactory
	entropy EntropySource
	emitter Emitter

	st      *state
	pending []Event
}

// New 创建处于登记阶段的引擎
func New(cfg Config) (*Engine, error) {
	if cfg.Vault == nil {
		return nil, errors.New("engine: vault is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("engine: token factory is required")
	}
	if cfg.Admin == (common.Address{}) {
		return nil, errors.New("engine: administrator address is required")
	}
	if cfg.Pool == (common.Address{}) || cfg.Pool == cfg.Admin {
		return nil, errors.New("engine: pool address must be set and differ from the administrator")
	}
	e := &Engine{
		admin:   cfg.Admin,
		pool:    cfg.Pool,
		auth:    cfg.Authorizer,
		vault:   cfg.Vault,
		tokens:  cfg.Tokens,
		entropy: cfg.Entropy,
		emitter: cfg.Emitter,
		st:      newState(),
	}
	if e.auth == nil {
		e.auth = AdminGate{Admin: cfg.Admin}
	}
	if e.entropy == nil {
		e.entropy = ClockEntropy{}
	}
	if e.emitter == nil {
		e.emitter = NoopEmitter{}
	}
	return e, nil
}

// SetEmitter 替换事件发布者
func (e *Engine) SetEmitter(em Emitter) {
	if em == nil {
		em = NoopEmitter{}
	}
	e.emitter = em
}

func (e *Engine) Admin() common.Address { return e.admin }

func (e *Engine) Pool() common.Address { return e.pool }

func (e *Engine) Phase() Phase { return e.st.phase }

// atomically 执行一次写操作：失败时恢复引擎状态、资金账本和代币账本，
// 成功后才发布期间产生的事件
func (e *Engine) atomically(fn func() error) error {
	saved := e.st.clone()
	vaultSnap := e.vault.Snapshot()
	tokenSnap := e.tokens.Snapshot()
	e.pending = e.pending[:0]

	if err := fn(); err != nil {
		e.st = saved
		e.vault.RevertToSnapshot(vaultSnap)
		e.tokens.RevertToSnapshot(tokenSnap)
		e.pending = e.pending[:0]
		return err
	}

	events := make([]Event, len(e.pending))
	copy(events, e.pending)
	e.pending = e.pending[:0]
	for _, evt := range events {
		e.emitter.Emit(evt)
	}
	return nil
}

func (e *Engine) emit(evt Event) {
	e.pending = append(e.pending, evt)
}

func (e *Engine) requireAdmin(caller common.Address) error {
	return e.auth.Authorize(caller)
}

func (e *Engine) requireVoter(caller common.Address) (*Participant, error) {
	p, ok := e.st.participants[caller]
	if !ok || !p.Registered {
		return nil, newError(KindUnauthorized, "caller %s is not a registered voter", caller.Hex())
	}
	return p, nil
}

func (e *Engine) requirePhase(required Phase) error {
	if e.st.phase != required {
		return wrongPhase(required, e.st.phase)
	}
	return nil
}

// Advance 管理员推进到下一阶段，并在转换时执行计票或结算
func (e *Engine) Advance(caller common.Address) (Phase, error) {
	if err := e.requireAdmin(caller); err != nil {
		return e.st.phase, err
	}
	from := e.st.phase
	t, ok := transitions[from]
	if !ok {
		return from, newError(KindInvalidPhase, "phase %s is terminal", from)
	}
	err := e.atomically(func() error {
		e.st.phase = t.next
		if err := e.runHook(t.hook, caller); err != nil {
			return err
		}
		e.emit(PhaseChanged{From: from, To: t.next})
		return nil
	})
	return e.st.phase, err
}

func (e *Engine) runHook(hook string, caller common.Address) error {
	switch hook {
	case hookNone:
		return nil
	case hookTally:
		return e.tallyWinner(caller)
	case hookCloseOut:
		return e.closeOut()
	default:
		return newError(KindInvalidPhase, "unknown transition hook %q", hook)
	}
}

func zero() *uint256.Int { return new(uint256.Int) }
