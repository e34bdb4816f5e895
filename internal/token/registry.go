package token

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/blues/ivs/internal/engine"
)

var ErrUnknownToken = errors.New("unknown reward token")

// Holding 持有人余额
type Holding struct {
	Holder  common.Address
	Balance *uint256.Int
}

// Token 奖励代币账本，只支持记账，不支持转账
type Token struct {
	reg      *Registry
	address  common.Address
	name     string
	symbol   string
	supply   *uint256.Int
	balances map[common.Address]*uint256.Int
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }

// Credit 给持有人增加余额
func (t *Token) Credit(holder common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("credit %s: amount must be positive", holder.Hex())
	}
	t.reg.mu.Lock()
	defer t.reg.mu.Unlock()
	if _, ok := t.reg.rejects[holder]; ok {
		return fmt.Errorf("credit %s: holder rejected", holder.Hex())
	}
	supply, overflow := new(uint256.Int).AddOverflow(t.supply, amount)
	if overflow {
		return fmt.Errorf("credit %s: supply overflow", holder.Hex())
	}
	prev, existed := t.balances[holder]
	t.reg.journal = append(t.reg.journal, undo{token: t, holder: holder, prevBalance: prev, existed: existed, prevSupply: t.supply})
	cur := new(uint256.Int)
	if existed {
		cur.Set(prev)
	}
	t.balances[holder] = cur.Add(cur, amount)
	t.supply = supply
	return nil
}

// BalanceOf 持有人余额
func (t *Token) BalanceOf(holder common.Address) *uint256.Int {
	t.reg.mu.RLock()
	defer t.reg.mu.RUnlock()
	if v, ok := t.balances[holder]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// TotalSupply 总发行量
func (t *Token) TotalSupply() *uint256.Int {
	t.reg.mu.RLock()
	defer t.reg.mu.RUnlock()
	return new(uint256.Int).Set(t.supply)
}

// Holdings 按地址排序返回全部持有人
func (t *Token) Holdings() []Holding {
	t.reg.mu.RLock()
	defer t.reg.mu.RUnlock()
	out := make([]Holding, 0, len(t.balances))
	for h, b := range t.balances {
		out = append(out, Holding{Holder: h, Balance: new(uint256.Int).Set(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Holder.Cmp(out[j].Holder) < 0 })
	return out
}

// undo 回滚日志项，created 为 true 表示创建代币
type undo struct {
	token       *Token
	created     bool
	holder      common.Address
	prevBalance *uint256.Int
	existed     bool
	prevSupply  *uint256.Int
}

// Registry 奖励代币工厂，代币地址由工厂地址和序号派生
type Registry struct {
	mu      sync.RWMutex
	owner   common.Address
	nonce   uint64
	tokens  []*Token
	byAddr  map[common.Address]*Token
	journal []undo
	rejects map[common.Address]struct{}
}

// NewRegistry 创建代币工厂
func NewRegistry(owner common.Address) *Registry {
	return &Registry{
		owner:   owner,
		byAddr:  make(map[common.Address]*Token),
		rejects: make(map[common.Address]struct{}),
	}
}

var _ engine.TokenFactory = (*Registry)(nil)

// Create 创建新代币
func (r *Registry) Create(name, symbol string) (engine.RewardToken, error) {
	tok, err := r.create(name, symbol)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (r *Registry) create(name, symbol string) (*Token, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(symbol) == "" {
		return nil, errors.New("token name and symbol are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tok := &Token{
		reg:      r,
		address:  crypto.CreateAddress(r.owner, r.nonce),
		name:     name,
		symbol:   symbol,
		supply:   new(uint256.Int),
		balances: make(map[common.Address]*uint256.Int),
	}
	r.nonce++
	r.tokens = append(r.tokens, tok)
	r.byAddr[tok.address] = tok
	r.journal = append(r.journal, undo{token: tok, created: true})
	return tok, nil
}

// Reject 让指定持有人拒绝记账
func (r *Registry) Reject(holder common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejects[holder] = struct{}{}
}

func (r *Registry) Snapshot() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.journal)
}

func (r *Registry) RevertToSnapshot(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id > len(r.journal) {
		return
	}
	for i := len(r.journal) - 1; i >= id; i-- {
		u := r.journal[i]
		if u.created {
			delete(r.byAddr, u.token.address)
			r.tokens = r.tokens[:len(r.tokens)-1]
			r.nonce--
			continue
		}
		if u.existed {
			u.token.balances[u.holder] = u.prevBalance
		} else {
			delete(u.token.balances, u.holder)
		}
		u.token.supply = u.prevSupply
	}
	r.journal = r.journal[:id]
}

// Commit 清空回滚日志
func (r *Registry) Commit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = r.journal[:0]
}

// Get 按地址查找代币
func (r *Registry) Get(addr common.Address) (*Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tok, ok := r.byAddr[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, addr.Hex())
	}
	return tok, nil
}

// Tokens 按创建顺序返回全部代币
func (r *Registry) Tokens() []*Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Token(nil), r.tokens...)
}

// Restore 从持久化记录恢复一个代币及其余额
func (r *Registry) Restore(name, symbol string, holdings []Holding) (*Token, error) {
	tok, err := r.create(name, symbol)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range holdings {
		tok.balances[h.Holder] = new(uint256.Int).Set(h.Balance)
		tok.supply.Add(tok.supply, h.Balance)
	}
	r.journal = r.journal[:0]
	return tok, nil
}
