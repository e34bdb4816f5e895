package vault

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRejected            = errors.New("recipient rejected transfer")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// journalEntry 记录一次余额修改前的值
type journalEntry struct {
	addr    common.Address
	prev    *uint256.Int
	existed bool
}

// Book 内存资金账本，按快照回滚
type Book struct {
	mu       sync.RWMutex
	balances map[common.Address]*uint256.Int
	journal  []journalEntry
	rejects  map[common.Address]struct{}
}

// NewBook 创建空账本
func NewBook() *Book {
	return &Book{
		balances: make(map[common.Address]*uint256.Int),
		rejects:  make(map[common.Address]struct{}),
	}
}

// Reject 让指定地址拒绝接收转账
func (b *Book) Reject(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejects[addr] = struct{}{}
}

// Accept 取消拒收
func (b *Book) Accept(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rejects, addr)
}

func (b *Book) Snapshot() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.journal)
}

func (b *Book) RevertToSnapshot(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id < 0 || id > len(b.journal) {
		return
	}
	for i := len(b.journal) - 1; i >= id; i-- {
		entry := b.journal[i]
		if entry.existed {
			b.balances[entry.addr] = entry.prev
		} else {
			delete(b.balances, entry.addr)
		}
	}
	b.journal = b.journal[:id]
}

// Commit 清空回滚日志，之前的快照全部失效
func (b *Book) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.journal = b.journal[:0]
}

func (b *Book) set(addr common.Address, v *uint256.Int) {
	prev, existed := b.balances[addr]
	b.journal = append(b.journal, journalEntry{addr: addr, prev: prev, existed: existed})
	b.balances[addr] = v
}

func (b *Book) get(addr common.Address) *uint256.Int {
	if v, ok := b.balances[addr]; ok {
		return v
	}
	return new(uint256.Int)
}

// Deposit 外部资金存入
func (b *Book) Deposit(to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next, overflow := new(uint256.Int).AddOverflow(b.get(to), amount)
	if overflow {
		return fmt.Errorf("deposit to %s: balance overflow", to.Hex())
	}
	b.set(to, next)
	return nil
}

// Transfer 账本内转账
func (b *Book) Transfer(from, to common.Address, amount *uint256.Int) error {
	if amount == nil {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rejects[to]; ok {
		return fmt.Errorf("transfer to %s: %w", to.Hex(), ErrRejected)
	}
	src := b.get(from)
	if src.Lt(amount) {
		return fmt.Errorf("transfer from %s: %w", from.Hex(), ErrInsufficientBalance)
	}
	if from == to {
		return nil
	}
	b.set(from, new(uint256.Int).Sub(src, amount))
	b.set(to, new(uint256.Int).Add(b.get(to), amount))
	return nil
}

// BalanceOf 返回余额副本
func (b *Book) BalanceOf(addr common.Address) *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return new(uint256.Int).Set(b.get(addr))
}

// Account 余额快照项
type Account struct {
	Address common.Address
	Balance *uint256.Int
}

// Accounts 按地址排序返回非零余额
func (b *Book) Accounts() []Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Account, 0, len(b.balances))
	for addr, bal := range b.balances {
		if bal.IsZero() {
			continue
		}
		out = append(out, Account{Address: addr, Balance: new(uint256.Int).Set(bal)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Cmp(out[j].Address) < 0
	})
	return out
}

// Load 用持久化的余额初始化账本
func (b *Book) Load(accounts []Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances = make(map[common.Address]*uint256.Int, len(accounts))
	b.journal = b.journal[:0]
	for _, a := range accounts {
		b.balances[a.Address] = new(uint256.Int).Set(a.Balance)
	}
}

// Total 全部余额之和
func (b *Book) Total() *uint256.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := new(uint256.Int)
	for _, bal := range b.balances {
		total.Add(total, bal)
	}
	return total
}
