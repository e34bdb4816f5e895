package engine

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Authorizer 管理员能力校验，在引擎边界注入
type Authorizer interface {
	Authorize(caller common.Address) error
}

// AdminGate 单一管理员地址校验
type AdminGate struct {
	Admin common.Address
}

func (g AdminGate) Authorize(caller common.Address) error {
	if caller != g.Admin {
		return newError(KindUnauthorized, "caller %s is not the administrator", caller.Hex())
	}
	return nil
}

// Journal 支持快照回滚的外部账本
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
}

// Vault 资金账本：调用附带的资金存入、转账、余额查询
type Vault interface {
	Journal
	Deposit(to common.Address, amount *uint256.Int) error
	Transfer(from, to common.Address, amount *uint256.Int) error
	BalanceOf(addr common.Address) *uint256.Int
}

// RewardToken 奖励代币，只支持给持有人记账
type RewardToken interface {
	Address() common.Address
	Name() string
	Symbol() string
	Credit(holder common.Address, amount *uint256.Int) error
}

// TokenFactory 按名称和符号创建奖励代币
type TokenFactory interface {
	Journal
	Create(name, symbol string) (RewardToken, error)
}

// EntropySource 平局抽签使用的时间戳来源。
// 输入可被触发者预测或影响，不具备密码学安全性。
type EntropySource interface {
	Timestamp() (uint64, error)
}

// ClockEntropy 以本地时钟作为时间戳来源
type ClockEntropy struct {
	Now func() time.Time
}

func (c ClockEntropy) Timestamp() (uint64, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return uint64(now().Unix()), nil
}

// FixedEntropy 固定时间戳，用于回放和测试
type FixedEntropy uint64

func (f FixedEntropy) Timestamp() (uint64, error) { return uint64(f), nil }
