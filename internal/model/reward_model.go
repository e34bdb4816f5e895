package model

import (
	"time"
)

// RewardTokenModel 奖励代币
type RewardTokenModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address     string `json:"address" gorm:"uniqueIndex;not null"`
	Name        string `json:"name" gorm:"not null"`
	Symbol      string `json:"symbol" gorm:"not null"`
	TotalSupply string `json:"total_supply" gorm:"not null"`
}

// TableName 自定义表名
func (RewardTokenModel) TableName() string {
	return "reward_token"
}

// RewardBalanceModel 奖励代币持有余额
type RewardBalanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TokenAddress string `json:"token_address" gorm:"uniqueIndex:idx_reward_holder;not null"`
	Holder       string `json:"holder" gorm:"uniqueIndex:idx_reward_holder;not null"`
	Balance      string `json:"balance" gorm:"not null"`
}

// TableName 自定义表名
func (RewardBalanceModel) TableName() string {
	return "reward_balance"
}

// AccountBalanceModel 资金账本余额
type AccountBalanceModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string `json:"address" gorm:"uniqueIndex;not null"`
	Balance string `json:"balance" gorm:"not null"`
}

// TableName 自定义表名
func (AccountBalanceModel) TableName() string {
	return "account_balance"
}
