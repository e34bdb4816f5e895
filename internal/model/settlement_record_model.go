package model

import (
	"time"
)

// SettlementRecordModel 结算记录
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SettlementType   string     `json:"settlement_type" gorm:"not null"` // funded, refunded, empty
	HasWinner        bool       `json:"has_winner"`
	WinningIndex     int64      `json:"winning_index"`
	TotalContributed string     `json:"total_contributed" gorm:"not null"`
	RewardToken      string     `json:"reward_token"`
	Detail           string     `json:"detail" gorm:"type:text"`         // 结算明细 JSON
	AdminRemainder   string     `json:"admin_remainder" gorm:"not null"` // 转给管理员的余额
	SettlementTime   *time.Time `json:"settlement_time"`
}

// SettlementType 结算类型
type SettlementType string

const (
	SettlementTypeFunded   SettlementType = "funded"   // 达到目标
	SettlementTypeRefunded SettlementType = "refunded" // 退款
	SettlementTypeEmpty    SettlementType = "empty"    // 无提案
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
