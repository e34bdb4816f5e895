package model

import (
	"time"
)

// RefundRecordModel 结算退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProposalIndex int64  `json:"proposal_index" gorm:"not null"`
	Address       string `json:"address" gorm:"uniqueIndex;not null"`
	Amount        string `json:"amount" gorm:"not null"`
	Status        string `json:"status" gorm:"default:'success'"`
	RefundReason  string `json:"refund_reason" gorm:"type:text"`
}

// RefundStatus 退款状态
type RefundStatus string

const (
	RefundStatusSuccess RefundStatus = "success" // 成功
	RefundStatusFailed  RefundStatus = "failed"  // 失败
)

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
