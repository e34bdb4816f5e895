package model

import (
	"time"
)

// ContributeRecordModel 出资记录，Returned 为当场退回的超额部分
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Seq           int64  `json:"seq" gorm:"uniqueIndex;not null"`
	ProposalIndex int64  `json:"proposal_index" gorm:"not null"`
	Address       string `json:"address" gorm:"index;not null"`
	Sent          string `json:"sent" gorm:"not null"`
	Accepted      string `json:"accepted" gorm:"not null"`
	Returned      string `json:"returned" gorm:"not null;default:'0'"`
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}
