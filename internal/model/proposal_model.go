package model

import (
	"time"
)

// ProposalModel 投资提案
type ProposalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProposalIndex int64  `json:"proposal_index" gorm:"uniqueIndex;not null"`
	Description   string `json:"description" gorm:"type:text;not null"`
	Proposer      string `json:"proposer" gorm:"not null"`
	FundingGoal   string `json:"funding_goal" gorm:"not null"`
	VoteCount     int64  `json:"vote_count" gorm:"default:0"`
	Contributed   string `json:"contributed" gorm:"not null;default:'0'"`
}

// TableName 自定义表名
func (ProposalModel) TableName() string {
	return "proposal"
}
