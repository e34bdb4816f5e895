package model

import (
	"time"
)

// ParticipantModel 投票人
type ParticipantModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Seq           int64  `json:"seq" gorm:"not null"` // 登记顺序
	Address       string `json:"address" gorm:"uniqueIndex;not null"`
	Registered    bool   `json:"registered" gorm:"default:true"`
	HasVoted      bool   `json:"has_voted" gorm:"default:false"`
	VotedProposal int64  `json:"voted_proposal" gorm:"default:0"`
	Contributed   string `json:"contributed" gorm:"not null;default:'0'"` // 十进制金额
}

// TableName 自定义表名
func (ParticipantModel) TableName() string {
	return "participant"
}
