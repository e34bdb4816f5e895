package model

import (
	"time"
)

// EventModel 引擎事件记录，Topics/AbiData 为按合约 ABI 编码的日志
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventId   string `json:"event_id" gorm:"uniqueIndex;not null"`
	EventType string `json:"event_type" gorm:"index;not null"`
	Phase     string `json:"phase" gorm:"not null"`
	Data      string `json:"data" gorm:"type:text"`
	Topics    string `json:"topics" gorm:"type:text"`
	AbiData   string `json:"abi_data" gorm:"type:text"`
	Processed bool   `json:"processed" gorm:"default:false"`
	Attempts  int    `json:"attempts" gorm:"default:0"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
