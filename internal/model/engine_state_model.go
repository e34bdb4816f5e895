package model

import (
	"time"
)

// EngineStateModel 引擎全局状态，只有一行
type EngineStateModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Phase        string `json:"phase" gorm:"not null"`
	Admin        string `json:"admin" gorm:"not null"`
	Pool         string `json:"pool" gorm:"not null"`
	WinningIndex int64  `json:"winning_index" gorm:"default:0"`
	Tally        string `json:"tally" gorm:"type:text"` // 计票结果 JSON
	RewardName   string `json:"reward_name"`
	RewardSymbol string `json:"reward_symbol"`
	Settled      bool   `json:"settled" gorm:"default:false"`
}

// EngineStateId 唯一状态行的主键
const EngineStateId int64 = 1

// TableName 自定义表名
func (EngineStateModel) TableName() string {
	return "engine_state"
}
