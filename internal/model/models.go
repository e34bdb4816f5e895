package model

// All 需要自动迁移的全部表
func All() []interface{} {
	return []interface{}{
		&EngineStateModel{},
		&ParticipantModel{},
		&ProposalModel{},
		&ContributeRecordModel{},
		&RefundRecordModel{},
		&SettlementRecordModel{},
		&RewardTokenModel{},
		&RewardBalanceModel{},
		&AccountBalanceModel{},
		&EventModel{},
	}
}
