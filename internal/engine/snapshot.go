package engine

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ParticipantEntry 带地址的投票人记录
type ParticipantEntry struct {
	Address common.Address `json:"address"`
	Participant
}

// Snapshot 引擎完整状态，用于持久化和重启恢复
type Snapshot struct {
	Phase         Phase              `json:"phase"`
	Participants  []ParticipantEntry `json:"participants"`
	Proposals     []Proposal         `json:"proposals"`
	WinningIndex  uint64             `json:"winning_index"`
	Tally         *TallyResult       `json:"tally,omitempty"`
	Contributions []Contribution     `json:"contributions"`
	RewardParams  *RewardParams      `json:"reward_params,omitempty"`
	Settlement    *Settlement        `json:"settlement,omitempty"`
}

// Export 导出状态副本
func (e *Engine) Export() Snapshot {
	s := e.st
	snap := Snapshot{
		Phase:         s.phase,
		Participants:  make([]ParticipantEntry, 0, len(s.order)),
		Proposals:     e.Proposals(),
		WinningIndex:  s.winningIndex,
		Tally:         s.tally.clone(),
		Contributions: e.Contributions(),
		Settlement:    s.settlement.clone(),
	}
	for _, addr := range s.order {
		snap.Participants = append(snap.Participants, ParticipantEntry{Address: addr, Participant: s.participants[addr].clone()})
	}
	if s.rewardParams != nil {
		rp := *s.rewardParams
		snap.RewardParams = &rp
	}
	return snap
}

// Restore 用快照替换当前状态，快照需自洽
func (e *Engine) Restore(snap Snapshot) error {
	if !snap.Phase.Valid() {
		return fmt.Errorf("engine: invalid phase %d", snap.Phase)
	}
	st := newState()
	st.phase = snap.Phase
	for _, entry := range snap.Participants {
		if _, ok := st.participants[entry.Address]; ok {
			return fmt.Errorf("engine: duplicate participant %s", entry.Address.Hex())
		}
		if entry.Address == e.pool {
			return fmt.Errorf("engine: pool account %s listed as participant", entry.Address.Hex())
		}
		p := entry.Participant.clone()
		st.participants[entry.Address] = &p
		st.order = append(st.order, entry.Address)
	}
	for i, p := range snap.Proposals {
		if _, ok := st.descriptions[p.Description]; ok {
			return fmt.Errorf("engine: duplicate proposal description at %d", i)
		}
		cp := p.clone()
		if cp.Contributed.Gt(cp.FundingGoal) {
			return fmt.Errorf("engine: proposal %d contributed above goal", i)
		}
		st.proposals = append(st.proposals, &cp)
		st.descriptions[p.Description] = uint64(i)
	}
	if len(st.proposals) > 0 && snap.WinningIndex >= uint64(len(st.proposals)) {
		return errors.New("engine: winning index out of range")
	}
	st.winningIndex = snap.WinningIndex
	st.tally = snap.Tally.clone()
	for _, c := range snap.Contributions {
		if _, ok := st.participants[c.Contributor]; !ok {
			return fmt.Errorf("engine: contribution %d from unknown participant", c.Seq)
		}
		st.contributions = append(st.contributions, c.clone())
	}
	if snap.RewardParams != nil {
		rp := *snap.RewardParams
		st.rewardParams = &rp
	}
	st.settlement = snap.Settlement.clone()
	e.st = st
	return nil
}
