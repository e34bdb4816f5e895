package engine

import (
	"fmt"
	"strings"
)

// Phase 投票流程阶段，只能单调递增
type Phase uint8

const (
	PhaseRegistering      Phase = iota // 登记投票人
	PhaseProposalsOpen                 // 开放提案
	PhaseProposalsClosed               // 提案截止
	PhaseVotingOpen                    // 开放投票
	PhaseVotingClosed                  // 投票截止
	PhaseTallied                       // 已计票
	PhaseCollectingOpen                // 开放出资
	PhaseCollectingClosed              // 出资截止
	PhaseClosed                        // 已结算
)

var phaseNames = [...]string{
	PhaseRegistering:      "registering",
	PhaseProposalsOpen:    "proposals_open",
	PhaseProposalsClosed:  "proposals_closed",
	PhaseVotingOpen:       "voting_open",
	PhaseVotingClosed:     "voting_closed",
	PhaseTallied:          "tallied",
	PhaseCollectingOpen:   "collecting_open",
	PhaseCollectingClosed: "collecting_closed",
	PhaseClosed:           "closed",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	v, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Valid 是否为已定义的阶段
func (p Phase) Valid() bool {
	return int(p) < len(phaseNames)
}

// Terminal 是否为终止阶段
func (p Phase) Terminal() bool {
	return p == PhaseClosed
}

// ParsePhase 解析阶段名称
func ParsePhase(s string) (Phase, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// Phases 按顺序返回全部阶段
func Phases() []Phase {
	out := make([]Phase, len(phaseNames))
	for i := range phaseNames {
		out[i] = Phase(i)
	}
	return out
}

// transition 阶段转换表的一项：进入 next 时执行 hook
type transition struct {
	next Phase
	hook string
}

const (
	hookNone     = ""
	hookTally    = "tally"
	hookCloseOut = "close_out"
)

var transitions = map[Phase]transition{
	PhaseRegistering:      {next: PhaseProposalsOpen},
	PhaseProposalsOpen:    {next: PhaseProposalsClosed},
	PhaseProposalsClosed:  {next: PhaseVotingOpen},
	PhaseVotingOpen:       {next: PhaseVotingClosed},
	PhaseVotingClosed:     {next: PhaseTallied, hook: hookTally},
	PhaseTallied:          {next: PhaseCollectingOpen},
	PhaseCollectingOpen:   {next: PhaseCollectingClosed},
	PhaseCollectingClosed: {next: PhaseClosed, hook: hookCloseOut},
}

// NextPhase 返回转换表中的下一阶段，终止阶段返回 false
func NextPhase(p Phase) (Phase, bool) {
	t, ok := transitions[p]
	if !ok {
		return p, false
	}
	return t.next, true
}
