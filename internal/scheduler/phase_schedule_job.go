package scheduler

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"

	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/logger"
)

// PhaseAdvancer 由投票业务层实现
type PhaseAdvancer interface {
	Phase() engine.Phase
	Admin() common.Address
	Advance(ctx context.Context, caller common.Address) (engine.Phase, error)
}

// PhaseScheduleJob 到达截止时间后以管理员身份推进阶段
type PhaseScheduleJob struct {
	voting    PhaseAdvancer
	deadlines map[engine.Phase]time.Time
	interval  time.Duration
	now       func() time.Time
}

// NewPhaseScheduleJob deadlines 以目标阶段为键
func NewPhaseScheduleJob(voting PhaseAdvancer, deadlines map[engine.Phase]time.Time, interval time.Duration) *PhaseScheduleJob {
	return &PhaseScheduleJob{
		voting:    voting,
		deadlines: deadlines,
		interval:  interval,
		now:       time.Now,
	}
}

// GetName 获取任务名称
func (j *PhaseScheduleJob) GetName() string {
	return "phase_scheduler"
}

// GetSchedule 获取调度配置
func (j *PhaseScheduleJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 连续推进所有已到期的阶段
func (j *PhaseScheduleJob) Execute() {
	now := j.now()
	for {
		current := j.voting.Phase()
		next, ok := engine.NextPhase(current)
		if !ok {
			return
		}
		deadline, scheduled := j.deadlines[next]
		if !scheduled || now.Before(deadline) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		phase, err := j.voting.Advance(ctx, j.voting.Admin())
		cancel()
		if err != nil {
			logger.Error("Failed to advance phase %s -> %s: %v", current, next, err)
			return
		}
		logger.Info("Phase advanced on schedule: %s -> %s", current, phase)
	}
}
