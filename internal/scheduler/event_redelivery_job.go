package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/blues/ivs/internal/logger"
)

const redeliveryBatch = 100

// Redeliverer 重新分发未处理事件
type Redeliverer interface {
	Redeliver(limit int) (int, error)
}

// EventRedeliveryJob 事件补偿任务
type EventRedeliveryJob struct {
	events   Redeliverer
	interval time.Duration
}

func NewEventRedeliveryJob(events Redeliverer, interval time.Duration) *EventRedeliveryJob {
	return &EventRedeliveryJob{events: events, interval: interval}
}

// GetName 获取任务名称
func (j *EventRedeliveryJob) GetName() string {
	return "event_redelivery"
}

// GetSchedule 获取调度配置
func (j *EventRedeliveryJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *EventRedeliveryJob) Execute() {
	n, err := j.events.Redeliver(redeliveryBatch)
	if err != nil {
		logger.Error("Failed to redeliver events: %v", err)
		return
	}
	if n > 0 {
		logger.Info("Redelivered %d unprocessed events", n)
	}
}
