package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/logger"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	config    *config.Config
	jobs      []Job
}

// NewManager 创建新的任务管理器
func NewManager(cfg *config.Config, voting PhaseAdvancer, events Redeliverer) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	m := &Manager{
		scheduler: s,
		config:    cfg,
	}
	if err := m.RegisterJobs(voting, events); err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return m, nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs(voting PhaseAdvancer, events Redeliverer) error {
	interval := time.Duration(m.config.Scheduler.Interval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	deadlines, err := m.config.Scheduler.PhaseDeadlines()
	if err != nil {
		return err
	}
	if voting != nil && len(deadlines) > 0 {
		m.register(NewPhaseScheduleJob(voting, deadlines, interval))
	}

	if events != nil {
		redeliver := time.Duration(m.config.Event.RedeliverSeconds) * time.Second
		if redeliver <= 0 {
			redeliver = time.Minute
		}
		m.register(NewEventRedeliveryJob(events, redeliver))
	}
	return nil
}

// register 注册单个任务，同名任务不会并发执行
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return
	}
	m.jobs = append(m.jobs, job)
}

// Jobs 已注册的任务
func (m *Manager) Jobs() []Job {
	return m.jobs
}

// Start 启动任务管理器
func (m *Manager) Start() {
	m.scheduler.Start()
	logger.Info("Task manager started with %d jobs", len(m.jobs))
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
