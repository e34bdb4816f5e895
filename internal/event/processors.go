package event

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/metrics"
	"github.com/blues/ivs/internal/model"
)

// AuditProcessor 记录全部事件的审计日志
type AuditProcessor struct {
	metrics *metrics.VotingMetrics
}

func NewAuditProcessor(m *metrics.VotingMetrics) *AuditProcessor {
	return &AuditProcessor{metrics: m}
}

func (p *AuditProcessor) GetEventType() string { return AllEvents }

func (p *AuditProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	logger.With(
		zap.String("event_id", event.EventId),
		zap.String("event_type", event.EventType),
		zap.String("phase", event.Phase),
		zap.Any("data", eventData),
	).Info("engine event")
	p.metrics.ObserveEvent(event.EventType)
	return nil
}

// PhaseProcessor 阶段变更事件处理器
type PhaseProcessor struct {
	metrics *metrics.VotingMetrics
}

func NewPhaseProcessor(m *metrics.VotingMetrics) *PhaseProcessor {
	return &PhaseProcessor{metrics: m}
}

func (p *PhaseProcessor) GetEventType() string { return engine.EventTypePhaseChanged }

// Process 事件数据中的阶段为名称字符串
func (p *PhaseProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	name, ok := eventData["to"].(string)
	if !ok {
		return fmt.Errorf("event %s: missing target phase", event.EventId)
	}
	phase, err := engine.ParsePhase(name)
	if err != nil {
		return fmt.Errorf("event %s: %w", event.EventId, err)
	}
	p.metrics.SetPhase(int(phase))
	switch phase {
	case engine.PhaseTallied:
		logger.Info("Votes tallied")
	case engine.PhaseClosed:
		logger.Info("Funding round settled")
	}
	return nil
}

// ContributeProcessor 出资事件处理器
type ContributeProcessor struct {
	metrics *metrics.VotingMetrics
}

func NewContributeProcessor(m *metrics.VotingMetrics) *ContributeProcessor {
	return &ContributeProcessor{metrics: m}
}

func (p *ContributeProcessor) GetEventType() string { return engine.EventTypeContributionReceived }

// Process 处理出资事件，金额为十进制字符串
func (p *ContributeProcessor) Process(event *model.EventModel, eventData map[string]interface{}) error {
	raw, ok := eventData["amount"].(string)
	if !ok {
		return fmt.Errorf("event %s: missing amount", event.EventId)
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("event %s: invalid amount %q: %w", event.EventId, raw, err)
	}
	p.metrics.AddContributed(amount)
	logger.Info("Processed contribution of %s from %v", raw, eventData["contributor"])
	return nil
}
