package event

import (
	"errors"
	"sync"

	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/model"
)

// AllEvents 订阅全部事件类型
const AllEvents = "*"

// EventProcessor 事件处理器接口
type EventProcessor interface {
	Process(event *model.EventModel, eventData map[string]interface{}) error
	GetEventType() string
}

// ProcessorManager 事件处理器管理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[string][]EventProcessor
}

// NewProcessorManager 创建处理器管理器
func NewProcessorManager(processors ...EventProcessor) *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[string][]EventProcessor),
	}
	for _, p := range processors {
		manager.RegisterProcessor(p)
	}
	logger.Info("ProcessorManager initialized with %d processors", len(processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	eventType := processor.GetEventType()
	pm.processors[eventType] = append(pm.processors[eventType], processor)
	logger.Debug("Registered processor for event type: %s", eventType)
}

// ProcessEvent 依次执行订阅该类型和全部类型的处理器，返回合并的错误
func (pm *ProcessorManager) ProcessEvent(event *model.EventModel, eventData map[string]interface{}) error {
	pm.mu.RLock()
	matched := append([]EventProcessor(nil), pm.processors[event.EventType]...)
	matched = append(matched, pm.processors[AllEvents]...)
	pm.mu.RUnlock()

	if len(matched) == 0 {
		logger.Warn("No processor found for event type: %s", event.EventType)
		return nil
	}

	var errs []error
	for _, p := range matched {
		if err := p.Process(event, eventData); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetSupportedEventTypes 获取支持的事件类型列表
func (pm *ProcessorManager) GetSupportedEventTypes() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	eventTypes := make([]string, 0, len(pm.processors))
	for eventType := range pm.processors {
		eventTypes = append(eventTypes, eventType)
	}
	return eventTypes
}
