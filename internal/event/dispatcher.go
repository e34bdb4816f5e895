package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/logic"
	"github.com/blues/ivs/internal/metrics"
	"github.com/blues/ivs/internal/model"
)

// DefaultMaxAttempts 事件最多重试次数
const DefaultMaxAttempts = 5

// Dispatcher 用协程池异步处理已持久化的事件
type Dispatcher struct {
	pool        *ants.Pool
	manager     *ProcessorManager
	events      *logic.EventLogic
	metrics     *metrics.VotingMetrics
	maxAttempts int
	wg          sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{} // 已提交尚未处理完的事件
	handled  map[string]struct{} // 处理器已成功执行的事件
}

var _ logic.EventSink = (*Dispatcher)(nil)

// NewDispatcher 创建事件分发器
func NewDispatcher(workers int, manager *ProcessorManager, events *logic.EventLogic, m *metrics.VotingMetrics) (*Dispatcher, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create event pool: %w", err)
	}
	return &Dispatcher{
		pool:        pool,
		manager:     manager,
		events:      events,
		metrics:     m,
		maxAttempts: DefaultMaxAttempts,
		inflight:    make(map[string]struct{}),
		handled:     make(map[string]struct{}),
	}, nil
}

// Dispatch 提交事件到协程池，仍在处理中的事件不会重复提交
func (d *Dispatcher) Dispatch(events []model.EventModel) {
	for i := range events {
		evt := events[i]
		if !d.acquire(evt.EventId) {
			continue
		}
		d.wg.Add(1)
		if err := d.pool.Submit(func() {
			defer d.wg.Done()
			defer d.release(evt.EventId)
			d.handle(&evt)
		}); err != nil {
			d.wg.Done()
			d.release(evt.EventId)
			logger.Error("Failed to submit event %s: %v", evt.EventId, err)
		}
	}
}

func (d *Dispatcher) acquire(eventId string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.inflight[eventId]; ok {
		return false
	}
	d.inflight[eventId] = struct{}{}
	return true
}

func (d *Dispatcher) release(eventId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, eventId)
}

func (d *Dispatcher) wasHandled(eventId string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.handled[eventId]
	return ok
}

func (d *Dispatcher) handle(evt *model.EventModel) {
	// 处理器已执行过，只补记处理状态
	if d.wasHandled(evt.EventId) {
		d.markProcessed(evt)
		return
	}

	eventData := make(map[string]interface{})
	if evt.Data != "" {
		if err := json.Unmarshal([]byte(evt.Data), &eventData); err != nil {
			logger.Error("Failed to decode event %s: %v", evt.EventId, err)
			d.fail(evt)
			return
		}
	}

	if err := d.manager.ProcessEvent(evt, eventData); err != nil {
		logger.Error("Failed to process event %s (%s): %v", evt.EventId, evt.EventType, err)
		d.fail(evt)
		return
	}

	d.mu.Lock()
	d.handled[evt.EventId] = struct{}{}
	d.mu.Unlock()
	d.markProcessed(evt)
}

func (d *Dispatcher) markProcessed(evt *model.EventModel) {
	if err := d.events.MarkProcessed(evt.EventId); err != nil {
		logger.Error("Failed to mark event %s processed: %v", evt.EventId, err)
	}
}

func (d *Dispatcher) fail(evt *model.EventModel) {
	d.metrics.ObserveEventFailure(evt.EventType)
	if err := d.events.MarkFailed(evt.EventId); err != nil {
		logger.Error("Failed to record event failure %s: %v", evt.EventId, err)
	}
}

// Redeliver 重新分发未处理的事件，返回分发数量
func (d *Dispatcher) Redeliver(limit int) (int, error) {
	pending, err := d.events.GetUnprocessedEvents(limit, d.maxAttempts)
	if err != nil {
		return 0, err
	}
	d.Dispatch(pending)
	return len(pending), nil
}

// Wait 等待已提交的事件处理完成
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Release 等待处理完成后释放协程池
func (d *Dispatcher) Release() {
	d.wg.Wait()
	d.pool.Release()
}
