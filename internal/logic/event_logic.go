package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/blues/ivs/internal/model"
)

// EventLogic 事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(eventType string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64
	page, pageSize = normalizePage(page, pageSize)

	// 构建查询条件
	query := e.db.Model(&model.EventModel{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("id ASC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}

	return events, total, nil
}

// GetEvent 获取单个事件
func (e *EventLogic) GetEvent(eventId string) (*model.EventModel, error) {
	var event model.EventModel
	if err := e.db.Where("event_id = ?", eventId).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("事件不存在: %w", ErrRecordNotFound)
		}
		return nil, fmt.Errorf("获取事件失败: %w", err)
	}
	return &event, nil
}

// MarkProcessed 标记事件已处理
func (e *EventLogic) MarkProcessed(eventId string) error {
	err := e.db.Model(&model.EventModel{}).Where("event_id = ?", eventId).
		Updates(map[string]interface{}{"processed": true, "attempts": gorm.Expr("attempts + 1")}).Error
	if err != nil {
		return fmt.Errorf("更新事件处理状态失败: %w", err)
	}
	return nil
}

// MarkFailed 记录一次失败的处理尝试
func (e *EventLogic) MarkFailed(eventId string) error {
	err := e.db.Model(&model.EventModel{}).Where("event_id = ?", eventId).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return fmt.Errorf("更新事件尝试次数失败: %w", err)
	}
	return nil
}

// GetUnprocessedEvents 获取未处理且未超过重试上限的事件
func (e *EventLogic) GetUnprocessedEvents(limit, maxAttempts int) ([]model.EventModel, error) {
	var events []model.EventModel
	query := e.db.Where("processed = ?", false)
	if maxAttempts > 0 {
		query = query.Where("attempts < ?", maxAttempts)
	}
	if err := query.Order("id ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("获取未处理事件失败: %w", err)
	}
	return events, nil
}

// GetEventStatistics 获取事件统计信息
func (e *EventLogic) GetEventStatistics() (map[string]interface{}, error) {
	var total, processed int64

	if err := e.db.Model(&model.EventModel{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("获取总事件数失败: %w", err)
	}
	if err := e.db.Model(&model.EventModel{}).Where("processed = ?", true).Count(&processed).Error; err != nil {
		return nil, fmt.Errorf("获取已处理事件数失败: %w", err)
	}

	return map[string]interface{}{
		"total_events":     total,
		"processed_events": processed,
		"pending_events":   total - processed,
	}, nil
}
