package logic

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/blues/ivs/internal/model"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// GetRefundRecords 分页获取退款记录
func (r *RefundRecordLogic) GetRefundRecords(page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	var records []model.RefundRecordModel
	var total int64
	page, pageSize = normalizePage(page, pageSize)

	if err := r.db.Model(&model.RefundRecordModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := r.db.Offset(offset).Limit(pageSize).Order("id ASC").Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}

	return records, total, nil
}

// GetRefundByAddress 获取指定地址的退款记录
func (r *RefundRecordLogic) GetRefundByAddress(address string) (*model.RefundRecordModel, error) {
	var record model.RefundRecordModel
	if err := r.db.Where("address = ?", address).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("退款记录不存在: %w", ErrRecordNotFound)
		}
		return nil, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return &record, nil
}

// GetRefundStats 获取退款统计信息
func (r *RefundRecordLogic) GetRefundStats() (map[string]interface{}, error) {
	var count int64
	if err := r.db.Model(&model.RefundRecordModel{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("获取退款数量失败: %w", err)
	}
	var amounts []string
	if err := r.db.Model(&model.RefundRecordModel{}).Pluck("amount", &amounts).Error; err != nil {
		return nil, fmt.Errorf("获取退款金额失败: %w", err)
	}
	total, err := sumAmounts(amounts)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"total_refunds": count,
		"total_amount":  total.Dec(),
	}, nil
}

// GetSettlementRecord 获取结算记录
func (r *RefundRecordLogic) GetSettlementRecord() (*model.SettlementRecordModel, error) {
	var record model.SettlementRecordModel
	if err := r.db.Order("id ASC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("尚未结算: %w", ErrRecordNotFound)
		}
		return nil, fmt.Errorf("获取结算记录失败: %w", err)
	}
	return &record, nil
}
