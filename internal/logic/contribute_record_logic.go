package logic

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/blues/ivs/internal/model"
)

// ContributeRecordLogic 出资记录业务逻辑
type ContributeRecordLogic struct {
	db *gorm.DB
}

// NewContributeRecordLogic 创建出资记录业务逻辑
func NewContributeRecordLogic(db *gorm.DB) *ContributeRecordLogic {
	return &ContributeRecordLogic{db: db}
}

// GetContributeRecords 分页获取出资记录，address 为空时返回全部
func (c *ContributeRecordLogic) GetContributeRecords(address string, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	var records []model.ContributeRecordModel
	var total int64
	page, pageSize = normalizePage(page, pageSize)

	query := c.db.Model(&model.ContributeRecordModel{})
	if address != "" {
		query = query.Where("address = ?", address)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取出资记录总数失败: %w", err)
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取出资记录失败: %w", err)
	}

	return records, total, nil
}

// GetContributeStats 获取出资统计信息
func (c *ContributeRecordLogic) GetContributeStats() (map[string]interface{}, error) {
	var stats struct {
		TotalContributions int64
		UniqueContributors int64
	}

	// 总出资记录数
	if err := c.db.Model(&model.ContributeRecordModel{}).Count(&stats.TotalContributions).Error; err != nil {
		return nil, fmt.Errorf("获取总出资记录数失败: %w", err)
	}

	// 唯一出资人数量
	if err := c.db.Model(&model.ContributeRecordModel{}).Select("COUNT(DISTINCT address)").Scan(&stats.UniqueContributors).Error; err != nil {
		return nil, fmt.Errorf("获取唯一出资人数量失败: %w", err)
	}

	var accepted, returned []string
	if err := c.db.Model(&model.ContributeRecordModel{}).Pluck("accepted", &accepted).Error; err != nil {
		return nil, fmt.Errorf("获取出资金额失败: %w", err)
	}
	if err := c.db.Model(&model.ContributeRecordModel{}).Pluck("returned", &returned).Error; err != nil {
		return nil, fmt.Errorf("获取退回金额失败: %w", err)
	}
	totalAccepted, err := sumAmounts(accepted)
	if err != nil {
		return nil, err
	}
	totalReturned, err := sumAmounts(returned)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_contributions": stats.TotalContributions,
		"unique_contributors": stats.UniqueContributors,
		"total_accepted":      totalAccepted.Dec(),
		"total_returned":      totalReturned.Dec(),
	}, nil
}
