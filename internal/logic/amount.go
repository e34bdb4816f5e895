package logic

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// ErrRecordNotFound 查询的记录不存在
var ErrRecordNotFound = errors.New("record not found")

// sumAmounts 累加十进制金额字符串
func sumAmounts(values []string) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, v := range values {
		n, err := uint256.FromDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("金额格式错误 %q: %w", v, err)
		}
		total.Add(total, n)
	}
	return total, nil
}

// normalizePage 规范分页参数
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
