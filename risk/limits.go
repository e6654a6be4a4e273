package risk

import (
	"errors"
	"fmt"
)

var (
	ErrMaxPositionValue = errors.New("maxPositionValue must be > 0")
	ErrMaxOrderNotional = errors.New("maxOrderNotional must be > 0")
	ErrMaxDailyLoss     = errors.New("maxDailyLoss must be > 0")
)

// Limits 风控限额，引擎生命周期内不变。构造时校验，运行中不再检查。
type Limits struct {
	MaxPositionValue float64 `yaml:"maxPositionValue"` // 单 instrument 仓位市值上限
	MaxOrderNotional float64 `yaml:"maxOrderNotional"` // 单笔订单名义价值上限
	MaxDailyLoss     float64 `yaml:"maxDailyLoss"`     // 当日已实现亏损上限
}

// DefaultLimits 返回默认限额。
func DefaultLimits() Limits {
	return Limits{
		MaxPositionValue: 1_000_000,
		MaxOrderNotional: 100_000,
		MaxDailyLoss:     50_000,
	}
}

// Validate 校验限额配置。
func (l Limits) Validate() error {
	if l.MaxPositionValue <= 0 {
		return fmt.Errorf("%w: %.2f", ErrMaxPositionValue, l.MaxPositionValue)
	}
	if l.MaxOrderNotional <= 0 {
		return fmt.Errorf("%w: %.2f", ErrMaxOrderNotional, l.MaxOrderNotional)
	}
	if l.MaxDailyLoss <= 0 {
		return fmt.Errorf("%w: %.2f", ErrMaxDailyLoss, l.MaxDailyLoss)
	}
	return nil
}
