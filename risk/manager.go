package risk

import (
	"math"
	"sync"
	"time"

	"hft-engine-go/inventory"
	"hft-engine-go/market"
	"hft-engine-go/order"
)

const (
	// 信号强度归一化基准：|signal| 达到该值视为满仓信号
	signalReference = 0.001
	// 波动率线性折减系数与下限
	volDampening  = 10.0
	minSizeFactor = 0.1
	// 超限仓位单次削减比例
	reduceFraction = 0.2
	// 减仓单/平仓单的穿价幅度
	reducePriceOffset = 0.001
	closePriceOffset  = 0.01
)

// Manager 持有限额、当日已实现盈亏与各 instrument 波动率，
// 给出下单数量与减仓/平仓决策。所有方法不返回错误：输入视为合法，
// 缺盘口的 instrument 在该轮评估中被跳过。
type Manager struct {
	limits Limits

	mu         sync.RWMutex
	dailyPnL   float64
	volatility map[string]float64
}

// NewManager 创建风控管理器；非法限额在此拒绝。
func NewManager(limits Limits) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		limits:     limits,
		volatility: make(map[string]float64),
	}, nil
}

// Limits 返回限额配置。
func (m *Manager) Limits() Limits {
	return m.limits
}

// RecordPnL 累计一笔已实现盈亏。只有成交实现的盈亏进入当日口径。
func (m *Manager) RecordPnL(profit float64) {
	m.mu.Lock()
	m.dailyPnL += profit
	m.mu.Unlock()
}

// DailyPnL 返回当日已实现盈亏。
func (m *Manager) DailyPnL() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dailyPnL
}

// UpdateVolatility 记录某 instrument 的最新波动率估计。
func (m *Manager) UpdateVolatility(symbol string, vol float64) {
	m.mu.Lock()
	m.volatility[symbol] = vol
	m.mu.Unlock()
}

// Volatility 返回某 instrument 的最新波动率估计。
func (m *Manager) Volatility(symbol string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volatility[symbol]
}

// OrderQuantity 由信号强度、波动率、价格与现有仓位推导下单数量。
// 信号强度对 signalReference 归一到 [0,1]；波动率线性折减（下限 0.1）；
// 与信号同向的存量仓位按已用敞口比例折减；最终数量保证名义价值
// 不超过单笔上限。
func (m *Manager) OrderQuantity(signal, vol, price float64, pos inventory.Position, hasPos bool) float64 {
	if price <= 0 {
		return 0
	}
	strength := math.Min(1.0, math.Abs(signal)/signalReference)
	base := m.limits.MaxOrderNotional * strength

	volAdj := math.Max(minSizeFactor, 1.0-vol*volDampening)

	posAdj := 1.0
	if hasPos && pos.Size != 0 {
		same := (signal > 0 && pos.Size > 0) || (signal < 0 && pos.Size < 0)
		if same {
			exposure := math.Abs(pos.Size * price)
			posAdj = math.Max(0, 1.0-exposure/m.limits.MaxPositionValue)
		}
	}

	notional := base * volAdj * posAdj
	return math.Min(m.limits.MaxOrderNotional/price, notional/price)
}

// Exposure 汇总全部仓位的绝对市值（按中间价）。结果仅用于观测，
// 不参与任何限额判定。
func (m *Manager) Exposure(positions map[string]inventory.Position, books map[string]market.BookSnapshot) float64 {
	total := 0.0
	for sym, pos := range positions {
		book, ok := books[sym]
		if !ok {
			continue
		}
		mid := book.Mid()
		if mid <= 0 {
			continue
		}
		total += math.Abs(pos.Size * mid)
	}
	return total
}

// DailyLossBreached 当日已实现亏损达到上限时为真。这是触发全量
// 紧急停机的唯一条件。
func (m *Manager) DailyLossBreached() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dailyPnL <= -m.limits.MaxDailyLoss
}

// PositionOversized 某 instrument 仓位市值是否超过上限。
func (m *Manager) PositionOversized(pos inventory.Position, mid float64) bool {
	if mid <= 0 {
		return false
	}
	return math.Abs(pos.Size*mid) > m.limits.MaxPositionValue
}

// ReduceOrder 构造把仓位立即削减 20% 的激进限价单：
// 多头卖出、空头买回，价格穿过近侧 0.1% 保证在模拟成交模型中立即成交。
func (m *Manager) ReduceOrder(symbol string, size, mid float64) order.Order {
	side := order.SideSell
	price := mid * (1 - reducePriceOffset)
	if size < 0 {
		side = order.SideBuy
		price = mid * (1 + reducePriceOffset)
	}
	return order.Order{
		ID:       order.NextID(),
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: math.Abs(size) * reduceFraction,
		Created:  time.Now(),
	}
}

// CloseOrder 构造把仓位完全抹平的激进限价单，价格穿过近侧 1%。
func (m *Manager) CloseOrder(symbol string, size float64, book market.BookSnapshot) order.Order {
	side := order.SideSell
	price := book.Bid * (1 - closePriceOffset)
	if size < 0 {
		side = order.SideBuy
		price = book.Ask * (1 + closePriceOffset)
	}
	return order.Order{
		ID:       order.NextID(),
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: math.Abs(size),
		Created:  time.Now(),
	}
}
