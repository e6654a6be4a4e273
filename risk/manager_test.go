package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hft-engine-go/inventory"
	"hft-engine-go/market"
	"hft-engine-go/order"
)

func newTestRisk(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(DefaultLimits())
	require.NoError(t, err)
	return m
}

func TestNewManagerRejectsBadLimits(t *testing.T) {
	_, err := NewManager(Limits{MaxPositionValue: 0, MaxOrderNotional: 1, MaxDailyLoss: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxPositionValue))

	_, err = NewManager(Limits{MaxPositionValue: 1, MaxOrderNotional: -1, MaxDailyLoss: 1})
	assert.True(t, errors.Is(err, ErrMaxOrderNotional))

	_, err = NewManager(Limits{MaxPositionValue: 1, MaxOrderNotional: 1, MaxDailyLoss: 0})
	assert.True(t, errors.Is(err, ErrMaxDailyLoss))
}

// TestOrderQuantity 覆盖数量推导的各个折减环节
func TestOrderQuantity(t *testing.T) {
	m := newTestRisk(t)
	price := 100.0

	testCases := []struct {
		name   string
		signal float64
		vol    float64
		pos    inventory.Position
		hasPos bool
		want   float64
	}{
		{
			name:   "满强度信号 - 无仓位",
			signal: 0.01, // 远超归一化基准
			vol:    0,
			want:   1000, // 100000 * 1.0 / 100
		},
		{
			name:   "半强度信号",
			signal: 0.0005,
			vol:    0,
			want:   500,
		},
		{
			name:   "高波动折减到下限 0.1",
			signal: 0.01,
			vol:    0.5, // 1 - 0.5*10 < 0.1
			want:   100,
		},
		{
			name:   "同向仓位按敞口折减",
			signal: 0.01,
			vol:    0,
			pos:    inventory.Position{Size: 5000, AvgPrice: 100}, // 敞口 500k / 上限 1M
			hasPos: true,
			want:   500,
		},
		{
			name:   "同向仓位打满 - 数量归零",
			signal: 0.01,
			vol:    0,
			pos:    inventory.Position{Size: 10000, AvgPrice: 100},
			hasPos: true,
			want:   0,
		},
		{
			name:   "反向仓位不折减",
			signal: 0.01,
			vol:    0,
			pos:    inventory.Position{Size: -10000, AvgPrice: 100},
			hasPos: true,
			want:   1000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.OrderQuantity(tc.signal, tc.vol, price, tc.pos, tc.hasPos)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestOrderQuantityNotionalCap(t *testing.T) {
	m := newTestRisk(t)
	// 无论折减结果如何，名义价值不会超过单笔上限
	qty := m.OrderQuantity(1.0, 0, 50, inventory.Position{}, false)
	assert.LessOrEqual(t, qty*50, m.Limits().MaxOrderNotional+1e-9)
}

func TestOrderQuantityBadPrice(t *testing.T) {
	m := newTestRisk(t)
	assert.Zero(t, m.OrderQuantity(0.01, 0, 0, inventory.Position{}, false))
}

func TestDailyLossBreachedAtExactLimit(t *testing.T) {
	m := newTestRisk(t)
	m.RecordPnL(-49_999)
	assert.False(t, m.DailyLossBreached())
	m.RecordPnL(-1) // 正好到 -50,000
	assert.True(t, m.DailyLossBreached())
	assert.InDelta(t, -50_000, m.DailyPnL(), 1e-9)
}

func TestPositionOversized(t *testing.T) {
	m := newTestRisk(t)
	pos := inventory.Position{Size: -10_001, AvgPrice: 100}
	assert.True(t, m.PositionOversized(pos, 100))
	assert.False(t, m.PositionOversized(pos, 0)) // 缺盘口时跳过
	assert.False(t, m.PositionOversized(inventory.Position{Size: 10_000}, 100))
}

func TestReduceOrderPricing(t *testing.T) {
	m := newTestRisk(t)

	long := m.ReduceOrder("BTC-USD", 1000, 100)
	assert.Equal(t, order.SideSell, long.Side)
	assert.InDelta(t, 99.9, long.Price, 1e-9)
	assert.InDelta(t, 200, long.Quantity, 1e-9) // 20%

	short := m.ReduceOrder("BTC-USD", -1000, 100)
	assert.Equal(t, order.SideBuy, short.Side)
	assert.InDelta(t, 100.1, short.Price, 1e-9)
	assert.InDelta(t, 200, short.Quantity, 1e-9)
}

func TestCloseOrderPricing(t *testing.T) {
	m := newTestRisk(t)
	book := market.BookSnapshot{Symbol: "BTC-USD", Bid: 100, Ask: 101}

	long := m.CloseOrder("BTC-USD", 3, book)
	assert.Equal(t, order.SideSell, long.Side)
	assert.InDelta(t, 99, long.Price, 1e-9) // bid * 0.99
	assert.InDelta(t, 3, long.Quantity, 1e-9)

	short := m.CloseOrder("BTC-USD", -3, book)
	assert.Equal(t, order.SideBuy, short.Side)
	assert.InDelta(t, 102.01, short.Price, 1e-9) // ask * 1.01
	assert.InDelta(t, 3, short.Quantity, 1e-9)
}

func TestVolatilityTracking(t *testing.T) {
	m := newTestRisk(t)
	m.UpdateVolatility("BTC-USD", 0.02)
	assert.InDelta(t, 0.02, m.Volatility("BTC-USD"), 1e-9)
	assert.Zero(t, m.Volatility("UNKNOWN"))
}

func TestExposureAggregation(t *testing.T) {
	m := newTestRisk(t)
	positions := map[string]inventory.Position{
		"BTC-USD": {Size: 2, AvgPrice: 90},
		"ETH-USD": {Size: -10, AvgPrice: 100},
		"NO-BOOK": {Size: 5, AvgPrice: 1},
	}
	books := map[string]market.BookSnapshot{
		"BTC-USD": {Bid: 99, Ask: 101},
		"ETH-USD": {Bid: 199, Ask: 201},
	}
	// |2*100| + |-10*200|，缺盘口的 instrument 被跳过
	assert.InDelta(t, 2200, m.Exposure(positions, books), 1e-9)
}
