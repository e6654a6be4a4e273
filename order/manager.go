package order

import (
	"sync"
	"time"

	"hft-engine-go/inventory"
	"hft-engine-go/market"
	"hft-engine-go/metrics"
)

// FillPolicy 决定订单提交后的成交模拟方式。
type FillPolicy interface {
	Fill(o Order, positions *inventory.Book) float64
}

// ImmediateFillPolicy 提交即全额成交：登记订单与仓位回填在同一步完成。
// 这是对真实交易所回路的显式简化；换成延迟/部分成交只需替换该策略。
type ImmediateFillPolicy struct{}

func (ImmediateFillPolicy) Fill(o Order, positions *inventory.Book) float64 {
	return positions.Apply(o.Symbol, o.SignedQty(), o.Price)
}

// Manager 维护在途订单集合并模拟成交。单次 Submit/Cancel/Reprice
// 对订单集合原子；跨操作不提供事务。
type Manager struct {
	mu        sync.RWMutex
	orders    map[int64]Order
	fill      FillPolicy
	positions *inventory.Book
}

func NewManager(positions *inventory.Book, fill FillPolicy) *Manager {
	if fill == nil {
		fill = ImmediateFillPolicy{}
	}
	return &Manager{
		orders:    make(map[int64]Order),
		fill:      fill,
		positions: positions,
	}
}

// Submit 登记订单并按成交策略立即回填仓位，返回本笔已实现盈亏。
func (m *Manager) Submit(o Order) float64 {
	if o.ID == 0 {
		o.ID = NextID()
	}
	if o.Created.IsZero() {
		o.Created = time.Now()
	}
	m.mu.Lock()
	m.orders[o.ID] = o
	active := len(m.orders)
	m.mu.Unlock()

	metrics.RecordSubmit(string(o.Side), active)
	return m.fill.Fill(o, m.positions)
}

// Cancel 从在途集合移除订单；不存在的 ID 为 no-op。
func (m *Manager) Cancel(id int64) {
	m.mu.Lock()
	_, ok := m.orders[id]
	if ok {
		delete(m.orders, id)
	}
	active := len(m.orders)
	m.mu.Unlock()
	if ok {
		metrics.RecordCancel(1, active)
	}
}

// Reprice 用同一 ID、新价格/数量与刷新后的创建时间替换订单（撤销重建语义）。
// 不存在的 ID 为 no-op。改价不触发重复成交。
func (m *Manager) Reprice(id int64, price, qty float64) {
	m.mu.Lock()
	o, ok := m.orders[id]
	if ok {
		o.Price = price
		o.Quantity = qty
		o.Created = time.Now()
		m.orders[id] = o
	}
	m.mu.Unlock()
	if ok {
		metrics.RecordReprice()
	}
}

// Get 返回某订单的拷贝。
func (m *Manager) Get(id int64) (Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	return o, ok
}

// Active 返回在途订单集合的拷贝。
func (m *Manager) Active() map[int64]Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]Order, len(m.orders))
	for id, o := range m.orders {
		out[id] = o
	}
	return out
}

// Count 返回在途订单数量。
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// CancelAll 撤销全部在途订单，返回撤销笔数。
func (m *Manager) CancelAll() int {
	m.mu.Lock()
	n := len(m.orders)
	m.orders = make(map[int64]Order)
	m.mu.Unlock()
	if n > 0 {
		metrics.RecordCancel(n, 0)
	}
	return n
}

// Maintain 对每笔在途订单：过期则撤销；否则若市场已穿越订单价位
// （买单价低于最新买价、卖单价高于最新卖价），改价到最新盘口。
func (m *Manager) Maintain(books map[string]market.BookSnapshot) {
	now := time.Now()
	for id, o := range m.Active() {
		if o.Stale(now) {
			m.Cancel(id)
			continue
		}
		book, ok := books[o.Symbol]
		if !ok {
			continue
		}
		switch {
		case o.Side == SideBuy && book.Bid > 0 && o.Price < book.Bid:
			m.Reprice(id, book.Bid, o.Quantity)
		case o.Side == SideSell && book.Ask > 0 && o.Price > book.Ask:
			m.Reprice(id, book.Ask, o.Quantity)
		}
	}
}
