package inventory

import (
	"math"
	"sync"
)

// Position 单 instrument 的净仓位：带符号数量（正=多头）、加权平均开仓价
// 与已实现盈亏。只由订单成交路径修改。
type Position struct {
	Symbol      string
	Size        float64
	AvgPrice    float64
	LastProfit  float64
	TotalProfit float64
}

// Value 按给定价格的仓位市值（带符号）。
func (p Position) Value(price float64) float64 {
	return p.Size * price
}

// UnrealizedPnL 按给定价格的浮动盈亏。
func (p Position) UnrealizedPnL(price float64) float64 {
	return p.Size * (price - p.AvgPrice)
}

// applyFill 将一笔成交计入仓位，qty 带符号（正买负卖），返回本笔已实现盈亏。
// 同向加仓更新加权均价；反向成交先对冲既有仓位并实现盈亏，多余部分反手开仓；
// 恰好对冲时仓位归零。
func (p *Position) applyFill(qty, price float64) float64 {
	if qty == 0 {
		return 0
	}
	if p.Size == 0 || sameSign(p.Size, qty) {
		value := p.AvgPrice*p.Size + price*qty
		p.Size += qty
		if p.Size != 0 {
			p.AvgPrice = value / p.Size
		}
		p.LastProfit = 0
		return 0
	}

	closed := math.Min(math.Abs(qty), math.Abs(p.Size))
	dir := 1.0
	if p.Size < 0 {
		dir = -1
	}
	realized := closed * dir * (price - p.AvgPrice)
	p.Size += qty
	switch {
	case p.Size == 0:
		p.AvgPrice = 0
	case sameSign(p.Size, qty):
		// 反手：剩余仓位按本次成交价建仓
		p.AvgPrice = price
	}
	p.LastProfit = realized
	p.TotalProfit += realized
	return realized
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// Book 线程安全的仓位集合。写入只发生在订单成交路径。
type Book struct {
	mu        sync.RWMutex
	positions map[string]*Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]*Position)}
}

// Apply 将一笔成交计入 symbol 的仓位，返回已实现盈亏。
func (b *Book) Apply(symbol string, qty, price float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	pos, ok := b.positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		b.positions[symbol] = pos
	}
	return pos.applyFill(qty, price)
}

// Get 返回某 instrument 的仓位拷贝。
func (b *Book) Get(symbol string) (Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Snapshot 返回全部仓位的拷贝。
func (b *Book) Snapshot() map[string]Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Position, len(b.positions))
	for sym, pos := range b.positions {
		out[sym] = *pos
	}
	return out
}
