package market

import "sync"

// Book 维护单个 instrument 的盘口：最优买卖价/量加上价格->数量阶梯。
// 仅由行情摄入路径写入；信号与风控路径通过 Snapshot 读取拷贝。
type Book struct {
	mu      sync.RWMutex
	symbol  string
	bid     float64
	ask     float64
	bidSize float64
	askSize float64
	bids    map[float64]float64 // price -> qty
	asks    map[float64]float64
}

func NewBook(symbol string) *Book {
	return &Book{
		symbol: symbol,
		bids:   make(map[float64]float64),
		asks:   make(map[float64]float64),
	}
}

// Update 用一笔 tick 替换盘口顶端并写入阶梯。
func (b *Book) Update(t Tick) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bid = t.Bid
	b.ask = t.Ask
	b.bidSize = t.BidSize
	b.askSize = t.AskSize
	b.bids[t.Bid] = t.BidSize
	b.asks[t.Ask] = t.AskSize
}

// Best 返回最优买/卖价。
func (b *Book) Best() (bid, ask float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bid, b.ask
}

// Mid 返回中间价；任一侧缺失返回 0。
func (b *Book) Mid() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.bid <= 0 || b.ask <= 0 {
		return 0
	}
	return (b.bid + b.ask) / 2
}

// Snapshot 返回盘口的不可变拷贝，可安全并发读取。
func (b *Book) Snapshot() BookSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := BookSnapshot{
		Symbol:  b.symbol,
		Bid:     b.bid,
		Ask:     b.ask,
		BidSize: b.bidSize,
		AskSize: b.askSize,
		Bids:    make(map[float64]float64, len(b.bids)),
		Asks:    make(map[float64]float64, len(b.asks)),
	}
	for p, q := range b.bids {
		snap.Bids[p] = q
	}
	for p, q := range b.asks {
		snap.Asks[p] = q
	}
	return snap
}

// BookSnapshot 某一时刻的盘口拷贝。
type BookSnapshot struct {
	Symbol  string
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
	Bids    map[float64]float64
	Asks    map[float64]float64
}

// Mid 返回快照的中间价；任一侧缺失返回 0。
func (s BookSnapshot) Mid() float64 {
	if s.Bid <= 0 || s.Ask <= 0 {
		return 0
	}
	return (s.Bid + s.Ask) / 2
}

// Spread 返回买卖价差。
func (s BookSnapshot) Spread() float64 {
	return s.Ask - s.Bid
}
