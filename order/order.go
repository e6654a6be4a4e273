package order

import (
	"sync/atomic"
	"time"
)

// Side 订单方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// StaleAfter 挂单寿命上限：严格超过该时长的订单被维护循环撤销。
const StaleAfter = 100 * time.Millisecond

// Order 一笔在途订单。除 Reprice（撤销重建语义）外创建后不可变。
type Order struct {
	ID       int64
	Symbol   string
	Side     Side
	Price    float64
	Quantity float64
	Created  time.Time
}

// Stale 判断订单在 now 时刻是否过期。age == StaleAfter 尚不过期。
func (o Order) Stale(now time.Time) bool {
	return now.Sub(o.Created) > StaleAfter
}

// SignedQty 正买负卖。
func (o Order) SignedQty() float64 {
	if o.Side == SideSell {
		return -o.Quantity
	}
	return o.Quantity
}

// Notional 订单名义价值。
func (o Order) Notional() float64 {
	return o.Price * o.Quantity
}

var nextID atomic.Int64

func init() {
	// 以纳秒时刻作为起点，进程内单调递增
	nextID.Store(time.Now().UnixNano())
}

// NextID 返回进程内唯一且单调的订单 ID。
func NextID() int64 {
	return nextID.Add(1)
}
