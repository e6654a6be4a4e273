package market

import "time"

// Tick 单笔行情：某 instrument 的最优买卖价与挂单量。创建后不可变。
type Tick struct {
	Symbol  string
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
	Ts      time.Time
}

// Mid 返回中间价；任一侧缺失返回 0。
func (t Tick) Mid() float64 {
	if t.Bid <= 0 || t.Ask <= 0 {
		return 0
	}
	return (t.Bid + t.Ask) / 2
}
