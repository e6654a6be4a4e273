package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hft-engine-go/market"
)

var ErrBadTickFrame = errors.New("bad tick frame")

// tickFrame 行情推送帧的 JSON 结构。Ts 为毫秒时间戳，缺省用本地时间。
type tickFrame struct {
	Symbol  string  `json:"symbol"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	BidSize float64 `json:"bidSize"`
	AskSize float64 `json:"askSize"`
	Ts      int64   `json:"ts"`
}

// ParseTick 解析一帧行情推送。
func ParseTick(raw []byte) (market.Tick, error) {
	var frame tickFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return market.Tick{}, fmt.Errorf("%w: %v", ErrBadTickFrame, err)
	}
	if frame.Symbol == "" || frame.Bid <= 0 || frame.Ask <= 0 {
		return market.Tick{}, fmt.Errorf("%w: symbol=%q bid=%.4f ask=%.4f",
			ErrBadTickFrame, frame.Symbol, frame.Bid, frame.Ask)
	}
	ts := time.Now()
	if frame.Ts > 0 {
		ts = time.UnixMilli(frame.Ts)
	}
	if frame.BidSize <= 0 {
		frame.BidSize = 1.0
	}
	if frame.AskSize <= 0 {
		frame.AskSize = 1.0
	}
	return market.Tick{
		Symbol:  frame.Symbol,
		Bid:     frame.Bid,
		Ask:     frame.Ask,
		BidSize: frame.BidSize,
		AskSize: frame.AskSize,
		Ts:      ts,
	}, nil
}
