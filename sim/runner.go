package sim

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"hft-engine-go/market"
)

// QuoteSink 行情落点：非阻塞入队，队满返回 false。
type QuoteSink interface {
	EnqueueQuote(t market.Tick) bool
}

// Runner 以有界随机游走生成行情，按固定周期喂给引擎摄入通道。
// 替代真实行情源，供本地联调与端到端测试使用。
type Runner struct {
	Sink     QuoteSink
	Symbols  map[string]float64 // symbol -> 初始中间价
	Interval time.Duration      // 出 tick 周期
	Step     float64            // 单步最大相对波动
	Spread   float64            // 相对价差
	Seed     int64              // 0 则用时间种子

	prices map[string]float64
	rng    *rand.Rand
}

// Run 阻塞生成行情直到 ctx 结束。
func (r *Runner) Run(ctx context.Context) error {
	if r.Sink == nil || len(r.Symbols) == 0 {
		return errors.New("sim runner not initialized")
	}
	if r.Interval <= 0 {
		r.Interval = 10 * time.Millisecond
	}
	if r.Step <= 0 {
		r.Step = 0.0005
	}
	if r.Spread <= 0 {
		r.Spread = 0.0002
	}
	seed := r.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r.rng = rand.New(rand.NewSource(seed))
	r.prices = make(map[string]float64, len(r.Symbols))
	for sym, p := range r.Symbols {
		r.prices[sym] = p
	}

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.emit()
		}
	}
}

func (r *Runner) emit() {
	for sym, price := range r.prices {
		// 有界随机游走：单步相对波动落在 [-Step, +Step]
		price *= 1 + (r.rng.Float64()*2-1)*r.Step
		floor := r.Symbols[sym] * 0.5
		if price < floor {
			price = floor
		}
		r.prices[sym] = price

		half := price * r.Spread / 2
		r.Sink.EnqueueQuote(market.Tick{
			Symbol:  sym,
			Bid:     price - half,
			Ask:     price + half,
			BidSize: 1 + r.rng.Float64()*9,
			AskSize: 1 + r.rng.Float64()*9,
			Ts:      time.Now(),
		})
	}
}
