package signal

import "math"

const (
	// 组合信号权重
	reversionWeight = 0.4
	zScoreWeight    = 0.4
	momentumWeight  = 0.2

	// 动量子信号要求的最小窗口长度
	momentumMinWindow = 10

	// 波动率下限：窗口不足两点时避免下游除零
	minVolatility = 0.001
)

// Generator 基于行情窗口计算交易信号与波动率估计。纯计算，无共享可变状态。
type Generator struct {
	threshold float64
}

func New(threshold float64) *Generator {
	return &Generator{threshold: threshold}
}

// Threshold 返回可操作性阈值。
func (g *Generator) Threshold() float64 {
	return g.threshold
}

// Actionable 判断信号强度是否超过阈值。
func (g *Generator) Actionable(signal float64) bool {
	return math.Abs(signal) > g.threshold
}

// Combined 计算加权组合信号。窗口不足两点或当前价缺失时返回 0。
func (g *Generator) Combined(mids []float64, current float64) float64 {
	if len(mids) < 2 || current <= 0 {
		return 0
	}
	return reversionWeight*g.Reversion(mids, current) +
		zScoreWeight*g.ZScore(mids, current) +
		momentumWeight*g.Momentum(mids)
}

// Reversion 均值回归：当前价低于窗口均价时为正。
func (g *Generator) Reversion(mids []float64, current float64) float64 {
	if len(mids) == 0 || current <= 0 {
		return 0
	}
	return (mean(mids) - current) / current
}

// ZScore 以样本标准差（N-1）归一的均值偏离；平坦窗口返回 0。
func (g *Generator) ZScore(mids []float64, current float64) float64 {
	if len(mids) < 2 {
		return 0
	}
	m := mean(mids)
	sd := sampleStdDev(mids, m)
	if sd == 0 {
		return 0
	}
	return (m - current) / sd
}

// Momentum 比较窗口最新 10% 与最旧 10% 的均价；窗口短于 10 返回 0。
func (g *Generator) Momentum(mids []float64) float64 {
	n := len(mids)
	if n < momentumMinWindow {
		return 0
	}
	k := n / momentumMinWindow
	recent := mean(mids[n-k:])
	older := mean(mids[:k])
	if older == 0 {
		return 0
	}
	return (recent - older) / older
}

// Volatility 样本标准差除以均值；窗口不足两点时返回下限 0.001。
func (g *Generator) Volatility(mids []float64) float64 {
	if len(mids) < 2 {
		return minVolatility
	}
	m := mean(mids)
	if m == 0 {
		return minVolatility
	}
	return sampleStdDev(mids, m) / m
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStdDev(vals []float64, mean float64) float64 {
	var sum float64
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
