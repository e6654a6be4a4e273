// Package metrics provides Prometheus metrics for the trading engine
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hft_ticks_processed_total",
		Help: "Market ticks applied to the state store",
	})
	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hft_ticks_dropped_total",
		Help: "Ticks dropped by the ingestion path (out of order or overflow)",
	})
	TickApplySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hft_tick_apply_seconds",
		Help:    "Latency of applying one tick to the state store",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})

	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hft_orders_submitted_total",
		Help: "Orders submitted, by side",
	}, []string{"side"})
	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hft_orders_cancelled_total",
		Help: "Orders removed from the active set",
	})
	OrdersRepriced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hft_orders_repriced_total",
		Help: "Orders replaced with a new price by the maintenance loop",
	})
	ActiveOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hft_active_orders",
		Help: "Current size of the active order set",
	})

	DailyPnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hft_daily_pnl",
		Help: "Cumulative realized PnL for the current day",
	})
	TotalPositionValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hft_total_position_value",
		Help: "Aggregate absolute position value across instruments",
	})

	SignalValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hft_signal_value",
		Help: "Latest combined signal per instrument",
	}, []string{"symbol"})
	VolatilityValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hft_volatility",
		Help: "Latest volatility estimate per instrument",
	}, []string{"symbol"})
)

// RecordTick 记录一笔已应用的 tick 及其处理耗时。
func RecordTick(latency time.Duration) {
	TicksProcessed.Inc()
	TickApplySeconds.Observe(latency.Seconds())
}

// RecordDroppedTick 记录一笔被丢弃的 tick。
func RecordDroppedTick() {
	TicksDropped.Inc()
}

// RecordSubmit 记录一笔提交的订单。
func RecordSubmit(side string, active int) {
	OrdersSubmitted.WithLabelValues(side).Inc()
	ActiveOrders.Set(float64(active))
}

// RecordCancel 记录 n 笔撤销。
func RecordCancel(n int, active int) {
	OrdersCancelled.Add(float64(n))
	ActiveOrders.Set(float64(active))
}

// RecordReprice 记录一次改价。
func RecordReprice() {
	OrdersRepriced.Inc()
}

// UpdateSignal 更新某 instrument 的信号与波动率。
func UpdateSignal(symbol string, signal, volatility float64) {
	SignalValue.WithLabelValues(symbol).Set(signal)
	VolatilityValue.WithLabelValues(symbol).Set(volatility)
}

// UpdateRisk 更新风控观测值。
func UpdateRisk(dailyPnL, totalPositionValue float64) {
	DailyPnL.Set(dailyPnL)
	TotalPositionValue.Set(totalPositionValue)
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
