package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"hft-engine-go/infrastructure/logger"
	"hft-engine-go/inventory"
	"hft-engine-go/market"
	"hft-engine-go/metrics"
	"hft-engine-go/order"
	"hft-engine-go/risk"
	"hft-engine-go/signal"
)

// Config 引擎配置。限额与信号参数在引擎生命周期内不变。
type Config struct {
	Limits          risk.Limits
	Lookback        int           // 行情窗口长度（笔数）
	SignalThreshold float64       // 信号可操作阈值
	IngestInterval  time.Duration // 摄入循环节奏（最快）
	SignalInterval  time.Duration // 信号+执行循环节奏
	MaintainPeriod  time.Duration // 订单维护循环节奏
	RiskInterval    time.Duration // 风控循环节奏（最慢）
	FeedBuffer      int           // 摄入通道容量
}

func (c *Config) applyDefaults() {
	if c.Lookback <= 0 {
		c.Lookback = 100
	}
	if c.SignalThreshold <= 0 {
		c.SignalThreshold = 0.0002
	}
	if c.IngestInterval <= 0 {
		c.IngestInterval = time.Millisecond
	}
	if c.SignalInterval <= 0 {
		c.SignalInterval = 5 * time.Millisecond
	}
	if c.MaintainPeriod <= 0 {
		c.MaintainPeriod = 10 * time.Millisecond
	}
	if c.RiskInterval <= 0 {
		c.RiskInterval = 100 * time.Millisecond
	}
	if c.FeedBuffer <= 0 {
		c.FeedBuffer = 4096
	}
}

// Components 引擎外部依赖。
type Components struct {
	Logger *logger.Logger
	// OnEmergency 紧急停机时回调（在触发停机的循环上执行）
	OnEmergency func(reason string)
}

// Engine 调度四个独立节奏的控制循环（摄入、信号+执行、订单维护、风控），
// 共享行情存储、在途订单集合与仓位簿。各循环间不加跨操作锁：
// 单个容器操作原子，check-then-act 序列可能交错，这是已知并接受的限制。
type Engine struct {
	cfg Config
	log *logger.Logger

	store     *market.Store
	signals   *signal.Generator
	risk      *risk.Manager
	orders    *order.Manager
	positions *inventory.Book

	feed    chan market.Tick
	dropped atomic.Int64

	// mu 串行化生命周期变换；stopChan/loopWG 每次启动重建，
	// 循环在派生时捕获自己这一代的通道与 WaitGroup。
	mu       sync.Mutex
	running  atomic.Bool
	stopChan chan struct{}
	loopWG   *sync.WaitGroup

	tickCount  atomic.Int64
	orderCount atomic.Int64
	latencySum atomic.Int64 // 纳秒

	onEmergency func(reason string)
}

var ErrInvalidQuote = errors.New("invalid quote")

// New 创建引擎；非法限额在此拒绝，运行中不再校验。
func New(cfg Config, comps Components) (*Engine, error) {
	cfg.applyDefaults()
	riskMgr, err := risk.NewManager(cfg.Limits)
	if err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}
	log := comps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	positions := inventory.NewBook()
	return &Engine{
		cfg:         cfg,
		log:         log,
		store:       market.NewStore(cfg.Lookback),
		signals:     signal.New(cfg.SignalThreshold),
		risk:        riskMgr,
		orders:      order.NewManager(positions, order.ImmediateFillPolicy{}),
		positions:   positions,
		feed:        make(chan market.Tick, cfg.FeedBuffer),
		onEmergency: comps.OnEmergency,
	}, nil
}

// Start 启动四个控制循环。重复调用为 no-op。
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running.Load() {
		e.mu.Unlock()
		e.log.Info("engine already running")
		return
	}
	stop := make(chan struct{})
	wg := &sync.WaitGroup{}
	e.stopChan = stop
	e.loopWG = wg
	e.running.Store(true)
	wg.Add(4)
	go e.loop("ingest", e.cfg.IngestInterval, stop, wg, e.ingestPass)
	go e.loop("signal", e.cfg.SignalInterval, stop, wg, e.signalPass)
	go e.loop("maintain", e.cfg.MaintainPeriod, stop, wg, e.maintainPass)
	go e.loop("risk", e.cfg.RiskInterval, stop, wg, e.riskPass)
	e.mu.Unlock()
	e.log.Info("engine started",
		zap.Int("lookback", e.cfg.Lookback),
		zap.Float64("signal_threshold", e.cfg.SignalThreshold),
		zap.Duration("ingest_interval", e.cfg.IngestInterval),
		zap.Duration("risk_interval", e.cfg.RiskInterval))
}

// Stop 撤销全部在途订单并停止循环。未运行时为 no-op。
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running.Load() {
		e.mu.Unlock()
		return
	}
	e.running.Store(false)
	close(e.stopChan)
	wg := e.loopWG
	e.mu.Unlock()

	// 等待在锁外进行：紧急停机路径上的循环还要拿锁做状态变换
	wg.Wait()
	cancelled := e.orders.CancelAll()
	e.log.Info("engine stopped", zap.Int("orders_cancelled", cancelled))
}

// EmergencyShutdown 撤销全部在途订单、用激进平仓单抹平所有非零仓位并停止循环。
// 清理在检测到熔断条件的循环上同步执行。未运行时为 no-op。
func (e *Engine) EmergencyShutdown(reason string) {
	e.mu.Lock()
	if !e.running.Load() {
		e.mu.Unlock()
		return
	}
	e.running.Store(false)
	close(e.stopChan)
	e.mu.Unlock()
	e.log.LogRisk("emergency_shutdown", map[string]interface{}{"reason": reason})

	cancelled := e.orders.CancelAll()
	flattened := 0
	for sym, pos := range e.positions.Snapshot() {
		if pos.Size == 0 {
			continue
		}
		book, ok := e.store.Book(sym)
		if !ok {
			continue
		}
		co := e.risk.CloseOrder(sym, pos.Size, book)
		e.orders.Submit(co)
		e.orderCount.Add(1)
		flattened++
	}
	// 平仓单即时成交，随即清出在途集合，保证停机后订单簿为空
	e.orders.CancelAll()

	e.log.Warn("emergency shutdown completed",
		zap.String("reason", reason),
		zap.Int("orders_cancelled", cancelled),
		zap.Int("positions_flattened", flattened))
	if e.onEmergency != nil {
		e.onEmergency(reason)
	}
}

// IsRunning 返回运行标志。
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// RecordQuote 同步应用一笔行情。摄入路径与测试/仿真调用方共用该入口。
func (e *Engine) RecordQuote(symbol string, bid, ask, bidSize, askSize float64) error {
	if symbol == "" || bid <= 0 || ask <= 0 {
		return fmt.Errorf("%w: %s bid=%.4f ask=%.4f", ErrInvalidQuote, symbol, bid, ask)
	}
	e.applyTick(market.Tick{
		Symbol:  symbol,
		Bid:     bid,
		Ask:     ask,
		BidSize: bidSize,
		AskSize: askSize,
		Ts:      time.Now(),
	})
	return nil
}

// AddInstrument 以种子行情注册新 instrument。
func (e *Engine) AddInstrument(symbol string, initialBid, initialAsk float64) error {
	return e.RecordQuote(symbol, initialBid, initialAsk, 1.0, 1.0)
}

// EnqueueQuote 非阻塞地把一笔 tick 压入摄入通道，供行情网关与仿真器使用。
// 通道满时丢弃并返回 false：摄入永不阻塞上游。
func (e *Engine) EnqueueQuote(t market.Tick) bool {
	select {
	case e.feed <- t:
		return true
	default:
		e.dropped.Add(1)
		metrics.RecordDroppedTick()
		return false
	}
}

// loop 以固定节奏执行 pass，直到捕获的 stop 通道关闭。通道与 WaitGroup
// 都是本代的：复启后旧循环不会挂到新通道上。单轮失败只记录日志，
// 不终止循环：一笔坏行情或一次失败提交不能停掉引擎。
func (e *Engine) loop(name string, interval time.Duration, stop <-chan struct{}, wg *sync.WaitGroup, pass func()) {
	defer wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.runPass(name, pass)
		}
	}
}

func (e *Engine) runPass(name string, pass func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("loop iteration failed",
				zap.String("loop", name),
				zap.Any("panic", r))
		}
	}()
	pass()
}

// ingestPass 清空摄入通道中积压的行情。
func (e *Engine) ingestPass() {
	for {
		select {
		case t := <-e.feed:
			e.applyTick(t)
		default:
			return
		}
	}
}

func (e *Engine) applyTick(t market.Tick) {
	start := time.Now()
	if !e.store.Record(t) {
		// 乱序 tick：丢弃，不传播
		e.dropped.Add(1)
		metrics.RecordDroppedTick()
		return
	}
	elapsed := time.Since(start)
	e.tickCount.Add(1)
	e.latencySum.Add(elapsed.Nanoseconds())
	metrics.RecordTick(elapsed)
}

// signalPass 对每个窗口已满的 instrument 计算波动率与组合信号，
// 信号可操作时定量下单（正买负卖），并把模拟成交的已实现盈亏计入当日口径。
func (e *Engine) signalPass() {
	for _, sym := range e.store.Symbols() {
		book, window, ok := e.store.Snapshot(sym)
		if !ok || len(window) < e.cfg.Lookback {
			continue
		}
		mid := book.Mid()
		if mid <= 0 {
			continue
		}
		mids := make([]float64, len(window))
		for i, t := range window {
			mids[i] = t.Mid()
		}

		vol := e.signals.Volatility(mids)
		e.risk.UpdateVolatility(sym, vol)
		combined := e.signals.Combined(mids, mid)
		metrics.UpdateSignal(sym, combined, vol)

		if !e.signals.Actionable(combined) {
			continue
		}

		pos, hasPos := e.positions.Get(sym)
		qty := e.risk.OrderQuantity(combined, vol, mid, pos, hasPos)
		if qty <= 0 {
			continue
		}

		side, price := order.SideBuy, book.Ask
		if combined < 0 {
			side, price = order.SideSell, book.Bid
		}
		o := order.Order{
			ID:       order.NextID(),
			Symbol:   sym,
			Side:     side,
			Price:    price,
			Quantity: qty,
			Created:  time.Now(),
		}
		profit := e.orders.Submit(o)
		e.orderCount.Add(1)
		e.risk.RecordPnL(profit)

		e.log.LogOrder("signal_submit", o.ID, map[string]interface{}{
			"symbol":   sym,
			"side":     string(side),
			"price":    price,
			"quantity": qty,
			"signal":   combined,
			"vol":      vol,
			"profit":   profit,
		})
	}
}

// maintainPass 撤销过期订单并把被市场穿越的订单改价到最新盘口。
func (e *Engine) maintainPass() {
	e.orders.Maintain(e.store.Books())
}

// riskPass 评估熔断条件：当日亏损超限触发全量紧急停机；
// 单 instrument 仓位市值超限时提交削减 20% 的减仓单。
// 聚合敞口只作观测输出。
func (e *Engine) riskPass() {
	positions := e.positions.Snapshot()
	books := e.store.Books()

	exposure := e.risk.Exposure(positions, books)
	metrics.UpdateRisk(e.risk.DailyPnL(), exposure)

	if e.risk.DailyLossBreached() {
		e.log.LogRisk("daily_loss_breach", map[string]interface{}{
			"daily_pnl": e.risk.DailyPnL(),
			"limit":     e.cfg.Limits.MaxDailyLoss,
		})
		e.EmergencyShutdown("daily loss limit breached")
		return
	}

	for sym, pos := range positions {
		if pos.Size == 0 {
			continue
		}
		book, ok := books[sym]
		if !ok {
			continue
		}
		mid := book.Mid()
		if !e.risk.PositionOversized(pos, mid) {
			continue
		}
		ro := e.risk.ReduceOrder(sym, pos.Size, mid)
		e.orders.Submit(ro)
		e.orderCount.Add(1)
		e.log.LogRisk("position_unwind", map[string]interface{}{
			"symbol":         sym,
			"position_size":  pos.Size,
			"position_value": math.Abs(pos.Size * mid),
			"reduce_qty":     ro.Quantity,
			"reduce_price":   ro.Price,
		})
	}
}

// Performance 聚合运行指标。
type Performance struct {
	TickCount          int64   `json:"tickCount"`
	OrderCount         int64   `json:"orderCount"`
	DroppedTicks       int64   `json:"droppedTicks"`
	AvgLatencyMs       float64 `json:"avgLatencyMs"`
	DailyPnL           float64 `json:"dailyPnL"`
	TotalPositionValue float64 `json:"totalPositionValue"`
}

// PerformanceMetrics 返回聚合运行指标快照。
func (e *Engine) PerformanceMetrics() Performance {
	ticks := e.tickCount.Load()
	avgMs := 0.0
	if ticks > 0 {
		avgMs = float64(e.latencySum.Load()) / float64(ticks) / 1e6
	}
	return Performance{
		TickCount:          ticks,
		OrderCount:         e.orderCount.Load(),
		DroppedTicks:       e.dropped.Load(),
		AvgLatencyMs:       avgMs,
		DailyPnL:           e.risk.DailyPnL(),
		TotalPositionValue: e.risk.Exposure(e.positions.Snapshot(), e.store.Books()),
	}
}

// PositionSnapshot 仓位快照，附带当前市场估值（有盘口时）。
type PositionSnapshot struct {
	inventory.Position
	MarkPrice     float64 `json:"markPrice"`
	CurrentValue  float64 `json:"currentValue"`
	UnrealizedPnL float64 `json:"unrealizedPnL"`
}

// Positions 返回全部仓位快照。
func (e *Engine) Positions() map[string]PositionSnapshot {
	books := e.store.Books()
	out := make(map[string]PositionSnapshot)
	for sym, pos := range e.positions.Snapshot() {
		snap := PositionSnapshot{Position: pos}
		if book, ok := books[sym]; ok {
			if mid := book.Mid(); mid > 0 {
				snap.MarkPrice = mid
				snap.CurrentValue = pos.Value(mid)
				snap.UnrealizedPnL = pos.UnrealizedPnL(mid)
			}
		}
		out[sym] = snap
	}
	return out
}

// Books 返回全部盘口快照。
func (e *Engine) Books() map[string]market.BookSnapshot {
	return e.store.Books()
}

// ActiveOrders 返回在途订单快照。
func (e *Engine) ActiveOrders() map[int64]order.Order {
	return e.orders.Active()
}
