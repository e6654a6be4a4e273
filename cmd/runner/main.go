package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"hft-engine-go/api"
	"hft-engine-go/config"
	"hft-engine-go/gateway"
	"hft-engine-go/infrastructure/alert"
	"hft-engine-go/infrastructure/logger"
	"hft-engine-go/internal/engine"
	"hft-engine-go/market"
	"hft-engine-go/metrics"
	"hft-engine-go/order"
	"hft-engine-go/sim"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径，留空使用默认配置")
	apiAddr := flag.String("apiAddr", "", "覆盖控制接口监听地址")
	metricsAddr := flag.String("metricsAddr", "", "覆盖 Prometheus 监听地址")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		cfg = loaded
	}
	if *apiAddr != "" {
		cfg.API.Addr = *apiAddr
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logg, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logg.Close()

	if cfg.Metrics.Addr != "" {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
	}

	alertMgr := alert.NewManager([]alert.Channel{
		alert.NewLogChannel("log", logg),
	}, 30*time.Second)

	holder := &engineHolder{}
	eng, err := buildEngine(cfg, logg, alertMgr)
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}
	holder.swap(eng)
	eng.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 行情来源
	switch cfg.Feed.Mode {
	case "ws":
		feed := gateway.NewWSFeed(cfg.Feed.URL, logg)
		go func() { _ = feed.Run(ctx, holder) }()
	default:
		symbols := make(map[string]float64, len(cfg.Instruments))
		for _, seed := range cfg.Instruments {
			symbols[seed.Symbol] = (seed.Bid + seed.Ask) / 2
		}
		if len(symbols) > 0 {
			runner := &sim.Runner{
				Sink:     holder,
				Symbols:  symbols,
				Interval: time.Duration(cfg.Feed.IntervalMs) * time.Millisecond,
				Step:     cfg.Feed.Step,
				Spread:   cfg.Feed.Spread,
			}
			go func() { _ = runner.Run(ctx) }()
		}
	}

	var apiSrv *api.Server
	if cfg.API.Addr != "" {
		apiSrv = api.NewServer(cfg.API.Addr, holder, logg)
		apiSrv.Start()
	}

	// 配置变更：换入按新配置构建的引擎（限额在引擎生命周期内不变）
	if *cfgPath != "" {
		watcher := config.Watcher{Path: *cfgPath, Cooldown: 2 * time.Second}
		go func() {
			_ = watcher.Start(ctx, func(newCfg config.AppConfig) {
				logg.Info("config changed, rebuilding engine")
				next, err := buildEngine(newCfg, logg, alertMgr)
				if err != nil {
					logg.Error("rebuild engine failed", zap.Error(err))
					return
				}
				old := holder.swap(next)
				if old != nil {
					old.Stop()
				}
				next.Start()
			})
		}()
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	logg.Info("runner started",
		zap.String("env", cfg.Env),
		zap.String("feed", cfg.Feed.Mode),
		zap.Int("instruments", len(cfg.Instruments)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	logg.Info("shutting down")
	cancel()
	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	holder.current().Stop()
}

func buildEngine(cfg config.AppConfig, logg *logger.Logger, alertMgr *alert.Manager) (*engine.Engine, error) {
	eng, err := engine.New(engine.Config{
		Limits:          cfg.Engine.Limits,
		Lookback:        cfg.Engine.Lookback,
		SignalThreshold: cfg.Engine.SignalThreshold,
		IngestInterval:  time.Duration(cfg.Engine.IngestMs) * time.Millisecond,
		SignalInterval:  time.Duration(cfg.Engine.SignalMs) * time.Millisecond,
		MaintainPeriod:  time.Duration(cfg.Engine.MaintainMs) * time.Millisecond,
		RiskInterval:    time.Duration(cfg.Engine.RiskMs) * time.Millisecond,
		FeedBuffer:      cfg.Engine.FeedBuffer,
	}, engine.Components{
		Logger: logg,
		OnEmergency: func(reason string) {
			_ = alertMgr.SendAlert(alert.Alert{
				Level:   "CRITICAL",
				Message: "engine emergency shutdown",
				Fields:  map[string]interface{}{"reason": reason},
			})
		},
	})
	if err != nil {
		return nil, err
	}
	for _, seed := range cfg.Instruments {
		if err := eng.AddInstrument(seed.Symbol, seed.Bid, seed.Ask); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// engineHolder 持有当前引擎实例，配置热更新时整体换入新实例。
// 同时代理行情落点与控制接口，调用始终落到最新实例。
type engineHolder struct {
	mu  sync.RWMutex
	eng *engine.Engine
}

func (h *engineHolder) swap(next *engine.Engine) *engine.Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.eng
	h.eng = next
	return old
}

func (h *engineHolder) current() *engine.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.eng
}

func (h *engineHolder) EnqueueQuote(t market.Tick) bool { return h.current().EnqueueQuote(t) }
func (h *engineHolder) Start()                          { h.current().Start() }
func (h *engineHolder) Stop()                           { h.current().Stop() }
func (h *engineHolder) EmergencyShutdown(reason string) { h.current().EmergencyShutdown(reason) }
func (h *engineHolder) IsRunning() bool                 { return h.current().IsRunning() }

func (h *engineHolder) RecordQuote(symbol string, bid, ask, bidSize, askSize float64) error {
	return h.current().RecordQuote(symbol, bid, ask, bidSize, askSize)
}

func (h *engineHolder) AddInstrument(symbol string, bid, ask float64) error {
	return h.current().AddInstrument(symbol, bid, ask)
}

func (h *engineHolder) Positions() map[string]engine.PositionSnapshot {
	return h.current().Positions()
}

func (h *engineHolder) Books() map[string]market.BookSnapshot {
	return h.current().Books()
}

func (h *engineHolder) ActiveOrders() map[int64]order.Order {
	return h.current().ActiveOrders()
}

func (h *engineHolder) PerformanceMetrics() engine.Performance {
	return h.current().PerformanceMetrics()
}
