package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"hft-engine-go/infrastructure/logger"
	"hft-engine-go/internal/engine"
	"hft-engine-go/risk"
	"hft-engine-go/sim"
)

// 独立仿真入口：随机游走行情驱动引擎跑一段时间，输出运行指标。
func main() {
	duration := flag.Duration("duration", 10*time.Second, "仿真时长")
	interval := flag.Duration("interval", 5*time.Millisecond, "出 tick 周期")
	step := flag.Float64("step", 0.0005, "单步最大相对波动")
	flag.Parse()

	logg, err := logger.New(logger.Config{
		Level:   "info",
		Outputs: []string{"stdout"},
		Format:  "console",
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logg.Close()

	eng, err := engine.New(engine.Config{
		Limits: risk.DefaultLimits(),
	}, engine.Components{Logger: logg})
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}

	symbols := map[string]float64{
		"BTC-USD": 50000.5,
		"ETH-USD": 3000.5,
		"SOL-USD": 100.05,
	}
	for sym, mid := range symbols {
		if err := eng.AddInstrument(sym, mid*0.9999, mid*1.0001); err != nil {
			log.Fatalf("注册 instrument 失败: %v", err)
		}
	}

	eng.Start()

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	runner := &sim.Runner{
		Sink:     eng,
		Symbols:  symbols,
		Interval: *interval,
		Step:     *step,
	}
	_ = runner.Run(ctx)

	eng.Stop()

	perf := eng.PerformanceMetrics()
	out, _ := json.MarshalIndent(perf, "", "  ")
	fmt.Println(string(out))
	for sym, pos := range eng.Positions() {
		fmt.Printf("%s: size=%.4f avg=%.2f realized=%.2f unrealized=%.2f\n",
			sym, pos.Size, pos.AvgPrice, pos.TotalProfit, pos.UnrealizedPnL)
	}
}
