package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hft-engine-go/infrastructure/logger"
	"hft-engine-go/risk"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string           `yaml:"env"`
	Engine      EngineConfig     `yaml:"engine"`
	Logging     logger.Config    `yaml:"logging"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	API         APIConfig        `yaml:"api"`
	Feed        FeedConfig       `yaml:"feed"`
	Instruments []InstrumentSeed `yaml:"instruments"`
}

// EngineConfig 引擎参数：限额、信号窗口与各循环节奏。
type EngineConfig struct {
	Limits          risk.Limits `yaml:"limits"`
	Lookback        int         `yaml:"lookback"`        // 行情窗口长度（笔数）
	SignalThreshold float64     `yaml:"signalThreshold"` // 信号可操作阈值
	IngestMs        int         `yaml:"ingestMs"`        // 摄入循环周期（毫秒）
	SignalMs        int         `yaml:"signalMs"`        // 信号循环周期（毫秒）
	MaintainMs      int         `yaml:"maintainMs"`      // 订单维护循环周期（毫秒）
	RiskMs          int         `yaml:"riskMs"`          // 风控循环周期（毫秒）
	FeedBuffer      int         `yaml:"feedBuffer"`      // 摄入通道容量
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // Prometheus 监听地址，留空则关闭
}

type APIConfig struct {
	Addr string `yaml:"addr"` // 控制接口监听地址，留空则关闭
}

// FeedConfig 行情来源：sim（随机游走仿真）或 ws（websocket 推送）。
type FeedConfig struct {
	Mode       string  `yaml:"mode"`
	URL        string  `yaml:"url"`        // ws 模式的推送端点
	IntervalMs int     `yaml:"intervalMs"` // sim 模式的出 tick 周期
	Step       float64 `yaml:"step"`       // sim 模式单步最大相对波动
	Spread     float64 `yaml:"spread"`     // sim 模式相对价差
}

// InstrumentSeed 启动时注册的 instrument 与种子行情。
type InstrumentSeed struct {
	Symbol string  `yaml:"symbol"`
	Bid    float64 `yaml:"bid"`
	Ask    float64 `yaml:"ask"`
}

// Default returns the documented default configuration.
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Engine: EngineConfig{
			Limits:          risk.DefaultLimits(),
			Lookback:        100,
			SignalThreshold: 0.0002,
			IngestMs:        1,
			SignalMs:        5,
			MaintainMs:      10,
			RiskMs:          100,
			FeedBuffer:      4096,
		},
		Logging: logger.DefaultConfig(),
		Metrics: MetricsConfig{Addr: ":9100"},
		API:     APIConfig{Addr: ":8080"},
		Feed:    FeedConfig{Mode: "sim", IntervalMs: 10, Step: 0.0005, Spread: 0.0002},
	}
}

// Load reads YAML config from path, fills defaults and validates.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads the file and then applies environment overrides
// for deployment-specific fields.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("HFT_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("HFT_API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("HFT_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("HFT_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate ensures required fields are present and sane.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if err := cfg.Engine.Limits.Validate(); err != nil {
		return fmt.Errorf("engine.limits: %w", err)
	}
	if cfg.Engine.Lookback <= 0 {
		return errors.New("engine.lookback must be > 0")
	}
	if cfg.Engine.SignalThreshold <= 0 {
		return errors.New("engine.signalThreshold must be > 0")
	}
	if cfg.Engine.IngestMs < 0 || cfg.Engine.SignalMs < 0 ||
		cfg.Engine.MaintainMs < 0 || cfg.Engine.RiskMs < 0 {
		return errors.New("engine loop intervals must be >= 0")
	}
	switch cfg.Feed.Mode {
	case "", "sim":
	case "ws":
		if cfg.Feed.URL == "" {
			return errors.New("feed.url is required in ws mode")
		}
	default:
		return fmt.Errorf("unknown feed.mode %q", cfg.Feed.Mode)
	}
	for i, seed := range cfg.Instruments {
		if seed.Symbol == "" {
			return fmt.Errorf("instruments[%d].symbol is required", i)
		}
		if seed.Bid <= 0 || seed.Ask <= 0 {
			return fmt.Errorf("instrument %s seed prices must be > 0", seed.Symbol)
		}
	}
	return nil
}
