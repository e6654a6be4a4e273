package config

import (
	"context"
	"os"
	"testing"
	"time"
)

const validYAML = `
env: dev
engine:
  lookback: 50
`

func TestWatcherTriggersOnChange(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan AppConfig, 1)
	w := Watcher{Path: path, Cooldown: time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AppConfig) {
			select {
			case ch <- cfg:
			default:
			}
		})
	}()

	// 给 watcher 一点时间挂上监听
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("env: prod\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-ch:
		if cfg.Env != "prod" {
			t.Fatalf("callback got stale config: %+v", cfg.Env)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected update callback")
	}
}

func TestWatcherIgnoresBrokenRewrite(t *testing.T) {
	path := writeTempConfig(t, validYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan AppConfig, 1)
	w := Watcher{Path: path, Cooldown: time.Millisecond}
	go func() {
		_ = w.Start(ctx, func(cfg AppConfig) {
			select {
			case ch <- cfg:
			default:
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	// 非法内容：watcher 静默跳过，旧配置继续生效
	if err := os.WriteFile(path, []byte("env: [broken"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case cfg := <-ch:
		t.Fatalf("unexpected callback for broken config: %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherMissingFile(t *testing.T) {
	w := Watcher{Path: "/nonexistent/cfg.yaml"}
	if err := w.Start(context.Background(), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
