package gateway

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hft-engine-go/infrastructure/logger"
	"hft-engine-go/market"
)

// QuoteSink 行情落点：非阻塞入队，队满返回 false。
type QuoteSink interface {
	EnqueueQuote(t market.Tick) bool
}

// WSFeed 连接行情推送端点，把解析出的 tick 喂给引擎摄入通道。
// 纯传输适配：不含任何交易所协议语义。
type WSFeed struct {
	URL           string
	Dialer        *websocket.Dialer
	Log           *logger.Logger
	ReconnectWait time.Duration
}

func NewWSFeed(url string, log *logger.Logger) *WSFeed {
	if log == nil {
		log = logger.NewNop()
	}
	return &WSFeed{
		URL:           url,
		Dialer:        websocket.DefaultDialer,
		Log:           log,
		ReconnectWait: 2 * time.Second,
	}
}

// Run 阻塞读取推送直到 ctx 结束；连接断开后按固定间隔重连。
func (f *WSFeed) Run(ctx context.Context, sink QuoteSink) error {
	for {
		if err := f.readLoop(ctx, sink); err != nil {
			f.Log.Warn("feed connection lost", zap.String("url", f.URL), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.ReconnectWait):
		}
	}
}

func (f *WSFeed) readLoop(ctx context.Context, sink QuoteSink) error {
	conn, _, err := f.Dialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	f.Log.Info("feed connected", zap.String("url", f.URL))

	// ctx 结束时强制断开阻塞中的 ReadMessage
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		tick, err := ParseTick(raw)
		if err != nil {
			// 坏帧：记录后继续
			f.Log.Debug("dropping bad tick frame", zap.Error(err))
			continue
		}
		if !sink.EnqueueQuote(tick) {
			f.Log.Debug("ingest queue full, tick dropped", zap.String("symbol", tick.Symbol))
		}
	}
}
