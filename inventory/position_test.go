package inventory

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestApplySameDirectionVWAP(t *testing.T) {
	b := NewBook()
	if profit := b.Apply("BTC-USD", 1, 100); profit != 0 {
		t.Fatalf("opening fill should realize 0, got %v", profit)
	}
	if profit := b.Apply("BTC-USD", 1, 110); profit != 0 {
		t.Fatalf("adding fill should realize 0, got %v", profit)
	}
	pos, ok := b.Get("BTC-USD")
	if !ok {
		t.Fatalf("position missing")
	}
	if pos.Size != 2 || !almostEqual(pos.AvgPrice, 105) {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestApplyPartialReduceRealizesPnL(t *testing.T) {
	b := NewBook()
	b.Apply("BTC-USD", 2, 100)
	profit := b.Apply("BTC-USD", -1, 110)
	if !almostEqual(profit, 10) {
		t.Fatalf("expected +10 realized, got %v", profit)
	}
	pos, _ := b.Get("BTC-USD")
	// 剩余仓位保持原均价
	if pos.Size != 1 || !almostEqual(pos.AvgPrice, 100) {
		t.Fatalf("unexpected position after reduce: %+v", pos)
	}
	if !almostEqual(pos.TotalProfit, 10) {
		t.Fatalf("total profit = %v", pos.TotalProfit)
	}
}

func TestApplyExactOffsetFlattens(t *testing.T) {
	b := NewBook()
	b.Apply("ETH-USD", -3, 3000)
	profit := b.Apply("ETH-USD", 3, 2900)
	// 空头回补获利 3 * 100
	if !almostEqual(profit, 300) {
		t.Fatalf("expected +300 realized, got %v", profit)
	}
	pos, _ := b.Get("ETH-USD")
	if pos.Size != 0 || pos.AvgPrice != 0 {
		t.Fatalf("flat position should zero size and avg price: %+v", pos)
	}
}

func TestApplyFlipOpensAtFillPrice(t *testing.T) {
	b := NewBook()
	b.Apply("SOL-USD", 1, 100)
	profit := b.Apply("SOL-USD", -3, 90)
	// 平掉 1 手亏 10，剩余 -2 手按 90 开仓
	if !almostEqual(profit, -10) {
		t.Fatalf("expected -10 realized, got %v", profit)
	}
	pos, _ := b.Get("SOL-USD")
	if pos.Size != -2 || !almostEqual(pos.AvgPrice, 90) {
		t.Fatalf("unexpected flipped position: %+v", pos)
	}
}

func TestValueAndUnrealized(t *testing.T) {
	p := Position{Symbol: "BTC-USD", Size: -2, AvgPrice: 100}
	if !almostEqual(p.Value(110), -220) {
		t.Fatalf("value = %v", p.Value(110))
	}
	// 空头在价格上行时浮亏
	if !almostEqual(p.UnrealizedPnL(110), -20) {
		t.Fatalf("unrealized = %v", p.UnrealizedPnL(110))
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	b := NewBook()
	b.Apply("BTC-USD", 1, 100)
	snap := b.Snapshot()
	s := snap["BTC-USD"]
	s.Size = 999
	snap["BTC-USD"] = s

	pos, _ := b.Get("BTC-USD")
	if pos.Size != 1 {
		t.Fatalf("snapshot mutation leaked into book")
	}
}
