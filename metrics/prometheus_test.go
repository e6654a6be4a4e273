package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSubmitAndCancel(t *testing.T) {
	OrdersSubmitted.Reset()
	ActiveOrders.Set(0)

	RecordSubmit("BUY", 3)
	RecordSubmit("BUY", 4)
	RecordSubmit("SELL", 5)

	if got := testutil.ToFloat64(OrdersSubmitted.WithLabelValues("BUY")); got != 2 {
		t.Errorf("OrdersSubmitted[BUY] = %f, want 2", got)
	}
	if got := testutil.ToFloat64(OrdersSubmitted.WithLabelValues("SELL")); got != 1 {
		t.Errorf("OrdersSubmitted[SELL] = %f, want 1", got)
	}
	if got := testutil.ToFloat64(ActiveOrders); got != 5 {
		t.Errorf("ActiveOrders = %f, want 5", got)
	}

	RecordCancel(3, 2)
	if got := testutil.ToFloat64(ActiveOrders); got != 2 {
		t.Errorf("ActiveOrders after cancel = %f, want 2", got)
	}
}

func TestRecordTick(t *testing.T) {
	before := testutil.ToFloat64(TicksProcessed)
	RecordTick(50 * time.Microsecond)
	if got := testutil.ToFloat64(TicksProcessed); got != before+1 {
		t.Errorf("TicksProcessed = %f, want %f", got, before+1)
	}

	beforeDropped := testutil.ToFloat64(TicksDropped)
	RecordDroppedTick()
	if got := testutil.ToFloat64(TicksDropped); got != beforeDropped+1 {
		t.Errorf("TicksDropped = %f, want %f", got, beforeDropped+1)
	}
}

func TestUpdateSignal(t *testing.T) {
	SignalValue.Reset()
	VolatilityValue.Reset()

	UpdateSignal("BTC-USD", 0.0005, 0.02)

	if got := testutil.ToFloat64(SignalValue.WithLabelValues("BTC-USD")); got != 0.0005 {
		t.Errorf("SignalValue = %f, want 0.0005", got)
	}
	if got := testutil.ToFloat64(VolatilityValue.WithLabelValues("BTC-USD")); got != 0.02 {
		t.Errorf("VolatilityValue = %f, want 0.02", got)
	}
}

func TestUpdateRisk(t *testing.T) {
	UpdateRisk(-123.45, 67890)

	if got := testutil.ToFloat64(DailyPnL); got != -123.45 {
		t.Errorf("DailyPnL = %f, want -123.45", got)
	}
	if got := testutil.ToFloat64(TotalPositionValue); got != 67890 {
		t.Errorf("TotalPositionValue = %f, want 67890", got)
	}
}
