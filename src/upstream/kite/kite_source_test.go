package kite

import (
	"testing"
	"time"

	kitemodels "github.com/zerodha/gokiteconnect/v4/models"
	kiteticker "github.com/zerodha/gokiteconnect/v4/ticker"
)

func TestModeFromString(t *testing.T) {
	tests := []struct {
		in   string
		want kiteticker.Mode
	}{
		{"ltp", kiteticker.ModeLTP},
		{"quote", kiteticker.ModeQuote},
		{"full", kiteticker.ModeFull},
		{"", kiteticker.ModeFull},
		{"garbage", kiteticker.ModeFull},
	}

	for _, tt := range tests {
		if got := ModeFromString(tt.in); got != tt.want {
			t.Errorf("ModeFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConvertTick(t *testing.T) {
	ts := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	in := kitemodels.Tick{
		InstrumentToken:    408065,
		LastPrice:          1520.25,
		VolumeTraded:       90210,
		OI:                 4200,
		AverageTradePrice:  1518.4,
		LastTradedQuantity: 75,
		OHLC:               kitemodels.OHLC{Open: 1500, High: 1525, Low: 1498.5, Close: 1510},
		Timestamp:          kitemodels.Time{Time: ts},
	}

	out := ConvertTick(in)

	if out.InstrumentToken != 408065 {
		t.Errorf("InstrumentToken = %d, want 408065", out.InstrumentToken)
	}
	if out.LastPrice != 1520.25 {
		t.Errorf("LastPrice = %v, want 1520.25", out.LastPrice)
	}
	if out.Volume != 90210 {
		t.Errorf("Volume = %d, want 90210", out.Volume)
	}
	if out.OI != 4200 {
		t.Errorf("OI = %d, want 4200", out.OI)
	}
	if out.AveragePrice != 1518.4 {
		t.Errorf("AveragePrice = %v, want 1518.4", out.AveragePrice)
	}
	if out.LastQuantity != 75 {
		t.Errorf("LastQuantity = %d, want 75", out.LastQuantity)
	}
	if out.OHLC == nil {
		t.Fatal("OHLC = nil, want populated block")
	}
	if out.OHLC.Low != 1498.5 {
		t.Errorf("OHLC.Low = %v, want 1498.5", out.OHLC.Low)
	}
	if out.Timestamp != ts.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", out.Timestamp, ts.UnixMilli())
	}
}

func TestConvertTickNormalizesAbsentFields(t *testing.T) {
	before := time.Now().UnixMilli()
	out := ConvertTick(kitemodels.Tick{
		InstrumentToken: 123,
		LastPrice:       99.5,
		VolumeTraded:    10,
	})
	after := time.Now().UnixMilli()

	if out.OI != 0 || out.AveragePrice != 0 || out.LastQuantity != 0 {
		t.Errorf("optional fields not zeroed: %+v", out)
	}
	if out.OHLC != nil {
		t.Errorf("OHLC = %+v, want nil for an all-zero block", out.OHLC)
	}
	// A tick with no provider timestamp still carries one.
	if out.Timestamp < before || out.Timestamp > after {
		t.Errorf("Timestamp = %d, want receive-time fallback in [%d, %d]", out.Timestamp, before, after)
	}
}
