package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClientCommandParse(t *testing.T) {
	raw := `{"type":"subscribe","secret":"s","api_key":"k","token":"t","instruments":[123,408065],"mode":"quote"}`

	var cmd MClientCommand
	if err := json.Unmarshal([]byte(raw), &cmd); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if cmd.Type != CommandSubscribe {
		t.Errorf("Type = %q, want %q", cmd.Type, CommandSubscribe)
	}
	if cmd.Secret != "s" || cmd.APIKey != "k" || cmd.Token != "t" {
		t.Errorf("credentials not parsed: %+v", cmd)
	}
	if len(cmd.Instruments) != 2 || cmd.Instruments[0] != 123 || cmd.Instruments[1] != 408065 {
		t.Errorf("Instruments = %v, want [123 408065]", cmd.Instruments)
	}
	if cmd.Mode != ModeQuote {
		t.Errorf("Mode = %q, want %q", cmd.Mode, ModeQuote)
	}
}

func TestTicksEventMarshalOmitsAbsentOHLC(t *testing.T) {
	event := NewTicksEvent([]MTick{{
		InstrumentToken: 123,
		LastPrice:       99.5,
		Volume:          10,
		Timestamp:       1700000000000,
	}})

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)

	if strings.Contains(body, "ohlc") {
		t.Errorf("ohlc present for a tick without one: %s", body)
	}
	// Optional numeric fields normalize to explicit zeros, not omission.
	for _, key := range []string{`"oi":0`, `"average_price":0`, `"last_quantity":0`, `"timestamp":1700000000000`} {
		if !strings.Contains(body, key) {
			t.Errorf("marshaled tick missing %s: %s", key, body)
		}
	}
}

func TestTicksEventMarshalIncludesOHLC(t *testing.T) {
	event := NewTicksEvent([]MTick{{
		InstrumentToken: 123,
		LastPrice:       99.5,
		OHLC:            &MOHLC{Open: 98, High: 100, Low: 97.5, Close: 99},
		Timestamp:       1700000000000,
	}})

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded struct {
		Data []struct {
			OHLC *MOHLC `json:"ohlc"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if len(decoded.Data) != 1 || decoded.Data[0].OHLC == nil {
		t.Fatalf("ohlc lost: %s", data)
	}
	if decoded.Data[0].OHLC.High != 100 {
		t.Errorf("OHLC.High = %v, want 100", decoded.Data[0].OHLC.High)
	}
}

func TestEventTypeTags(t *testing.T) {
	tests := []struct {
		event interface{}
		want  string
	}{
		{NewPongEvent(), EventPong},
		{NewConnectedEvent([]uint32{1}), EventConnected},
		{NewTicksEvent(nil), EventTicks},
		{NewDisconnectedEvent(""), EventDisconnected},
		{NewErrorEvent("boom"), EventError},
		{NewReconnectingEvent(0, 0), EventReconnecting},
		{NewNoReconnectEvent(), EventNoReconnect},
		{NewOrderUpdateEvent(nil), EventOrderUpdate},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.event)
		if err != nil {
			t.Fatalf("marshal %T: %v", tt.event, err)
		}
		var tag struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &tag); err != nil {
			t.Fatalf("unmarshal %T: %v", tt.event, err)
		}
		if tag.Type != tt.want {
			t.Errorf("%T type tag = %q, want %q", tt.event, tag.Type, tt.want)
		}
	}
}

func TestReconnectingEventKeepsZeroFields(t *testing.T) {
	data, err := json.Marshal(NewReconnectingEvent(0, 0))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"retries":0`) || !strings.Contains(body, `"interval":0`) {
		t.Errorf("zero retries/interval dropped: %s", body)
	}
}
