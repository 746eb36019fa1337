package models

// MOHLC represents the open/high/low/close snapshot carried by full-mode ticks.
type MOHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// MTick represents one normalized market-data update. Optional upstream fields
// default to zero; Timestamp is always set (epoch milliseconds).
type MTick struct {
	InstrumentToken uint32  `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
	Volume          uint32  `json:"volume"`
	OI              uint32  `json:"oi"`
	AveragePrice    float64 `json:"average_price"`
	LastQuantity    uint32  `json:"last_quantity"`
	OHLC            *MOHLC  `json:"ohlc,omitempty"`
	Timestamp       int64   `json:"timestamp"`
}
