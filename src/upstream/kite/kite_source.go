package kite

import (
	"fmt"
	"sync/atomic"
	"time"

	"tick-relay/src/helpers"
	"tick-relay/src/interfaces"
	"tick-relay/src/logger"
	"tick-relay/src/models"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	kitemodels "github.com/zerodha/gokiteconnect/v4/models"
	kiteticker "github.com/zerodha/gokiteconnect/v4/ticker"
)

// -----------------------------------------------------------------------------
// KiteTickerSource
// -----------------------------------------------------------------------------

// KiteTickerSource wraps one Kite Connect streaming connection and translates
// its callbacks into IStreamSink events. Reconnection is owned entirely by the
// underlying ticker client; this wrapper only observes and forwards.
type KiteTickerSource struct {
	Config      *models.MConfig
	Logger      *logger.Logger
	ticker      *kiteticker.Ticker
	sink        interfaces.IStreamSink
	instruments []uint32
	mode        kiteticker.Mode

	served  atomic.Bool
	stopped atomic.Bool
}

// -----------------------------------------------------------------------------

// NewKiteTickerSource builds a source for one credential pair. The connection
// is not opened until Connect is called.
func NewKiteTickerSource(cfg *models.MConfig, apiKey, accessToken string, instruments []uint32, mode string, sink interfaces.IStreamSink) interfaces.IStreamSource {
	s := &KiteTickerSource{
		Config:      cfg,
		Logger:      logger.NewLogger(cfg.LogLevel, "KiteTickerSource"),
		ticker:      kiteticker.New(apiKey, accessToken),
		sink:        sink,
		instruments: instruments,
		mode:        ModeFromString(mode),
	}

	s.ticker.SetConnectTimeout(cfg.Upstream.ConnectTimeout.Duration())
	s.ticker.SetAutoReconnect(cfg.Upstream.AutoReconnect)
	s.ticker.SetReconnectMaxRetries(cfg.Upstream.ReconnectMaxRetries)
	if err := s.ticker.SetReconnectMaxDelay(cfg.Upstream.ReconnectMaxDelay.Duration()); err != nil {
		s.Logger.Warning("Rejected reconnect max delay %v, keeping client default: %v", cfg.Upstream.ReconnectMaxDelay.Duration(), err)
	}

	s.ticker.OnConnect(s.onConnect)
	s.ticker.OnTick(s.onTick)
	s.ticker.OnClose(s.onClose)
	s.ticker.OnError(s.onError)
	s.ticker.OnReconnect(s.onReconnect)
	s.ticker.OnNoReconnect(s.onNoReconnect)
	s.ticker.OnOrderUpdate(s.onOrderUpdate)

	return s
}

// -----------------------------------------------------------------------------
// IStreamSource implementation
// -----------------------------------------------------------------------------

// Connect starts the ticker's serve loop. Events reach the sink asynchronously.
func (s *KiteTickerSource) Connect() error {
	if s.stopped.Load() {
		return helpers.NewUpstreamError("source already disconnected", nil)
	}
	if !s.served.CompareAndSwap(false, true) {
		return helpers.NewUpstreamError("source already connected", nil)
	}

	s.Logger.Info("Opening upstream stream for %d instruments (mode=%s)", len(s.instruments), s.mode)
	go s.ticker.Serve()
	return nil
}

// -----------------------------------------------------------------------------

// Unsubscribe drops instrument ids from the live subscription.
func (s *KiteTickerSource) Unsubscribe(instruments []uint32) error {
	if s.stopped.Load() || !s.served.Load() {
		return helpers.NewUpstreamError("source not connected", nil)
	}
	if err := s.ticker.Unsubscribe(instruments); err != nil {
		return helpers.NewUpstreamError(fmt.Sprintf("unsubscribe %d instruments", len(instruments)), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect stops the ticker. Idempotent: safe before Connect, after a failed
// connect, and after a previous Disconnect.
func (s *KiteTickerSource) Disconnect() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if !s.served.Load() {
		// Never connected; nothing to tear down.
		return nil
	}
	s.Logger.Info("Closing upstream stream")
	s.ticker.Stop()
	return nil
}

// -----------------------------------------------------------------------------
// Ticker callbacks → sink events
// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onConnect() {
	if s.stopped.Load() {
		return
	}
	if err := s.ticker.Subscribe(s.instruments); err != nil {
		s.Logger.Error("Subscribe failed: %v", err)
		s.sink.OnStreamError(err.Error())
		return
	}
	if err := s.ticker.SetMode(s.mode, s.instruments); err != nil {
		s.Logger.Error("SetMode failed: %v", err)
		s.sink.OnStreamError(err.Error())
		return
	}
	s.sink.OnConnected(s.instruments)
}

// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onTick(tick kitemodels.Tick) {
	if s.stopped.Load() {
		return
	}
	// The Go client delivers ticks one at a time; each arrives as a batch of one.
	s.sink.OnTicks([]models.MTick{ConvertTick(tick)})
}

// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onClose(code int, reason string) {
	s.Logger.Info("Upstream closed (code=%d): %s", code, reason)
	if s.stopped.Load() {
		return
	}
	s.sink.OnDisconnected(reason)
}

// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onError(err error) {
	s.Logger.Warning("Upstream error: %v", err)
	if s.stopped.Load() {
		return
	}
	s.sink.OnStreamError(err.Error())
}

// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onReconnect(attempt int, delay time.Duration) {
	s.Logger.Info("Upstream reconnecting (attempt=%d, delay=%v)", attempt, delay)
	if s.stopped.Load() {
		return
	}
	s.sink.OnReconnecting(attempt, delay)
}

// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onNoReconnect(attempt int) {
	s.Logger.Warning("Upstream gave up reconnecting after %d attempts", attempt)
	if s.stopped.Load() {
		return
	}
	s.sink.OnNoReconnect()
}

// -----------------------------------------------------------------------------

func (s *KiteTickerSource) onOrderUpdate(order kiteconnect.Order) {
	if s.stopped.Load() {
		return
	}
	s.sink.OnOrderUpdate(order)
}

// -----------------------------------------------------------------------------
// Conversion helpers
// -----------------------------------------------------------------------------

// ModeFromString maps a client mode string to the provider constant. Unknown
// or empty input falls back to full depth.
func ModeFromString(mode string) kiteticker.Mode {
	switch mode {
	case models.ModeLTP:
		return kiteticker.ModeLTP
	case models.ModeQuote:
		return kiteticker.ModeQuote
	default:
		return kiteticker.ModeFull
	}
}

// -----------------------------------------------------------------------------

// ConvertTick normalizes a provider tick. Zero-valued optional fields stay
// zero; the OHLC block is omitted when the provider sent none; the timestamp
// falls back to receive time so it is always present.
func ConvertTick(tick kitemodels.Tick) models.MTick {
	out := models.MTick{
		InstrumentToken: tick.InstrumentToken,
		LastPrice:       tick.LastPrice,
		Volume:          tick.VolumeTraded,
		OI:              tick.OI,
		AveragePrice:    tick.AverageTradePrice,
		LastQuantity:    tick.LastTradedQuantity,
	}

	if tick.OHLC.Open != 0 || tick.OHLC.High != 0 || tick.OHLC.Low != 0 || tick.OHLC.Close != 0 {
		out.OHLC = &models.MOHLC{
			Open:  tick.OHLC.Open,
			High:  tick.OHLC.High,
			Low:   tick.OHLC.Low,
			Close: tick.OHLC.Close,
		}
	}

	if tick.Timestamp.IsZero() {
		out.Timestamp = time.Now().UnixMilli()
	} else {
		out.Timestamp = tick.Timestamp.UnixMilli()
	}

	return out
}
