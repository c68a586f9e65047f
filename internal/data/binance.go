package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"quantbot-go/internal/market"
)

const (
	defaultBinanceBaseURL = "https://api.binance.com"
	klineBatchLimit       = 1000
)

// intervalDurations maps supported kline interval names to their length.
var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// IntervalDuration returns the bar length for a supported interval name.
func IntervalDuration(interval string) (time.Duration, error) {
	d, ok := intervalDurations[interval]
	if !ok {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	return d, nil
}

// KlineClient fetches closed candles from the Binance REST API.
type KlineClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewKlineClient builds a client against the public API.
func NewKlineClient(log zerolog.Logger) *KlineClient {
	return &KlineClient{
		baseURL: defaultBinanceBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "kline_client").Logger(),
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *KlineClient) WithBaseURL(base string) *KlineClient {
	c.baseURL = base
	return c
}

// FetchRange downloads all closed bars for symbol/interval between start
// and end, paging through the API in batches. Bars are returned in
// timestamp order.
func (c *KlineClient) FetchRange(ctx context.Context, symbol, interval string, start, end time.Time) (market.History, error) {
	step, err := IntervalDuration(interval)
	if err != nil {
		return nil, err
	}
	var bars market.History
	cursor := start
	for cursor.Before(end) {
		batch, err := c.fetchBatch(ctx, symbol, interval, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		bars = append(bars, batch...)
		cursor = batch[len(batch)-1].Ts.Add(step)
		c.log.Debug().
			Str("symbol", symbol).
			Int("bars", len(bars)).
			Time("cursor", cursor).
			Msg("kline batch fetched")
	}
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("exchange returned invalid history: %w", err)
	}
	return bars, nil
}

func (c *KlineClient) fetchBatch(ctx context.Context, symbol, interval string, start, end time.Time) (market.History, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(klineBatchLimit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "quantbot-go/1.0")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload [][]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	bars := make(market.History, 0, len(payload))
	for i, row := range payload {
		bar, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("kline row %d: %w", i, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline decodes one kline row: open time in millis followed by
// open/high/low/close/volume as strings.
func parseKline(row []any) (market.Bar, error) {
	if len(row) < 6 {
		return market.Bar{}, fmt.Errorf("short row: %d fields", len(row))
	}
	millis, ok := row[0].(float64)
	if !ok {
		return market.Bar{}, fmt.Errorf("open time is %T, want number", row[0])
	}
	fields := make([]float64, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := range fields {
		s, ok := row[i+1].(string)
		if !ok {
			return market.Bar{}, fmt.Errorf("%s is %T, want string", names[i], row[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("parse %s %q: %w", names[i], s, err)
		}
		fields[i] = v
	}
	bar := market.Bar{
		Ts:     time.UnixMilli(int64(millis)).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}
	if err := bar.Validate(); err != nil {
		return market.Bar{}, err
	}
	return bar, nil
}
