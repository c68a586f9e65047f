package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"quantbot-go/internal/market"
)

func sampleBars(n int) market.History {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(market.History, n)
	for i := range bars {
		px := 100 + float64(i)
		bars[i] = market.Bar{
			Ts:     base.Add(time.Duration(i) * time.Hour),
			Open:   px,
			High:   px + 1,
			Low:    px - 1,
			Close:  px + 0.5,
			Volume: 10 + float64(i),
		}
	}
	return bars
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	want := sampleBars(5)
	if err := WriteCSV(path, want); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d bars, want %d", len(got), len(want))
	}
	for i := range got {
		if !got[i].Ts.Equal(want[i].Ts) || got[i].Close != want[i].Close {
			t.Fatalf("bar %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadCSVUnixSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	content := "timestamp,open,high,low,close,volume\n" +
		"1704067200,100,101,99,100.5,10\n" +
		"1704070800,100.5,102,100,101,12\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d bars, want 2", len(got))
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got[0].Ts.Equal(want) {
		t.Fatalf("ts = %v, want %v", got[0].Ts, want)
	}
}

func TestLoadCSVMalformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad header",
			content: "time,open,high,low,close,volume\n",
			wantErr: "header",
		},
		{
			name: "bad price",
			content: "timestamp,open,high,low,close,volume\n" +
				"2024-01-01T00:00:00Z,100,abc,99,100.5,10\n",
			wantErr: "line 2",
		},
		{
			name: "out of order",
			content: "timestamp,open,high,low,close,volume\n" +
				"2024-01-01T01:00:00Z,100,101,99,100.5,10\n" +
				"2024-01-01T00:00:00Z,100,101,99,100.5,10\n",
			wantErr: "increasing",
		},
		{
			name: "negative volume",
			content: "timestamp,open,high,low,close,volume\n" +
				"2024-01-01T00:00:00Z,100,101,99,100.5,-1\n",
			wantErr: "volume",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bars.csv")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadCSV(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	want := sampleBars(10)
	if err := store.Put(ctx, "BTCUSDT", "1h", want); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "BTCUSDT", "1h")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d bars, want %d", len(got), len(want))
	}
	for i := range got {
		if !got[i].Ts.Equal(want[i].Ts) || got[i].Close != want[i].Close || got[i].Volume != want[i].Volume {
			t.Fatalf("bar %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
	}

	n, err := store.Count(ctx, "BTCUSDT", "1h")
	if err != nil || n != 10 {
		t.Fatalf("count = %d, %v; want 10", n, err)
	}

	// Re-put is an upsert, not a duplicate insert.
	if err := store.Put(ctx, "BTCUSDT", "1h", want); err != nil {
		t.Fatalf("re-put: %v", err)
	}
	n, _ = store.Count(ctx, "BTCUSDT", "1h")
	if n != 10 {
		t.Fatalf("count after re-put = %d, want 10", n)
	}
}

func TestStoreKeysIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, "BTCUSDT", "1h", sampleBars(3)); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, "ETHUSDT", "1h")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty history for other symbol, got %d bars", len(got))
	}
}

func klinePayload(bars market.History) [][]any {
	rows := make([][]any, len(bars))
	for i, b := range bars {
		rows[i] = []any{
			float64(b.Ts.UnixMilli()),
			formatF(b.Open), formatF(b.High), formatF(b.Low), formatF(b.Close), formatF(b.Volume),
			float64(b.Ts.Add(time.Hour).UnixMilli() - 1),
		}
	}
	return rows
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestFetchRangePaging(t *testing.T) {
	all := sampleBars(7)
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		ms, err := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		if err != nil {
			http.Error(w, "bad startTime", http.StatusBadRequest)
			return
		}
		from := time.UnixMilli(ms).UTC()
		// Serve at most 3 bars per call to exercise paging.
		var batch market.History
		for _, b := range all {
			if !b.Ts.Before(from) {
				batch = append(batch, b)
				if len(batch) == 3 {
					break
				}
			}
		}
		json.NewEncoder(w).Encode(klinePayload(batch))
	}))
	defer srv.Close()

	c := NewKlineClient(zerolog.Nop()).WithBaseURL(srv.URL)
	got, err := c.FetchRange(context.Background(), "BTCUSDT", "1h",
		all[0].Ts, all[len(all)-1].Ts.Add(time.Hour))
	if err != nil {
		t.Fatalf("fetch range: %v", err)
	}
	if len(got) != len(all) {
		t.Fatalf("got %d bars, want %d", len(got), len(all))
	}
	if calls < 3 {
		t.Fatalf("expected paging across calls, got %d", calls)
	}
	for i := range got {
		if !got[i].Ts.Equal(all[i].Ts) || got[i].Close != all[i].Close {
			t.Fatalf("bar %d mismatch: got %+v want %+v", i, got[i], all[i])
		}
	}
}

func TestFetchRangeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	c := NewKlineClient(zerolog.Nop()).WithBaseURL(srv.URL)
	_, err := c.FetchRange(context.Background(), "BTCUSDT", "1h",
		time.Now().Add(-2*time.Hour), time.Now())
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestFetchRangeUnsupportedInterval(t *testing.T) {
	c := NewKlineClient(zerolog.Nop())
	_, err := c.FetchRange(context.Background(), "BTCUSDT", "2h", time.Now(), time.Now())
	if err == nil {
		t.Fatal("expected error for unsupported interval")
	}
}
