package indicator

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arijanluiken/tickscript/pkg/market"
)

func testBars(closes ...float64) []market.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

func sameSeries(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			if !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
				return false
			}
			continue
		}
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

type stubIndicator struct {
	name   string
	series []float64
	err    error
}

func (s *stubIndicator) Name() string { return s.name }

func (s *stubIndicator) Calculate(ctx context.Context, bars []market.Bar) ([]float64, error) {
	return s.series, s.err
}

func TestManagerRegistry(t *testing.T) {
	manager := NewManager(zerolog.New(nil))

	for _, name := range []string{"b", "a", "c"} {
		if err := manager.Add(&stubIndicator{name: name}); err != nil {
			t.Fatalf("expected no error adding %s, got %v", name, err)
		}
	}

	if err := manager.Add(&stubIndicator{name: "a"}); err == nil {
		t.Error("expected error adding duplicate indicator")
	}

	names := manager.List()
	if strings.Join(names, ",") != "b,a,c" {
		t.Errorf("expected registration order b,a,c, got %v", names)
	}

	if _, ok := manager.Get("a"); !ok {
		t.Error("expected to find indicator a")
	}
	if _, ok := manager.Get("z"); ok {
		t.Error("expected not to find indicator z")
	}

	if !manager.Remove("a") {
		t.Error("expected Remove to report a as registered")
	}
	if manager.Remove("a") {
		t.Error("expected second Remove to report false")
	}
	if len(manager.List()) != 2 {
		t.Errorf("expected 2 indicators, got %d", len(manager.List()))
	}
}

func TestManagerCalculate(t *testing.T) {
	manager := NewManager(zerolog.New(nil))
	bars := testBars(1, 2, 3)

	manager.Add(&stubIndicator{name: "ok", series: []float64{1, 2, 3}})
	manager.Add(&stubIndicator{name: "short", series: []float64{1}})
	manager.Add(&stubIndicator{name: "broken", err: errors.New("boom")})

	t.Run("single", func(t *testing.T) {
		series, err := manager.Calculate(context.Background(), "ok", bars)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !sameSeries(series, []float64{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", series)
		}
		stored, ok := manager.Result("ok")
		if !ok || !sameSeries(stored, series) {
			t.Error("expected result to be stored")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := manager.Calculate(context.Background(), "missing", bars); err == nil {
			t.Error("expected error for unknown indicator")
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := manager.Calculate(context.Background(), "short", bars)
		if err == nil || !strings.Contains(err.Error(), "returned 1 values for 3 bars") {
			t.Errorf("expected length error, got %v", err)
		}
	})

	t.Run("all", func(t *testing.T) {
		results, err := manager.CalculateAll(context.Background(), bars)
		if err == nil {
			t.Fatal("expected joined error")
		}
		if !strings.Contains(err.Error(), "boom") || !strings.Contains(err.Error(), "short") {
			t.Errorf("expected both failures in error, got %v", err)
		}
		if len(results) != 1 {
			t.Errorf("expected 1 successful result, got %d", len(results))
		}
		if _, ok := results["ok"]; !ok {
			t.Error("expected result for ok")
		}
	})

	t.Run("remove drops result", func(t *testing.T) {
		manager.Remove("ok")
		if _, ok := manager.Result("ok"); ok {
			t.Error("expected result to be dropped with the indicator")
		}
	})
}

func TestManagerCalculateAllCancelled(t *testing.T) {
	manager := NewManager(zerolog.New(nil))
	manager.Add(&stubIndicator{name: "ok", series: []float64{1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := manager.CalculateAll(ctx, testBars(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMovingAverage(t *testing.T) {
	bars := testBars(1, 2, 3, 4)

	t.Run("simple", func(t *testing.T) {
		ma, err := NewMovingAverage(Simple, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ma.Name() != "SMA(2)" {
			t.Errorf("expected name SMA(2), got %s", ma.Name())
		}
		series, err := ma.Calculate(context.Background(), bars)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !sameSeries(series, []float64{math.NaN(), 1.5, 2.5, 3.5}) {
			t.Errorf("unexpected SMA %v", series)
		}
	})

	t.Run("exponential", func(t *testing.T) {
		ma, err := NewMovingAverage(Exponential, 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		series, err := ma.Calculate(context.Background(), bars)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if series[0] != 1 {
			t.Errorf("expected EMA seeded with first close, got %v", series[0])
		}
	})

	t.Run("custom source", func(t *testing.T) {
		ma := &MovingAverage{Kind: Simple, Period: 1, Source: market.FieldHigh}
		if ma.Name() != "SMA(1, high)" {
			t.Errorf("expected name SMA(1, high), got %s", ma.Name())
		}
		series, err := ma.Calculate(context.Background(), bars)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !sameSeries(series, []float64{2, 3, 4, 5}) {
			t.Errorf("expected highs, got %v", series)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := NewMovingAverage("WMA", 3); err == nil {
			t.Error("expected error for unsupported kind")
		}
		if _, err := NewMovingAverage(Simple, 0); err == nil {
			t.Error("expected error for zero period")
		}
	})
}
