package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestMetricsCollector_Counters(t *testing.T) {
	m := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter("hits")
		}()
	}
	wg.Wait()

	if got := m.GetCounterValue("hits"); got != 50 {
		t.Fatalf("counter = %d, want 50", got)
	}

	m.IncGauge("open")
	m.IncGauge("open")
	m.DecGauge("open")
	if got := m.GetGauge("open"); got != 1 {
		t.Fatalf("gauge = %d, want 1", got)
	}
}

func TestMetricsCollector_Histogram(t *testing.T) {
	m := NewMetricsCollector()
	for _, v := range []int64{5, 1, 9} {
		m.RecordHistogram("latency", v)
	}

	snap := m.GetMetrics()
	h := snap["histograms"].(map[string]map[string]int64)["latency"]
	if h["count"] != 3 || h["sum"] != 15 || h["min"] != 1 || h["max"] != 9 {
		t.Fatalf("unexpected histogram snapshot: %v", h)
	}
}

func TestMetricsCollector_NilSafe(t *testing.T) {
	var m *MetricsCollector
	m.IncrementCounter("x")
	m.RecordHistogram("y", 1)
	if m.GetCounterValue("x") != 0 {
		t.Fatal("nil collector should read zero")
	}
}

func TestRetryWithContext(t *testing.T) {
	calls := 0
	got, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})
	if err != nil || got != 42 || calls != 2 {
		t.Fatalf("got (%d, %v) after %d calls", got, err, calls)
	}

	calls = 0
	_, err = RetryWithContext(context.Background(), 3, func(ctx context.Context) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) || calls != 1 {
		t.Fatalf("deadline should not be retried: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithContext_Permanent(t *testing.T) {
	sentinel := errors.New("unauthorized")
	calls := 0
	_, err := RetryWithContext(context.Background(), 3, func(ctx context.Context) (string, error) {
		calls++
		return "", Permanent(sentinel)
	})
	if err != sentinel || calls != 1 {
		t.Fatalf("permanent error should stop retries: err=%v calls=%d", err, calls)
	}
	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) must be nil")
	}
}

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, DEBUG)
	l.Info("search finished", map[string]interface{}{"provider": "Pexels", "count": 3})

	out := buf.String()
	if !strings.Contains(out, "search finished") || !strings.Contains(out, "provider=Pexels") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	l.SetLogLevel(ERROR)
	l.Info("hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at error level, got %q", buf.String())
	}
}
