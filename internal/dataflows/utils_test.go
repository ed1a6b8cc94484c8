package dataflows

import (
	"errors"
	"testing"
	"time"

	"github.com/dyike/PromptBench/consts"
)

func TestDetectMarket(t *testing.T) {
	cases := []struct {
		symbol string
		want   string
	}{
		{"600519.SH", consts.MarketChina},
		{"000858.SZ", consts.MarketChina},
		{"300750.sz", consts.MarketChina},
		{"700.HK", consts.MarketHK},
		{"AAPL", consts.MarketUS},
		{"BRK.B", consts.MarketUS},
	}

	for _, c := range cases {
		if got := DetectMarket(c.symbol); got != c.want {
			t.Errorf("DetectMarket(%s) = %s, want %s", c.symbol, got, c.want)
		}
	}
}

func TestEastmoneySecID(t *testing.T) {
	if secid, err := EastmoneySecID("600519.SH"); err != nil || secid != "1.600519" {
		t.Fatalf("EastmoneySecID(600519.SH) = %s, %v", secid, err)
	}
	if secid, err := EastmoneySecID("000858.SZ"); err != nil || secid != "0.000858" {
		t.Fatalf("EastmoneySecID(000858.SZ) = %s, %v", secid, err)
	}
	if _, err := EastmoneySecID("AAPL"); err == nil {
		t.Fatalf("expected error for non A-share symbol")
	}
}

func TestSinaSymbol(t *testing.T) {
	if s, err := SinaSymbol("600519.SH"); err != nil || s != "sh600519" {
		t.Fatalf("SinaSymbol(600519.SH) = %s, %v", s, err)
	}
	if s, err := SinaSymbol("300059.SZ"); err != nil || s != "sz300059" {
		t.Fatalf("SinaSymbol(300059.SZ) = %s, %v", s, err)
	}
}

func TestBareCode(t *testing.T) {
	if got := BareCode("600519.SH"); got != "600519" {
		t.Errorf("BareCode(600519.SH) = %s", got)
	}
	if got := BareCode("AAPL"); got != "AAPL" {
		t.Errorf("BareCode(AAPL) = %s", got)
	}
}

func TestValidateSymbol(t *testing.T) {
	if err := ValidateSymbol("600519.SH"); err != nil {
		t.Errorf("valid symbol rejected: %v", err)
	}
	if err := ValidateSymbol(""); err == nil {
		t.Errorf("empty symbol accepted")
	}
	if err := ValidateSymbol("VERYLONGSYMBOL"); err == nil {
		t.Errorf("overlong symbol accepted")
	}
}

func TestCacheManagerRoundTrip(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), time.Hour, true)

	type payload struct {
		Value string `json:"value"`
	}

	if err := cm.Set("test", "roundtrip", "key", payload{Value: "hello"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if !cm.Get("test", "roundtrip", "key", &got) {
		t.Fatalf("cache miss after Set")
	}
	if got.Value != "hello" {
		t.Fatalf("got %q, want hello", got.Value)
	}

	// disabled cache never hits
	disabled := NewCacheManager(t.TempDir(), time.Hour, false)
	_ = disabled.Set("test", "roundtrip", "key", payload{Value: "x"})
	if disabled.Get("test", "roundtrip", "key", &got) {
		t.Fatalf("disabled cache returned a hit")
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := &RetryConfig{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 1.0}

	err := WithRetry(cfg, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	err = WithRetry(cfg, func() error { return errors.New("always") })
	if err == nil {
		t.Fatalf("expected error when all attempts fail")
	}
}
