package dataflows

import (
	"context"
	"testing"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
)

func TestResolverInfoUSStock(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.CacheEnabled = false
	resolver := NewStockInfoResolver(cfg)

	// 美股走本地名称映射，不需要网络
	info := resolver.Info(context.Background(), "aapl")
	if info.Symbol != "AAPL" {
		t.Errorf("symbol = %s, want AAPL", info.Symbol)
	}
	if info.Name != "苹果公司" {
		t.Errorf("name = %s, want 苹果公司", info.Name)
	}
	if info.Exchange != consts.MarketUS || info.Currency != "USD" {
		t.Errorf("exchange/currency = %s/%s, want us/USD", info.Exchange, info.Currency)
	}
}

func TestCurrencyForMarket(t *testing.T) {
	cases := map[string]string{
		consts.MarketChina: "CNY",
		consts.MarketHK:    "HKD",
		consts.MarketUS:    "USD",
		"unknown":          "USD",
	}
	for market, want := range cases {
		if got := currencyForMarket(market); got != want {
			t.Errorf("currencyForMarket(%s) = %s, want %s", market, got, want)
		}
	}
}
