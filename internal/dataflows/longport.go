package dataflows

import (
	"context"
	"errors"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/internal/models"
)

// LongportClient wraps the Longport quote API for CN/HK market data.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{quoteCtx: quoteContext}, nil
}

func (lpc *LongportClient) GetStaticInfo(ctx context.Context, symbols []string) ([]*quote.StaticInfo, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	return lpc.quoteCtx.StaticInfo(ctx, symbols)
}

// GetDailyCandles returns up to count daily bars for a symbol, newest last.
func (lpc *LongportClient) GetDailyCandles(ctx context.Context, symbol string, count int) ([]*models.MarketData, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}

	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	if err != nil {
		return nil, err
	}

	data := make([]*models.MarketData, 0, len(sticks))
	for _, stick := range sticks {
		open, _ := stick.Open.Float64()
		high, _ := stick.High.Float64()
		low, _ := stick.Low.Float64()
		closePx, _ := stick.Close.Float64()
		data = append(data, &models.MarketData{
			Symbol: symbol,
			Date:   time.Unix(stick.Timestamp, 0).Format("2006-01-02"),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: stick.Volume,
		})
	}
	return data, nil
}
