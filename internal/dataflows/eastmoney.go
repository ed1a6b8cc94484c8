package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/internal/models"
)

// EastmoneyClient fetches A-share daily klines and index snapshots from the
// Eastmoney push2his endpoints.
type EastmoneyClient struct {
	client *resty.Client
	cache  *CacheManager
}

// 主要指数 secid 列表
var indexSecIDs = []struct {
	SecID string
	Name  string
}{
	{"1.000001", "上证指数"},
	{"0.399001", "深证成指"},
	{"0.399006", "创业板指"},
}

func NewEastmoneyClient(cfg *config.Config) *EastmoneyClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "eastmoney")
	cache := NewCacheManager(cacheDir, 30*time.Minute, cfg.CacheEnabled)

	client := resty.New()
	client.SetBaseURL("https://push2his.eastmoney.com")
	client.SetTimeout(15 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	client.SetHeader("Referer", "https://quote.eastmoney.com/")

	return &EastmoneyClient{
		client: client,
		cache:  cache,
	}
}

// GetDailyKline returns the most recent count daily bars for an A-share
// symbol, oldest first.
func (ec *EastmoneyClient) GetDailyKline(ctx context.Context, symbol string, count int) ([]*models.MarketData, error) {
	return ec.getKline(ctx, symbol, "", count)
}

// GetDailyKlineFrom returns up to count daily bars starting at date
// (YYYY-MM-DD), oldest first. Used by the backtest evaluator.
func (ec *EastmoneyClient) GetDailyKlineFrom(ctx context.Context, symbol, date string, count int) ([]*models.MarketData, error) {
	return ec.getKline(ctx, symbol, strings.ReplaceAll(date, "-", ""), count)
}

func (ec *EastmoneyClient) getKline(ctx context.Context, symbol, beg string, count int) ([]*models.MarketData, error) {
	secid, err := EastmoneySecID(symbol)
	if err != nil {
		return nil, err
	}

	cacheKey := map[string]interface{}{"secid": secid, "beg": beg, "count": count}
	var cached []*models.MarketData
	if ec.cache.Get("eastmoney", "kline", cacheKey, &cached) {
		return cached, nil
	}

	params := map[string]string{
		"secid":   secid,
		"fields1": "f1,f2,f3,f4,f5,f6",
		"fields2": "f51,f52,f53,f54,f55,f56,f57",
		"klt":     "101", // 日K
		"fqt":     "1",   // 前复权
		"end":     "20500101",
	}
	if beg != "" {
		params["beg"] = beg
		// beg+lmt 同时给出时接口以 lmt 为准截尾，改用 end 边界取完整区间
		delete(params, "end")
		end, perr := time.Parse("20060102", beg)
		if perr == nil {
			// 自然日放宽到交易日所需天数的三倍
			params["end"] = end.AddDate(0, 0, count*3).Format("20060102")
		} else {
			params["end"] = "20500101"
		}
	} else {
		params["lmt"] = strconv.Itoa(count)
	}

	var body []byte
	err = WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ec.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get("/api/qt/stock/kline/get")
		if err != nil {
			return err
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("eastmoney kline returned status %d", resp.StatusCode())
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := parseKlines(symbol, body)
	if err != nil {
		return nil, err
	}
	if beg != "" && len(data) > count {
		data = data[:count]
	}

	ec.cache.Set("eastmoney", "kline", cacheKey, data)
	return data, nil
}

// parseKlines decodes the push2his kline payload. Each entry is
// "日期,开盘,收盘,最高,最低,成交量,成交额".
func parseKlines(symbol string, body []byte) ([]*models.MarketData, error) {
	var result struct {
		Data struct {
			Klines []string `json:"klines"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse eastmoney kline response: %w", err)
	}

	klines := make([]*models.MarketData, 0, len(result.Data.Klines))
	for _, line := range result.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 6 {
			continue
		}

		open, _ := strconv.ParseFloat(parts[1], 64)
		closePx, _ := strconv.ParseFloat(parts[2], 64)
		high, _ := strconv.ParseFloat(parts[3], 64)
		low, _ := strconv.ParseFloat(parts[4], 64)
		volume, _ := strconv.ParseInt(parts[5], 10, 64)

		klines = append(klines, &models.MarketData{
			Symbol: symbol,
			Date:   parts[0],
			Open:   open,
			Close:  closePx,
			High:   high,
			Low:    low,
			Volume: volume,
		})
	}

	return klines, nil
}

// GetMarketOverview builds a one-screen text snapshot of the main indexes,
// fed to the screener and market overview tool.
func (ec *EastmoneyClient) GetMarketOverview(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("## A股市场概览\n\n")
	sb.WriteString("| 指数 | 最新收盘 | 涨跌幅 | 成交量 |\n")
	sb.WriteString("|------|----------|--------|--------|\n")

	var fetched int
	for _, idx := range indexSecIDs {
		bars, err := ec.getIndexKline(ctx, idx.SecID, 2)
		if err != nil || len(bars) == 0 {
			continue
		}
		last := bars[len(bars)-1]
		changePct := 0.0
		if len(bars) >= 2 && bars[len(bars)-2].Close != 0 {
			prev := bars[len(bars)-2].Close
			changePct = (last.Close - prev) / prev * 100
		}
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %+.2f%% | %d |\n",
			idx.Name, last.Close, changePct, last.Volume))
		fetched++
	}

	if fetched == 0 {
		return "", fmt.Errorf("no index data available")
	}

	sb.WriteString(fmt.Sprintf("\n数据截止: %s\n", time.Now().Format("2006-01-02")))
	return sb.String(), nil
}

func (ec *EastmoneyClient) getIndexKline(ctx context.Context, secid string, count int) ([]*models.MarketData, error) {
	cacheKey := map[string]interface{}{"secid": secid, "count": count, "kind": "index"}
	var cached []*models.MarketData
	if ec.cache.Get("eastmoney", "index", cacheKey, &cached) {
		return cached, nil
	}

	var body []byte
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ec.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"secid":   secid,
				"fields1": "f1,f2,f3,f4,f5,f6",
				"fields2": "f51,f52,f53,f54,f55,f56,f57",
				"klt":     "101",
				"fqt":     "0",
				"end":     "20500101",
				"lmt":     strconv.Itoa(count),
			}).
			Get("/api/qt/stock/kline/get")
		if err != nil {
			return err
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("eastmoney index kline returned status %d", resp.StatusCode())
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := parseKlines(secid, body)
	if err != nil {
		return nil, err
	}

	ec.cache.Set("eastmoney", "index", cacheKey, data)
	return data, nil
}
