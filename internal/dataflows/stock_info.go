package dataflows

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/models"
)

// 常见美股的中文名映射，接口拿不到时兜底
var usStockNames = map[string]string{
	"AAPL":  "苹果公司",
	"TSLA":  "特斯拉",
	"NVDA":  "英伟达",
	"MSFT":  "微软",
	"GOOGL": "谷歌",
	"AMZN":  "亚马逊",
	"META":  "Meta",
	"NFLX":  "奈飞",
}

// StockInfoResolver resolves the display name of a ticker, market aware.
type StockInfoResolver struct {
	cfg      *config.Config
	longport *LongportClient
	client   *resty.Client
	cache    *CacheManager
}

func NewStockInfoResolver(cfg *config.Config) *StockInfoResolver {
	longportClient, err := NewLongportClient(cfg)
	if err != nil {
		log.Printf("Longport client unavailable for stock info: %v", err)
		longportClient = nil
	}

	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	cacheDir := filepath.Join(cfg.DataCacheDir, "stock_info")
	return &StockInfoResolver{
		cfg:      cfg,
		longport: longportClient,
		client:   client,
		cache:    NewCacheManager(cacheDir, 7*24*time.Hour, cfg.CacheEnabled),
	}
}

// Info resolves the static info for a ticker. The name lookup degrades to a
// placeholder, so the result is always usable for prompt rendering.
func (r *StockInfoResolver) Info(ctx context.Context, ticker string) models.StockInfo {
	ticker = NormalizeSymbol(ticker)
	market := DetectMarket(ticker)
	return models.StockInfo{
		Symbol:   ticker,
		Name:     r.CompanyName(ctx, ticker),
		Exchange: market,
		Currency: currencyForMarket(market),
	}
}

func currencyForMarket(market string) string {
	switch market {
	case consts.MarketChina:
		return "CNY"
	case consts.MarketHK:
		return "HKD"
	default:
		return "USD"
	}
}

// CompanyName resolves a display name for the ticker. Every failure degrades
// to a placeholder name so the analyst prompt always has something to show.
func (r *StockInfoResolver) CompanyName(ctx context.Context, ticker string) string {
	ticker = NormalizeSymbol(ticker)

	var cached string
	if r.cache.Get("stock_info", "name", ticker, &cached) && cached != "" {
		return cached
	}

	var name string
	switch DetectMarket(ticker) {
	case consts.MarketChina:
		name = r.resolveChinaName(ctx, ticker)
	case consts.MarketHK:
		name = r.resolveHKName(ctx, ticker)
	default:
		name = r.resolveUSName(ticker)
	}

	if name != "" {
		r.cache.Set("stock_info", "name", ticker, name)
	}
	return name
}

func (r *StockInfoResolver) resolveChinaName(ctx context.Context, ticker string) string {
	if name := r.nameFromLongport(ctx, ticker); name != "" {
		return name
	}
	if name, err := r.nameFromSinaPage(ctx, ticker); err == nil && name != "" {
		return name
	} else if err != nil {
		log.Printf("Failed to scrape company name for %s: %v", ticker, err)
	}
	return fmt.Sprintf("股票代码%s", BareCode(ticker))
}

func (r *StockInfoResolver) resolveHKName(ctx context.Context, ticker string) string {
	if name := r.nameFromLongport(ctx, ticker); name != "" {
		return name
	}
	return fmt.Sprintf("港股%s", BareCode(ticker))
}

func (r *StockInfoResolver) resolveUSName(ticker string) string {
	if name, ok := usStockNames[ticker]; ok {
		return name
	}
	return fmt.Sprintf("美股%s", ticker)
}

func (r *StockInfoResolver) nameFromLongport(ctx context.Context, ticker string) string {
	if r.longport == nil {
		return ""
	}
	infos, err := r.longport.GetStaticInfo(ctx, []string{ticker})
	if err != nil || len(infos) == 0 || infos[0] == nil {
		if err != nil {
			log.Printf("Longport static info failed for %s: %v", ticker, err)
		}
		return ""
	}
	if infos[0].NameCn != "" {
		return infos[0].NameCn
	}
	return infos[0].NameEn
}

// nameFromSinaPage scrapes the company page title, which is server rendered
// as "公司名(代码) ..." and needs no credentials.
func (r *StockInfoResolver) nameFromSinaPage(ctx context.Context, ticker string) (string, error) {
	sinaCode, err := SinaSymbol(ticker)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://finance.sina.com.cn/realstock/company/%s/nc.shtml", sinaCode)
	resp, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("company page returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	return parseNameFromTitle(title)
}

func parseNameFromTitle(title string) (string, error) {
	if i := strings.IndexAny(title, "(（"); i > 0 {
		name := strings.TrimSpace(title[:i])
		if name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("no company name in page title: %q", title)
}
