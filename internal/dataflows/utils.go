package dataflows

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dyike/PromptBench/consts"
)

// CacheManager handles file-based caching for data
type CacheManager struct {
	cacheDir     string
	ttl          time.Duration
	cacheEnabled bool
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string, ttl time.Duration, cacheEnabled bool) *CacheManager {
	return &CacheManager{
		cacheDir:     cacheDir,
		ttl:          ttl,
		cacheEnabled: cacheEnabled,
	}
}

// getCacheKey generates a cache key from parameters
func (cm *CacheManager) getCacheKey(source, method string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s_%s_%x.json", source, method, hash)
}

// Get retrieves data from cache if not expired
func (cm *CacheManager) Get(source, method string, params interface{}, result interface{}) bool {
	if !cm.cacheEnabled {
		return false
	}

	key := cm.getCacheKey(source, method, params)
	filePath := filepath.Join(cm.cacheDir, key)

	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	if time.Since(info.ModTime()) > cm.ttl {
		os.Remove(filePath) // Remove expired cache
		return false
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}

	return json.Unmarshal(data, result) == nil
}

// Set stores data in cache
func (cm *CacheManager) Set(source, method string, params interface{}, data interface{}) error {
	if !cm.cacheEnabled {
		return nil
	}

	key := cm.getCacheKey(source, method, params)
	filePath := filepath.Join(cm.cacheDir, key)

	if err := os.MkdirAll(cm.cacheDir, 0o755); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, payload, 0o644)
}

// RetryConfig controls retry behavior for flaky data sources
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64
}

// DefaultRetryConfig returns the default retry settings
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     2.0,
	}
}

// WithRetry executes fn with retries and exponential backoff
func WithRetry(config *RetryConfig, fn func() error) error {
	var lastErr error
	delay := config.Delay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < config.MaxAttempts {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * config.Backoff)
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", config.MaxAttempts, lastErr)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// ValidateSymbol checks that a ticker symbol is well formed
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 12 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !symbolPattern.MatchString(strings.ToUpper(symbol)) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// NormalizeSymbol uppercases and trims a ticker symbol
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// DetectMarket classifies a ticker into china/hk/us by its suffix.
// 600519.SH / 000858.SZ -> china, 700.HK -> hk, everything else -> us.
func DetectMarket(symbol string) string {
	s := NormalizeSymbol(symbol)
	switch {
	case strings.HasSuffix(s, ".SH"), strings.HasSuffix(s, ".SZ"):
		return consts.MarketChina
	case strings.HasSuffix(s, ".HK"):
		return consts.MarketHK
	default:
		return consts.MarketUS
	}
}

// EastmoneySecID converts 600519.SH / 000858.SZ into the secid format the
// Eastmoney endpoints expect (1.600519 / 0.000858).
func EastmoneySecID(symbol string) (string, error) {
	s := NormalizeSymbol(symbol)
	switch {
	case strings.HasSuffix(s, ".SH"):
		return "1." + strings.TrimSuffix(s, ".SH"), nil
	case strings.HasSuffix(s, ".SZ"):
		return "0." + strings.TrimSuffix(s, ".SZ"), nil
	default:
		return "", fmt.Errorf("not an A-share symbol: %s", symbol)
	}
}

// SinaSymbol converts 600519.SH / 000858.SZ into the sh600519 / sz000858
// form used by Sina finance pages.
func SinaSymbol(symbol string) (string, error) {
	s := NormalizeSymbol(symbol)
	switch {
	case strings.HasSuffix(s, ".SH"):
		return "sh" + strings.TrimSuffix(s, ".SH"), nil
	case strings.HasSuffix(s, ".SZ"):
		return "sz" + strings.TrimSuffix(s, ".SZ"), nil
	default:
		return "", fmt.Errorf("not an A-share symbol: %s", symbol)
	}
}

// BareCode strips the exchange suffix: 600519.SH -> 600519.
func BareCode(symbol string) string {
	s := NormalizeSymbol(symbol)
	if i := strings.Index(s, "."); i > 0 {
		return s[:i]
	}
	return s
}
