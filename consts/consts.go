package consts

// 分析模式
const (
	ModeQuick    = "quick"
	ModeDeep     = "deep"
	ModeScreener = "screener"
)

// Prompt 版本标识
const (
	VersionOriginal  = "original"
	VersionOptimized = "optimized"
)

// 节点发送方
const (
	SenderMarketAnalyst = "ChinaMarketAnalyst"
	SenderStockScreener = "ChinaStockScreener"
)

// 投资建议
const (
	RecommendBuy  = "买入"
	RecommendHold = "持有"
	RecommendSell = "卖出"
)

// 市场类型
const (
	MarketChina = "china"
	MarketHK    = "hk"
	MarketUS    = "us"
)
