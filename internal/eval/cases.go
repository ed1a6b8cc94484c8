package eval

import "github.com/dyike/PromptBench/internal/models"

// DefaultTestCases 覆盖不同类型的股票
var DefaultTestCases = []models.TestCase{
	// 大盘蓝筹
	{Ticker: "600519.SH", Name: "贵州茅台", Type: "白酒龙头"},
	{Ticker: "601318.SH", Name: "中国平安", Type: "保险龙头"},
	{Ticker: "000858.SZ", Name: "五粮液", Type: "白酒"},

	// 科技成长
	{Ticker: "300750.SZ", Name: "宁德时代", Type: "新能源"},
	{Ticker: "002415.SZ", Name: "海康威视", Type: "安防"},

	// 周期股
	{Ticker: "601899.SH", Name: "紫金矿业", Type: "有色金属"},
	{Ticker: "600028.SH", Name: "中国石化", Type: "石油"},

	// 中小盘
	{Ticker: "300059.SZ", Name: "东方财富", Type: "券商互联网"},
	{Ticker: "002594.SZ", Name: "比亚迪", Type: "新能源汽车"},

	// 特殊情况
	{Ticker: "000001.SZ", Name: "平安银行", Type: "银行"},
}
