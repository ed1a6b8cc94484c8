package dataflows

import "testing"

func TestParseKlines(t *testing.T) {
	body := []byte(`{"data":{"klines":[
		"2024-01-15,1688.00,1695.50,1702.00,1680.10,25000,4230000000.00",
		"2024-01-16,1696.00,1710.20,1715.00,1690.00,31000,5280000000.00",
		"bad-line"
	]}}`)

	bars, err := parseKlines("600519.SH", body)
	if err != nil {
		t.Fatalf("parseKlines: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	first := bars[0]
	if first.Date != "2024-01-15" {
		t.Errorf("date = %s", first.Date)
	}
	if first.Open != 1688.00 || first.Close != 1695.50 {
		t.Errorf("open/close = %f/%f", first.Open, first.Close)
	}
	if first.High != 1702.00 || first.Low != 1680.10 {
		t.Errorf("high/low = %f/%f", first.High, first.Low)
	}
	if first.Volume != 25000 {
		t.Errorf("volume = %d", first.Volume)
	}
	if first.Symbol != "600519.SH" {
		t.Errorf("symbol = %s", first.Symbol)
	}
}

func TestParseKlinesEmpty(t *testing.T) {
	bars, err := parseKlines("600519.SH", []byte(`{"data":null}`))
	if err != nil {
		t.Fatalf("parseKlines: %v", err)
	}
	if len(bars) != 0 {
		t.Fatalf("expected no bars, got %d", len(bars))
	}

	if _, err := parseKlines("600519.SH", []byte(`not json`)); err == nil {
		t.Fatalf("expected error on malformed body")
	}
}

func TestParseNameFromTitle(t *testing.T) {
	name, err := parseNameFromTitle("贵州茅台(600519) 股票行情_新浪财经")
	if err != nil || name != "贵州茅台" {
		t.Fatalf("parseNameFromTitle = %q, %v", name, err)
	}

	name, err = parseNameFromTitle("五粮液（000858）行情")
	if err != nil || name != "五粮液" {
		t.Fatalf("parseNameFromTitle fullwidth = %q, %v", name, err)
	}

	if _, err := parseNameFromTitle("没有括号的标题"); err == nil {
		t.Fatalf("expected error when title has no code")
	}
}
