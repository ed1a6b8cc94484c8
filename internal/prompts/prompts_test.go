package prompts

import (
	"strings"
	"testing"

	"github.com/dyike/PromptBench/consts"
)

func TestForMode(t *testing.T) {
	if got := ForMode(consts.ModeQuick); got != QuickScreening {
		t.Errorf("quick mode returned wrong prompt")
	}
	if got := ForMode(consts.ModeDeep); got != DeepAnalysis {
		t.Errorf("deep mode returned wrong prompt")
	}
	if got := ForMode(consts.ModeScreener); got != StockScreener {
		t.Errorf("screener mode returned wrong prompt")
	}

	// 未知模式回退到快速评估
	if got := ForMode("nonsense"); got != QuickScreening {
		t.Errorf("unknown mode should fall back to quick screening")
	}
}

func TestForVersion(t *testing.T) {
	if got := ForVersion(consts.VersionOriginal, consts.ModeQuick); got != Baseline {
		t.Errorf("original version should use the baseline prompt")
	}
	if got := ForVersion(consts.VersionOptimized, consts.ModeDeep); got != DeepAnalysis {
		t.Errorf("optimized version should use the mode prompt")
	}
}

func TestValidate(t *testing.T) {
	for _, mode := range Modes() {
		if err := Validate(mode); err != nil {
			t.Errorf("Validate(%s) = %v", mode, err)
		}
	}
	if err := Validate("nonsense"); err == nil {
		t.Errorf("unknown mode should not validate")
	}
}

func TestAnalystName(t *testing.T) {
	if name := AnalystName(consts.ModeDeep); !strings.Contains(name, "深度") {
		t.Errorf("deep analyst name = %s", name)
	}
	if name := AnalystName(consts.ModeQuick); !strings.Contains(name, "快速") {
		t.Errorf("quick analyst name = %s", name)
	}
}

func TestPromptBodiesKeepFormatMarkers(t *testing.T) {
	// 评估器的格式检查依赖这些输出标记
	for _, marker := range []string{"##", "⭐", "|"} {
		if !strings.Contains(QuickScreening, marker) {
			t.Errorf("quick prompt missing format marker %q", marker)
		}
	}
	for _, marker := range []string{"##", "评分", "止盈止损"} {
		if !strings.Contains(DeepAnalysis, marker) {
			t.Errorf("deep prompt missing format marker %q", marker)
		}
	}
}

func TestSystemTemplatePlaceholders(t *testing.T) {
	for _, ph := range []string{"{system_message}", "{current_date}", "{ticker}", "{company_name}", "{tool_names}"} {
		if !strings.Contains(AnalystSystemTemplate, ph) {
			t.Errorf("analyst template missing placeholder %s", ph)
		}
	}
	for _, ph := range []string{"{system_message}", "{current_date}", "{tool_names}"} {
		if !strings.Contains(ScreenerSystemTemplate, ph) {
			t.Errorf("screener template missing placeholder %s", ph)
		}
	}
}
