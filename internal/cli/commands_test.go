package cli

import (
	"testing"

	"github.com/dyike/PromptBench/consts"
	"github.com/dyike/PromptBench/internal/models"
)

func TestExportFileID(t *testing.T) {
	report := &models.ABTestReport{Mode: consts.ModeQuick, Date: "2024-03-15"}

	if got := exportFileID("2024-03-15-quick-1710000000", report); got != "2024-03-15-quick-1710000000" {
		t.Errorf("persisted run must keep its id, got %s", got)
	}

	// 持久化失败时导出文件名退化为 日期-模式，不能是空串
	if got := exportFileID("", report); got != "2024-03-15-quick" {
		t.Errorf("fallback id = %s, want 2024-03-15-quick", got)
	}
}
