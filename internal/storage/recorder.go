package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dyike/PromptBench/config"
	"github.com/dyike/PromptBench/internal/storage/sqlite"
)

var (
	storeOnce sync.Once
	storeInst *sqlite.Store
	storeErr  error

	// ErrDataDirNotConfigured indicates config.DataDir is empty.
	ErrDataDirNotConfigured = errors.New("data_dir is not configured")
)

// GetStore returns a shared sqlite store handle for reuse.
func GetStore(cfg *config.Config) (*sqlite.Store, error) {
	storeOnce.Do(func() {
		dataDir := strings.TrimSpace(cfg.DataDir)
		if dataDir == "" {
			storeErr = ErrDataDirNotConfigured
			return
		}
		dbPath := filepath.Join(dataDir, "promptbench.db")
		storeInst, storeErr = sqlite.Open(dbPath)
	})
	return storeInst, storeErr
}
