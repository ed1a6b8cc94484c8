package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	LLMProvider   string `json:"llm_provider"`
	QuickThinkLLM string `json:"quick_think_llm"`
	DeepThinkLLM  string `json:"deep_think_llm"`
	BackendURL    string `json:"backend_url"`

	MaxAgentSteps int  `json:"max_agent_steps"`
	OnlineTools   bool `json:"online_tools"`
	Debug         bool `json:"debug"`
	CacheEnabled  bool `json:"cache_enabled"`

	// Evaluation defaults
	HoldDaysShort      int `json:"hold_days_short"`
	HoldDaysLong       int `json:"hold_days_long"`
	MaxToolResultChars int `json:"max_tool_result_chars"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`

	// Longport API Configuration
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`

	// AI Model API Keys
	DeepSeekAPIKey string `json:"deepseek_api_key"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:   root,
		ResultsDir:   filepath.Join(root, "results"),
		DataDir:      filepath.Join(root, "data"),
		DataCacheDir: filepath.Join(root, "data", "cache"),

		LLMProvider:   "deepseek",
		QuickThinkLLM: "deepseek-chat",
		DeepThinkLLM:  "deepseek-reasoner",
		BackendURL:    "https://api.deepseek.com/v1",

		MaxAgentSteps: 40,
		OnlineTools:   true,
		Debug:         false,
		CacheEnabled:  true,

		HoldDaysShort:      5,
		HoldDaysLong:       10,
		MaxToolResultChars: 5000,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("QUICK_THINK_LLM"); val != "" {
		c.QuickThinkLLM = val
	}
	if val := os.Getenv("DEEP_THINK_LLM"); val != "" {
		c.DeepThinkLLM = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}
	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}
	if val := os.Getenv("MAX_AGENT_STEPS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxAgentSteps = v
		}
	}

	if val := os.Getenv("HOLD_DAYS_SHORT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.HoldDaysShort = v
		}
	}
	if val := os.Getenv("HOLD_DAYS_LONG"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.HoldDaysLong = v
		}
	}

	if val := os.Getenv("PROMPTBENCH_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectDir) == "" {
		return fmt.Errorf("project_dir is required")
	}
	if c.HoldDaysShort <= 0 || c.HoldDaysLong <= 0 {
		return fmt.Errorf("hold days must be positive")
	}
	if c.HoldDaysShort > c.HoldDaysLong {
		return fmt.Errorf("hold_days_short must not exceed hold_days_long")
	}
	if c.MaxAgentSteps <= 0 {
		return fmt.Errorf("max_agent_steps must be positive")
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

func loadConfigFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
