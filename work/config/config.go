package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when TVRELAY_CONFIG is not set.
const DefaultConfigPath = "/settings/config.json"

// Config holds all application configuration values for the relay.
// It covers the listener, upstream fetching, the proxy handle table and the
// persisted source list.
type Config struct {
	ListenAddr       string            `json:"listenAddr"`       // Fixed loopback address the relay binds to
	RelayOrigin      string            `json:"relayOrigin"`      // Origin used when rewriting links back into the relay
	LogLevel         string            `json:"logLevel"`         // DEBUG, INFO, WARN or ERROR
	Debug            bool              `json:"debug"`            // Forces DEBUG level logging
	LogUTC           bool              `json:"logUtc"`           // UTC log timestamps with microseconds
	ObfuscateUrls    bool              `json:"obfuscateUrls"`    // Obfuscate URLs in logs
	RelayTimeout     time.Duration     `json:"relayTimeout"`     // Timeout for manifest and relay fetches
	ContentTimeout   time.Duration     `json:"contentTimeout"`   // Timeout for plain content fetches, zero means none
	MaxRedirects     int               `json:"maxRedirects"`     // Redirect hops followed before failing
	UpstreamHeaders  map[string]string `json:"upstreamHeaders"`  // Browser-like header set sent upstream
	MappingCapacity  int               `json:"mappingCapacity"`  // Maximum number of live proxy handles
	MappingTTL       time.Duration     `json:"mappingTTL"`       // Idle lifetime of a proxy handle
	DatabasePath     string            `json:"databasePath"`     // SQLite file holding the source list
	WorkerThreads    int               `json:"workerThreads"`    // Worker pool size for source refreshes
	RefreshInterval  time.Duration     `json:"refreshInterval"`  // Interval between source refreshes, zero disables
	RefreshRateLimit int               `json:"refreshRateLimit"` // Upstream playlist fetches per second during refresh
	BridgeScheme     string            `json:"bridgeScheme"`     // URI scheme accepted by the custom-scheme bridge
}

// ConfigFile represents the on-disk structure (JSON or YAML).
// Duration fields are strings (e.g. "30s") parsed into time.Duration values.
type ConfigFile struct {
	ListenAddr       string            `json:"listenAddr" yaml:"listenAddr"`
	RelayOrigin      string            `json:"relayOrigin" yaml:"relayOrigin"`
	LogLevel         string            `json:"logLevel" yaml:"logLevel"`
	Debug            bool              `json:"debug" yaml:"debug"`
	LogUTC           bool              `json:"logUtc" yaml:"logUtc"`
	ObfuscateUrls    bool              `json:"obfuscateUrls" yaml:"obfuscateUrls"`
	RelayTimeout     string            `json:"relayTimeout" yaml:"relayTimeout"`
	ContentTimeout   string            `json:"contentTimeout" yaml:"contentTimeout"`
	MaxRedirects     int               `json:"maxRedirects" yaml:"maxRedirects"`
	UpstreamHeaders  map[string]string `json:"upstreamHeaders" yaml:"upstreamHeaders"`
	MappingCapacity  int               `json:"mappingCapacity" yaml:"mappingCapacity"`
	MappingTTL       string            `json:"mappingTTL" yaml:"mappingTTL"`
	DatabasePath     string            `json:"databasePath" yaml:"databasePath"`
	WorkerThreads    int               `json:"workerThreads" yaml:"workerThreads"`
	RefreshInterval  string            `json:"refreshInterval" yaml:"refreshInterval"`
	RefreshRateLimit int               `json:"refreshRateLimit" yaml:"refreshRateLimit"`
	BridgeScheme     string            `json:"bridgeScheme" yaml:"bridgeScheme"`
}

var (
	configCache *Config      // Cached configuration instance (singleton)
	configMutex sync.RWMutex // Guards configCache
)

// DefaultUpstreamHeaders returns the browser-like header set some origins
// require before they will serve a playlist.
func DefaultUpstreamHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "*/*",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	}
}

// LoadConfig loads the configuration from path or returns the cached instance.
//
// Process:
//   - Uses double-checked locking to avoid redundant reloads.
//   - Falls back to the default config if the file is missing or invalid.
//   - Runs validation to ensure safe defaults.
//
// Returns:
//   - *Config: fully validated configuration object
func LoadConfig(path string) *Config {
	configMutex.RLock()
	if configCache != nil {
		defer configMutex.RUnlock()
		return configCache
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check under write lock
	if configCache != nil {
		return configCache
	}

	config, err := loadFromFile(path)
	if err != nil {
		log.Printf("Failed to load config from %s: %v", path, err)
		log.Printf("Falling back to default configuration...")
		config = GetDefaultConfig()
	}

	validateAndSetDefaults(config)
	configCache = config

	return config
}

// PathFromEnv returns the config path named by TVRELAY_CONFIG, or the default.
func PathFromEnv() string {
	if p := os.Getenv("TVRELAY_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// loadFromFile reads and parses the configuration from a JSON or YAML file,
// picking the decoder from the file extension.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configFile ConfigFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return convertFromFile(&configFile)
}

// convertFromFile converts a ConfigFile to Config, parsing duration strings.
// Empty duration strings are left at zero and filled in by validateAndSetDefaults.
func convertFromFile(cf *ConfigFile) (*Config, error) {
	config := &Config{
		ListenAddr:       cf.ListenAddr,
		RelayOrigin:      cf.RelayOrigin,
		LogLevel:         cf.LogLevel,
		Debug:            cf.Debug,
		LogUTC:           cf.LogUTC,
		ObfuscateUrls:    cf.ObfuscateUrls,
		MaxRedirects:     cf.MaxRedirects,
		UpstreamHeaders:  cf.UpstreamHeaders,
		MappingCapacity:  cf.MappingCapacity,
		DatabasePath:     cf.DatabasePath,
		WorkerThreads:    cf.WorkerThreads,
		RefreshRateLimit: cf.RefreshRateLimit,
		BridgeScheme:     cf.BridgeScheme,
	}

	var err error
	if config.RelayTimeout, err = parseDuration(cf.RelayTimeout); err != nil {
		return nil, fmt.Errorf("invalid relayTimeout: %w", err)
	}
	if config.ContentTimeout, err = parseDuration(cf.ContentTimeout); err != nil {
		return nil, fmt.Errorf("invalid contentTimeout: %w", err)
	}
	if config.MappingTTL, err = parseDuration(cf.MappingTTL); err != nil {
		return nil, fmt.Errorf("invalid mappingTTL: %w", err)
	}
	if config.RefreshInterval, err = parseDuration(cf.RefreshInterval); err != nil {
		return nil, fmt.Errorf("invalid refreshInterval: %w", err)
	}

	return config, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// GetDefaultConfig returns a baseline configuration used when no file is present.
func GetDefaultConfig() *Config {
	return &Config{
		ListenAddr:       "127.0.0.1:18080",
		RelayOrigin:      "http://127.0.0.1:18080",
		LogLevel:         "INFO",
		Debug:            false,
		ObfuscateUrls:    false,
		RelayTimeout:     30 * time.Second,
		ContentTimeout:   0,
		MaxRedirects:     10,
		UpstreamHeaders:  DefaultUpstreamHeaders(),
		MappingCapacity:  10000,
		MappingTTL:       6 * time.Hour,
		DatabasePath:     "/settings/tvrelay.db",
		WorkerThreads:    4,
		RefreshInterval:  0,
		RefreshRateLimit: 2,
		BridgeScheme:     "stream",
	}
}

// validateAndSetDefaults ensures all config values are valid,
// filling in defaults for missing or invalid ones.
func validateAndSetDefaults(config *Config) {
	defaults := GetDefaultConfig()

	if config.ListenAddr == "" {
		config.ListenAddr = defaults.ListenAddr
	}
	if config.RelayOrigin == "" {
		config.RelayOrigin = "http://" + config.ListenAddr
	}
	config.RelayOrigin = strings.TrimRight(config.RelayOrigin, "/")
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.Debug {
		config.LogLevel = "DEBUG"
	}
	if config.RelayTimeout <= 0 {
		config.RelayTimeout = defaults.RelayTimeout
	}
	if config.ContentTimeout < 0 {
		config.ContentTimeout = 0
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = defaults.MaxRedirects
	}
	if len(config.UpstreamHeaders) == 0 {
		config.UpstreamHeaders = defaults.UpstreamHeaders
	}
	if config.MappingCapacity <= 0 {
		config.MappingCapacity = defaults.MappingCapacity
	}
	if config.MappingTTL <= 0 {
		config.MappingTTL = defaults.MappingTTL
	}
	if config.DatabasePath == "" {
		config.DatabasePath = defaults.DatabasePath
	}
	if config.WorkerThreads <= 0 {
		config.WorkerThreads = defaults.WorkerThreads
	}
	if config.RefreshInterval < 0 {
		config.RefreshInterval = 0
	}
	if config.RefreshRateLimit <= 0 {
		config.RefreshRateLimit = defaults.RefreshRateLimit
	}
	if config.BridgeScheme == "" {
		config.BridgeScheme = defaults.BridgeScheme
	}
}

// ClearConfigCache resets the cached configuration.
// Forces a reload on the next LoadConfig() call.
func ClearConfigCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	configCache = nil
}
