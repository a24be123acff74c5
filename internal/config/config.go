package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config represents the bestrev configuration.
type Config struct {
	Provider        string           `json:"provider"`
	Model           string           `json:"model"`
	SelectorModels  []string         `json:"selectorModels"`
	Focus           string           `json:"focus,omitempty"`
	CriteriaFile    string           `json:"criteriaFile,omitempty"`
	CandidateCount  int              `json:"candidateCount"`
	BestReviewCount int              `json:"bestReviewCount"`
	TopCandidates   int              `json:"topCandidates"`
	ChunkBudget     int              `json:"chunkBudget"`
	ChunkOverhead   int              `json:"chunkOverhead"`
	MinReviewLength int              `json:"minReviewLength"`
	MinRating       int              `json:"minRating"`
	MaxReviews      int              `json:"maxReviews"`
	Cache           CacheConfig      `json:"cache"`
	Store           StoreConfig      `json:"store"`
	Gate            GateConfig       `json:"gate"`
	Moderation      ModerationConfig `json:"moderation"`
}

// CacheConfig controls selector result caching.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// StoreConfig locates the review database.
type StoreConfig struct {
	Path string `json:"path,omitempty"`
}

// GateConfig tunes the confidence and summary quality gates.
type GateConfig struct {
	Threshold float64 `json:"threshold"`
	RetryCap  int     `json:"retryCap"`
}

// ModerationConfig controls review safety filtering.
type ModerationConfig struct {
	Enabled   bool     `json:"enabled"`
	Blocklist []string `json:"blocklist,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		SelectorModels:  []string{"gpt-4o-mini", "gpt-4.1-nano", "gpt-4.1-mini"},
		CandidateCount:  3,
		BestReviewCount: 3,
		TopCandidates:   10,
		ChunkBudget:     8000,
		ChunkOverhead:   500,
		MinReviewLength: 20,
		MinRating:       0,
		MaxReviews:      200,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Gate: GateConfig{
			Threshold: 0.75,
			RetryCap:  2,
		},
		Moderation: ModerationConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for bestrev.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bestrev"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "bestrev"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "bestrev"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "bestrev"), nil
	default:
		return filepath.Join(home, ".config", "bestrev"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if len(src.SelectorModels) > 0 {
		dst.SelectorModels = src.SelectorModels
	}
	if src.Focus != "" {
		dst.Focus = src.Focus
	}
	if src.CriteriaFile != "" {
		dst.CriteriaFile = src.CriteriaFile
	}
	if src.CandidateCount > 0 {
		dst.CandidateCount = src.CandidateCount
	}
	if src.BestReviewCount > 0 {
		dst.BestReviewCount = src.BestReviewCount
	}
	if src.TopCandidates > 0 {
		dst.TopCandidates = src.TopCandidates
	}
	if src.ChunkBudget > 0 {
		dst.ChunkBudget = src.ChunkBudget
	}
	if src.ChunkOverhead > 0 {
		dst.ChunkOverhead = src.ChunkOverhead
	}
	if src.MinReviewLength > 0 {
		dst.MinReviewLength = src.MinReviewLength
	}
	if src.MinRating > 0 {
		dst.MinRating = src.MinRating
	}
	if src.MaxReviews > 0 {
		dst.MaxReviews = src.MaxReviews
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.TTLSeconds > 0 {
		dst.Cache.TTLSeconds = src.Cache.TTLSeconds
	}
	dst.Cache.Enabled = src.Cache.Enabled || dst.Cache.Enabled
	if src.Store.Path != "" {
		dst.Store.Path = src.Store.Path
	}
	if src.Gate.Threshold > 0 {
		dst.Gate.Threshold = src.Gate.Threshold
	}
	if src.Gate.RetryCap > 0 {
		dst.Gate.RetryCap = src.Gate.RetryCap
	}
	if len(src.Moderation.Blocklist) > 0 {
		dst.Moderation.Blocklist = src.Moderation.Blocklist
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("BESTREV_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("BESTREV_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("BESTREV_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("BESTREV_MAX_REVIEWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxReviews = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["provider"]; ok && v != "" {
		cfg.Provider = v
	}
	if v, ok := overrides["model"]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := overrides["focus"]; ok && v != "" {
		cfg.Focus = v
	}
	if v, ok := overrides["criteriaFile"]; ok && v != "" {
		cfg.CriteriaFile = v
	}
	if v, ok := overrides["db"]; ok && v != "" {
		cfg.Store.Path = v
	}
	if v, ok := overrides["bestReviewCount"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BestReviewCount = n
		}
	}
	if v, ok := overrides["maxReviews"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxReviews = n
		}
	}
	if v, ok := overrides["minRating"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MinRating = n
		}
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "focus":
		cfg.Focus = value
	case "criteriaFile":
		cfg.CriteriaFile = value
	case "candidateCount":
		return setInt(&cfg.CandidateCount, key, value)
	case "bestReviewCount":
		return setInt(&cfg.BestReviewCount, key, value)
	case "topCandidates":
		return setInt(&cfg.TopCandidates, key, value)
	case "chunkBudget":
		return setInt(&cfg.ChunkBudget, key, value)
	case "chunkOverhead":
		return setInt(&cfg.ChunkOverhead, key, value)
	case "minReviewLength":
		return setInt(&cfg.MinReviewLength, key, value)
	case "minRating":
		return setInt(&cfg.MinRating, key, value)
	case "maxReviews":
		return setInt(&cfg.MaxReviews, key, value)
	case "store.path":
		cfg.Store.Path = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}
