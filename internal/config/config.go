package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Collection Collection `yaml:"collection"`
	Ranking    Ranking    `yaml:"ranking"`
	Report     Report     `yaml:"report"`
	Analyzer   Analyzer   `yaml:"analyzer"`
	Email      Email      `yaml:"email"`
	Server     Server     `yaml:"server"`
	Output     Output     `yaml:"output"`
	Logging    Logging    `yaml:"logging"`
}

type Collection struct {
	Feeds []Feed    `yaml:"feeds"`
	API   APIConfig `yaml:"api"`
}

// Feed is an RSS/Atom mirror of one curated account.
type Feed struct {
	URL     string `yaml:"url"`
	Account string `yaml:"account"`
}

// APIConfig points at a Twitter-API-v2-compatible timeline endpoint.
type APIConfig struct {
	Enabled  bool     `yaml:"enabled"`
	BaseURL  string   `yaml:"base_url"`
	TokenEnv string   `yaml:"token_env"`
	Accounts []string `yaml:"accounts"`
}

// Ranking configures the scoring pipeline. Weights is keyed by
// likes/retweets/replies/quotes/recency/user_influence/keywords_match;
// missing keys fall back to the ranker's built-in defaults.
type Ranking struct {
	Weights                map[string]float64 `yaml:"weights"`
	AutoLearning           bool               `yaml:"auto_learning"`
	LearningRate           float64            `yaml:"learning_rate"`
	MinEngagementThreshold float64            `yaml:"min_engagement_threshold"`
	Keywords               []string           `yaml:"keywords"`
}

type Report struct {
	DailyPostCount int    `yaml:"daily_post_count"`
	Title          string `yaml:"title"`
	ExpandLinks    bool   `yaml:"expand_links"`
}

type Analyzer struct {
	Enabled     bool    `yaml:"enabled"`
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	OllamaURL   string  `yaml:"ollama_url"`
	OllamaModel string  `yaml:"ollama_model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type Email struct {
	Enabled     bool     `yaml:"enabled"`
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Username    string   `yaml:"username"`
	PasswordEnv string   `yaml:"password_env"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to"`
	SendTime    string   `yaml:"send_time"` // HH:MM local time for scheduled runs
}

type Server struct {
	Port int `yaml:"port"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for xdigest.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "xdigest")
}

// DataDir returns the XDG data directory for xdigest.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "xdigest")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/xdigest/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'xdigest init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Collection: Collection{
			API: APIConfig{
				BaseURL:  "https://api.twitter.com/2",
				TokenEnv: "X_API_TOKEN",
			},
		},
		Ranking: Ranking{
			Weights: map[string]float64{
				"likes":          0.3,
				"retweets":       0.4,
				"replies":        0.1,
				"quotes":         0.2,
				"recency":        0.5,
				"user_influence": 0.6,
				"keywords_match": 0.7,
			},
			LearningRate:           0.01,
			MinEngagementThreshold: 10,
		},
		Report: Report{
			DailyPostCount: 10,
			Title:          "AI Daily Digest",
		},
		Analyzer: Analyzer{
			Enabled:     true,
			Provider:    "deepseek",
			Model:       "deepseek-chat",
			APIKeyEnv:   "DEEPSEEK_API_KEY",
			BaseURL:     "https://api.deepseek.com/v1",
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "qwen2.5:7b",
			MaxTokens:   8000,
			Temperature: 0.7,
		},
		Email: Email{
			Port:        587,
			PasswordEnv: "SMTP_PASSWORD",
			SendTime:    "08:00",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
