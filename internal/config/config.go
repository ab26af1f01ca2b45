package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Existing-content policies for pending candidates whose name already has a
// content record.
const (
	PolicyMarkDone     = "mark_done"
	PolicyLeavePending = "leave_pending"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
	SitesFile      string `mapstructure:"sites_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	Subjects   []string `mapstructure:"subjects"`
	Qualifiers []string `mapstructure:"qualifiers"`

	SearchEndpoint string `mapstructure:"search_endpoint"`
	SearchAPIKey   string `mapstructure:"search_api_key" json:"-"`
	SearchMarket   string `mapstructure:"search_market"`
	SearchCount    int    `mapstructure:"search_count"`

	UserAgent             string        `mapstructure:"user_agent"`
	FetchTimeoutSeconds   int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout          time.Duration `mapstructure:"-"`
	ScrapeDelayMs         int64         `mapstructure:"scrape_delay_ms"`
	ScrapeDelay           time.Duration `mapstructure:"-"`
	ProgressEvery         int           `mapstructure:"progress_every"`
	ExistingContentPolicy string        `mapstructure:"existing_content_policy"`

	StorageType   string `mapstructure:"storage_type"`
	BBoltPath     string `mapstructure:"bbolt_path"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri" json:"-"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

var defaultSubjects = []string{
	"bernie sanders", "amy klobuchar", "joe biden", "michael bloomberg",
	"pete buttigieg", "tom steyer", "elizabeth warren",
}

var defaultQualifiers = []string{
	"", "campaign", "iowa", "new hampshire", "December", "January", "February",
}

// Load reads configuration from environment variables and an optional config
// file. An empty path skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "newsscrape")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("sites_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("subjects", defaultSubjects)
	v.SetDefault("qualifiers", defaultQualifiers)
	v.SetDefault("search_endpoint", "https://api.bing.microsoft.com/v7.0/news/search")
	v.SetDefault("search_api_key", "")
	v.SetDefault("search_market", "en-us")
	v.SetDefault("search_count", 100)
	v.SetDefault("user_agent", "newsscrape/1.0")
	v.SetDefault("fetch_timeout_seconds", 4)
	v.SetDefault("scrape_delay_ms", 250)
	v.SetDefault("progress_every", 100)
	v.SetDefault("existing_content_policy", PolicyMarkDone)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/news.db")
	v.SetDefault("sqlite_path", "./data/news.sqlite")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "news_search")

	// Older deployments export the key as AzureAPIKey.
	if err := v.BindEnv("search_api_key", "SEARCH_API_KEY", "AzureAPIKey"); err != nil {
		return nil, fmt.Errorf("bind search_api_key: %w", err)
	}
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Subjects = trimList(c.Subjects, false)
	c.Qualifiers = trimList(c.Qualifiers, true)
	if len(c.Qualifiers) == 0 {
		c.Qualifiers = []string{""}
	}

	if c.SearchCount <= 0 {
		return errors.New("invalid search_count (must be positive)")
	}
	if c.FetchTimeoutSeconds <= 0 {
		return errors.New("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	c.FetchTimeout = time.Duration(c.FetchTimeoutSeconds) * time.Second

	if c.ScrapeDelayMs < 0 {
		return errors.New("invalid scrape_delay_ms (must not be negative)")
	}
	c.ScrapeDelay = time.Duration(c.ScrapeDelayMs) * time.Millisecond

	if c.ProgressEvery <= 0 {
		return errors.New("invalid progress_every (must be positive)")
	}

	c.ExistingContentPolicy = strings.ToLower(strings.TrimSpace(c.ExistingContentPolicy))
	switch c.ExistingContentPolicy {
	case PolicyMarkDone, PolicyLeavePending:
	default:
		return fmt.Errorf("invalid existing_content_policy %q", c.ExistingContentPolicy)
	}

	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))
	return nil
}

// trimList trims entries and drops duplicates. Empty entries survive only when
// keepEmpty is set, since an empty qualifier means "subject alone".
func trimList(in []string, keepEmpty bool) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" && !keepEmpty {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
