// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SearchConfig holds the tunables of the search and suggestion pipeline.
type SearchConfig struct {
	Index              string `mapstructure:"index"`
	SearchTimeout      int    `mapstructure:"search_timeout"`      // milliseconds
	SuggestionTimeout  int    `mapstructure:"suggestion_timeout"`  // milliseconds
	MaxRetries         int    `mapstructure:"max_retries"`
	MaxSuggestions     int    `mapstructure:"max_suggestions"`
	DefaultLocation    string `mapstructure:"default_location"`
	SuggestionCacheTTL int    `mapstructure:"suggestion_cache_ttl"` // seconds, 0 disables caching
}

// AuthConfig holds settings for the session/identity provider boundary.
type AuthConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	IntrospectURL string `mapstructure:"introspect_url"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
