package scanner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config controls what the scanner walks, extracts, and where it submits.
type Config struct {
	ServerURL       string   `mapstructure:"server_url"`
	IncludePatterns []string `mapstructure:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
	Extensions      []string `mapstructure:"extensions"`
	IgnoreDirs      []string `mapstructure:"ignore_dirs"`
	SearchThreshold float64  `mapstructure:"search_threshold"`
	PairThreshold   float64  `mapstructure:"pair_threshold"`
	Limit           int      `mapstructure:"limit"`
}

// Signature patterns for the common brace languages. Each pattern captures
// the element name in its first group.
var defaultIncludePatterns = []string{
	`function\s+(\w+)\s*\(`,
	`func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`,
	`(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\]]+\s+(\w+)\s*\(`,
	`(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?\([^)]*\)\s*=>\s*\{`,
}

var defaultExcludePatterns = []string{
	`\b(?:if|for|while|switch|catch|return)\b\s*\(`,
}

// LoadConfig builds the scanner configuration. Precedence, lowest to
// highest: built-in defaults, a codeecho config file in dir or the current
// directory, then CODEECHO_* environment variables. Flag overrides are
// applied by the caller on top of the result.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server_url", "http://localhost:3001")
	v.SetDefault("include_patterns", defaultIncludePatterns)
	v.SetDefault("exclude_patterns", defaultExcludePatterns)
	v.SetDefault("extensions", []string{".go", ".ts", ".tsx", ".js", ".jsx", ".java", ".c", ".cpp", ".cs"})
	v.SetDefault("ignore_dirs", []string{".git", "node_modules", "vendor", "dist", "build"})
	v.SetDefault("search_threshold", 0.5)
	v.SetDefault("pair_threshold", 0.8)
	v.SetDefault("limit", 10)

	v.SetConfigName("codeecho")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("CODEECHO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url must not be empty")
	}
	if len(c.IncludePatterns) == 0 {
		return errors.New("include_patterns must not be empty")
	}
	if c.SearchThreshold < 0 || c.SearchThreshold > 1 {
		return fmt.Errorf("search_threshold must be between 0 and 1, got %v", c.SearchThreshold)
	}
	if c.PairThreshold < 0 || c.PairThreshold > 1 {
		return fmt.Errorf("pair_threshold must be between 0 and 1, got %v", c.PairThreshold)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	return nil
}
