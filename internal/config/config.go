// Package config loads and persists the project configuration stored in
// .satdmap/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigDirName is the per-project directory holding configuration and
// analysis state.
const ConfigDirName = ".satdmap"

// Config represents the complete satdmap configuration (v1 schema)
type Config struct {
	Version     int    `json:"version" mapstructure:"version"`
	ProjectRoot string `json:"projectRoot" mapstructure:"projectRoot"`

	Detect    DetectConfig    `json:"detect" mapstructure:"detect"`
	Extract   ExtractConfig   `json:"extract" mapstructure:"extract"`
	Chains    ChainsConfig    `json:"chains" mapstructure:"chains"`
	Scoring   ScoringConfig   `json:"scoring" mapstructure:"scoring"`
	Modules   ModulesConfig   `json:"modules" mapstructure:"modules"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// DetectConfig controls SATD comment detection.
type DetectConfig struct {
	RulesetPath      string   `json:"rulesetPath" mapstructure:"rulesetPath"`
	Extensions       []string `json:"extensions" mapstructure:"extensions"`
	Ignore           []string `json:"ignore" mapstructure:"ignore"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	ImplicitMarkers  bool     `json:"implicitMarkers" mapstructure:"implicitMarkers"`
}

// ExtractConfig controls relationship extraction.
type ExtractConfig struct {
	Backend       string `json:"backend" mapstructure:"backend"`
	ScipIndexPath string `json:"scipIndexPath" mapstructure:"scipIndexPath"`
	SyntheticSeed int64  `json:"syntheticSeed" mapstructure:"syntheticSeed"`
}

// ChainsConfig bounds chain enumeration.
type ChainsConfig struct {
	MaxHops  int `json:"maxHops" mapstructure:"maxHops"`
	MaxPaths int `json:"maxPaths" mapstructure:"maxPaths"`
}

// ScoringConfig carries the impact score weights and tier thresholds.
type ScoringConfig struct {
	SeverityWeight    float64 `json:"severityWeight" mapstructure:"severityWeight"`
	OutgoingWeight    float64 `json:"outgoingWeight" mapstructure:"outgoingWeight"`
	IncomingWeight    float64 `json:"incomingWeight" mapstructure:"incomingWeight"`
	ChainLengthWeight float64 `json:"chainLengthWeight" mapstructure:"chainLengthWeight"`
	TopThreshold      float64 `json:"topThreshold" mapstructure:"topThreshold"`
	MidThreshold      float64 `json:"midThreshold" mapstructure:"midThreshold"`
	NormalizeCeiling  float64 `json:"normalizeCeiling" mapstructure:"normalizeCeiling"`
}

// ModulesConfig controls how files are grouped into modules.
type ModulesConfig struct {
	Detection string   `json:"detection" mapstructure:"detection"`
	Roots     []string `json:"roots" mapstructure:"roots"`
}

// StorageConfig controls the run history database.
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:     1,
		ProjectRoot: ".",
		Detect: DetectConfig{
			RulesetPath:      "",
			Extensions:       []string{".go", ".py", ".js", ".ts", ".java", ".rb", ".c", ".cpp", ".h"},
			Ignore:           []string{"node_modules", "vendor", "build", ".git"},
			MaxFileSizeBytes: 1000000,
			ImplicitMarkers:  true,
		},
		Extract: ExtractConfig{
			Backend:       "scip",
			ScipIndexPath: "index.scip",
			SyntheticSeed: 42,
		},
		Chains: ChainsConfig{
			MaxHops:  5,
			MaxPaths: 100000,
		},
		Scoring: ScoringConfig{
			SeverityWeight:    0.4,
			OutgoingWeight:    0.3,
			IncomingWeight:    0.1,
			ChainLengthWeight: 0.4,
			TopThreshold:      0.7,
			MidThreshold:      0.4,
			NormalizeCeiling:  0,
		},
		Modules: ModulesConfig{
			Detection: "auto",
			Roots:     []string{},
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    filepath.Join(ConfigDirName, "runs.db"),
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .satdmap/config.json under the given
// project root, falling back to defaults when no file exists.
func LoadConfig(projectRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 1)
	v.SetDefault("projectRoot", ".")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ConfigDirName))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .satdmap/config.json, creating the
// directory if needed.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Chains.MaxHops < 1 {
		return &ConfigError{Field: "chains.maxHops", Message: "must be at least 1"}
	}
	if c.Chains.MaxPaths < 1 {
		return &ConfigError{Field: "chains.maxPaths", Message: "must be at least 1"}
	}
	if c.Scoring.TopThreshold < c.Scoring.MidThreshold {
		return &ConfigError{Field: "scoring.topThreshold", Message: "must not be below midThreshold"}
	}
	switch c.Extract.Backend {
	case "scip", "synthetic":
	default:
		return &ConfigError{Field: "extract.backend", Message: "must be \"scip\" or \"synthetic\""}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
