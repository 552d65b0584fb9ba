package config

import (
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"skyaudit/adapters/catalog"
	"skyaudit/domain/verdict"
	"skyaudit/internal/errors"
	"skyaudit/internal/fit"
)

// EnvPrefix prefixes every environment override, e.g. SKYAUDIT_CONSTANTS_H0.
const EnvPrefix = "SKYAUDIT"

// Config represents the complete application configuration
type Config struct {
	Paths      PathConfig         `yaml:"paths" mapstructure:"paths"`
	Columns    ColumnConfig       `yaml:"columns" mapstructure:"columns"`
	Constants  Constants          `yaml:"constants" mapstructure:"constants"`
	Fit        fit.Settings       `yaml:"fit" mapstructure:"fit"`
	Thresholds verdict.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	LogLevel   string             `yaml:"log_level" mapstructure:"log_level"`
}

// PathConfig holds the input tables. Only the catalog is required.
type PathConfig struct {
	Catalog    string `yaml:"catalog" mapstructure:"catalog"`
	BlackHoles string `yaml:"black_holes" mapstructure:"black_holes"`
	Vectors    string `yaml:"vectors" mapstructure:"vectors"`
}

// ColumnConfig maps table headers to fields.
type ColumnConfig struct {
	Catalog       catalog.CatalogColumns   `yaml:"catalog" mapstructure:"catalog"`
	BlackHoles    catalog.BlackHoleColumns `yaml:"black_holes" mapstructure:"black_holes"`
	Vectors       catalog.VectorColumns    `yaml:"vectors" mapstructure:"vectors"`
	BulkFlowLabel string                   `yaml:"bulk_flow_label" mapstructure:"bulk_flow_label"`
}

// Constants are the theoretical inputs of the audit. They are configured,
// never derived from the data, and the report labels them that way.
type Constants struct {
	H0                  float64 `yaml:"h0" mapstructure:"h0"`                                       // km/s/Mpc
	MassCorrection      float64 `yaml:"mass_correction_dex" mapstructure:"mass_correction_dex"`     // added to inferred log masses
	MassTolerance       float64 `yaml:"mass_tolerance_dex" mapstructure:"mass_tolerance_dex"`       // audit case tolerance
	A0Predicted         float64 `yaml:"a0_predicted" mapstructure:"a0_predicted"`                   // m/s²
	A0Observed          float64 `yaml:"a0_observed" mapstructure:"a0_observed"`                     // m/s²
	A0MaxDiscrepancyPct float64 `yaml:"a0_max_discrepancy_pct" mapstructure:"a0_max_discrepancy_pct"`
	AlignmentTolerance  float64 `yaml:"alignment_tolerance_deg" mapstructure:"alignment_tolerance_deg"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathConfig{
			Catalog:    "PantheonPlusSH0ES.dat",
			BlackHoles: "Msigma_T4_clean.csv",
			Vectors:    "CF4_Bulk_Flow_Vector.csv",
		},
		Columns: ColumnConfig{
			Catalog:       catalog.DefaultCatalogColumns(),
			BlackHoles:    catalog.DefaultBlackHoleColumns(),
			Vectors:       catalog.DefaultVectorColumns(),
			BulkFlowLabel: "Fluxo_Bulk_GA",
		},
		Constants: Constants{
			H0:                  70,
			MassCorrection:      0.31,
			MassTolerance:       0.01,
			A0Predicted:         1.2001e-10,
			A0Observed:          1.21e-10,
			A0MaxDiscrepancyPct: 0.1,
			AlignmentTolerance:  15,
		},
		Fit:        fit.DefaultSettings(),
		Thresholds: verdict.DefaultThresholds(),
		LogLevel:   "info",
	}
}

// LoadDotEnv loads a .env file from the working directory when present.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && stderrors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load layers defaults, an optional YAML file and SKYAUDIT_* environment
// variables. With an empty path, skyaudit.yaml in the working directory is
// used if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return nil, errors.Wrap(err, "failed to register configuration defaults")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("skyaudit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("read config: %w", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("decode config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

// setDefaults registers every leaf of the default config so environment
// variables can override keys that no file mentions.
func setDefaults(v *viper.Viper, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return err
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, node map[string]interface{}) {
	for k, val := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := val.(map[string]interface{}); ok {
			walkDefaults(v, key, child)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Validate checks ranges the pipeline depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		return errors.ConfigInvalid("catalog path is required")
	}
	cols := c.Columns.Catalog
	if cols.RA == "" || cols.Dec == "" || cols.Modulus == "" || cols.ModErr == "" || len(cols.Redshift) == 0 {
		return errors.ConfigInvalid("catalog column names must not be empty")
	}
	if err := distinct("catalog", append([]string{cols.RA, cols.Dec, cols.Modulus, cols.ModErr}, cols.Redshift...)...); err != nil {
		return err
	}
	bh := c.Columns.BlackHoles
	if err := distinct("black hole", bh.ID, bh.Inferred, bh.Observed); err != nil {
		return err
	}
	vec := c.Columns.Vectors
	if err := distinct("vector", vec.Label, vec.L, vec.B); err != nil {
		return err
	}
	k := c.Constants
	if !positive(k.H0) {
		return errors.ConfigInvalid(fmt.Sprintf("H0 must be positive, got %g", k.H0))
	}
	if !positive(k.AlignmentTolerance) || k.AlignmentTolerance > 180 {
		return errors.ConfigInvalid(fmt.Sprintf("alignment tolerance must be in (0, 180], got %g", k.AlignmentTolerance))
	}
	if !positive(k.MassTolerance) {
		return errors.ConfigInvalid(fmt.Sprintf("mass tolerance must be positive, got %g", k.MassTolerance))
	}
	if !positive(k.A0Observed) {
		return errors.ConfigInvalid(fmt.Sprintf("observed a0 must be positive, got %g", k.A0Observed))
	}
	if !positive(k.A0MaxDiscrepancyPct) {
		return errors.ConfigInvalid(fmt.Sprintf("a0 discrepancy limit must be positive, got %g", k.A0MaxDiscrepancyPct))
	}
	if math.IsNaN(k.MassCorrection) || math.IsInf(k.MassCorrection, 0) {
		return errors.ConfigInvalid("mass correction must be finite")
	}
	if c.Fit.MaxIterations <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("fit.max_iterations must be positive, got %d", c.Fit.MaxIterations))
	}
	if err := c.Thresholds.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

// YAML renders the configuration in the format Load reads.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}

// distinct rejects a column name configured twice within one table. Empty
// names are left to the loaders, which treat them as absent.
func distinct(table string, names ...string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if seen[n] {
			return errors.ConfigInvalid(fmt.Sprintf("%s column %q is configured more than once", table, n))
		}
		seen[n] = true
	}
	return nil
}
