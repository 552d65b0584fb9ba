package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyaudit/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 70.0, cfg.Constants.H0)
	assert.Equal(t, 0.31, cfg.Constants.MassCorrection)
	assert.Equal(t, []string{"zHD", "zCMB", "z"}, cfg.Columns.Catalog.Redshift)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
paths:
  catalog: /data/cat.dat
constants:
  h0: 73.0
fit:
  max_iterations: 200
`), 0o644))
	t.Setenv("SKYAUDIT_CONSTANTS_ALIGNMENT_TOLERANCE_DEG", "20")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/cat.dat", cfg.Paths.Catalog)
	assert.Equal(t, 73.0, cfg.Constants.H0)
	assert.Equal(t, 200, cfg.Fit.MaxIterations)
	assert.Equal(t, 20.0, cfg.Constants.AlignmentTolerance)
	// untouched keys keep their defaults
	assert.Equal(t, "Msigma_T4_clean.csv", cfg.Paths.BlackHoles)
	assert.Equal(t, 0.05, cfg.Thresholds.Alpha)
	assert.Equal(t, "m_b_corr", cfg.Columns.Catalog.Modulus)
}

func TestLoad_RoundTripsYAML(t *testing.T) {
	raw, err := Default().YAML()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "skyaudit.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("constants:\n  h0: 70\n"), 0o644))
	t.Setenv("SKYAUDIT_CONSTANTS_H0", "-5")

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), "H0 must be positive")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty catalog":      func(c *Config) { c.Paths.Catalog = "" },
		"zero tolerance":     func(c *Config) { c.Constants.AlignmentTolerance = 0 },
		"no redshift column": func(c *Config) { c.Columns.Catalog.Redshift = nil },
		"bad alpha":          func(c *Config) { c.Thresholds.Alpha = 2 },
		"no iterations":      func(c *Config) { c.Fit.MaxIterations = 0 },
		"modulus is zHD":     func(c *Config) { c.Columns.Catalog.Modulus = "zHD" },
		"ra alias twice":     func(c *Config) { c.Columns.Catalog.Redshift = []string{"zHD", "RA"} },
		"observed=inferred":  func(c *Config) { c.Columns.BlackHoles.Observed = c.Columns.BlackHoles.Inferred },
		"l equals b":         func(c *Config) { c.Columns.Vectors.B = c.Columns.Vectors.L },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		err := cfg.Validate()
		require.Error(t, err, name)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err), name)
	}
}

func TestValidate_ColumnNamesAreScopedPerTable(t *testing.T) {
	cfg := Default()
	cfg.Columns.BlackHoles.ID = cfg.Columns.Catalog.RA
	cfg.Columns.Vectors.Label = cfg.Columns.BlackHoles.ID
	cfg.Columns.BlackHoles.Observed = ""
	assert.NoError(t, cfg.Validate())

	cfg.Columns.Catalog.Dec = cfg.Columns.Catalog.RA
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `catalog column "RA" is configured more than once`)
}

