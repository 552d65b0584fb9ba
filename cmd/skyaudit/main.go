package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"skyaudit/app"
	"skyaudit/internal"
	"skyaudit/internal/config"
	"skyaudit/internal/errors"
	"skyaudit/internal/report"
	"skyaudit/internal/testkit"
)

type globalFlags struct {
	configPath string
	logLevel   string
	catalog    string
	blackHoles string
	vectors    string
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "skyaudit",
		Short:         "Fit anisotropy and distance-residual models to supernova catalogs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default ./skyaudit.yaml when present)")
	pf.StringVar(&g.logLevel, "log-level", "", "error|warn|info|debug|trace (overrides config)")
	pf.StringVar(&g.catalog, "catalog", "", "Supernova catalog path (overrides config)")
	pf.StringVar(&g.blackHoles, "black-holes", "", "M-sigma table path (overrides config)")
	pf.StringVar(&g.vectors, "vectors", "", "Reference vector table path (overrides config)")

	rootCmd.AddCommand(
		newAuditCmd(g),
		newFitCmd(g),
		newSimulateCmd(g),
		newConfigCmd(g),
	)
	return rootCmd
}

// load applies flag overrides on top of file and environment configuration.
func (g *globalFlags) load() (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.catalog != "" {
		cfg.Paths.Catalog = g.catalog
	}
	if g.blackHoles != "" {
		cfg.Paths.BlackHoles = g.blackHoles
	}
	if g.vectors != "" {
		cfg.Paths.Vectors = g.vectors
	}
	return cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)), nil
}

func newAuditCmd(g *globalFlags) *cobra.Command {
	var asHTML, strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the full audit and print the report",
		Long: `Load the catalog, compute distance-modulus residuals, fit the anisotropy and
radial excess models, then check bulk-flow anti-alignment, the a0 consistency
and the black-hole mass correction.

Catalog and fit failures exit non-zero. Secondary sections report their own
errors and the run continues.

Example: skyaudit audit --catalog PantheonPlusSH0ES.dat --vectors CF4_Bulk_Flow_Vector.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, err := app.NewAuditService(cfg, logger)
			if err != nil {
				return err
			}
			rep, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := report.Write(cmd.OutOrStdout(), rep, asHTML); err != nil {
				return errors.Wrap(err, "failed to write report")
			}
			if strict && rep.Failed() {
				return errors.New(errors.CodeInternalError, "one or more hypotheses were rejected or could not be evaluated")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the report as HTML")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any verdict is rejected or errored")
	return cmd
}

func newFitCmd(g *globalFlags) *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the anisotropy and radial excess models only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			svc, err := app.NewAuditService(cfg, logger)
			if err != nil {
				return err
			}
			rep, err := svc.RunFits(cmd.Context())
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), rep, asHTML)
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the report as HTML")
	return cmd
}

func newSimulateCmd(g *globalFlags) *cobra.Command {
	gen := testkit.DefaultCatalogConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write a seeded synthetic catalog to stdout",
		Long: `Write a synthetic whitespace-delimited catalog with a known radial excess
γ·z^n and an optional anisotropy 1 + A·P2(cos θ) + B·sin(l − φ0).

Example: skyaudit simulate --rows 200 --dipole 0.1 --scatter 0.05 > synthetic.dat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("h0") {
				gen.H0 = cfg.Constants.H0
			}
			cat, err := testkit.NewCatalogGenerator(gen).Generate()
			if err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, err)
			}
			return testkit.WriteCatalog(cmd.OutOrStdout(), cat)
		},
	}

	f := cmd.Flags()
	f.IntVar(&gen.Rows, "rows", gen.Rows, "Number of rows")
	f.Float64Var(&gen.ZMin, "z-min", gen.ZMin, "Smallest base redshift")
	f.Float64Var(&gen.ZMax, "z-max", gen.ZMax, "Largest base redshift")
	f.Float64Var(&gen.H0, "h0", gen.H0, "Hubble constant in km/s/Mpc (default from config)")
	f.Float64Var(&gen.Gamma, "gamma", gen.Gamma, "Radial excess amplitude γ")
	f.Float64Var(&gen.Exponent, "n", gen.Exponent, "Radial excess exponent n")
	f.Float64Var(&gen.Quadrupole, "quadrupole", gen.Quadrupole, "Anisotropy quadrupole A")
	f.Float64Var(&gen.Dipole, "dipole", gen.Dipole, "Anisotropy dipole B")
	f.Float64Var(&gen.Phase, "phase", gen.Phase, "Dipole phase φ0 in degrees")
	f.Float64Var(&gen.Scatter, "scatter", gen.Scatter, "Gaussian noise on μ in mag")
	f.Float64Var(&gen.ModErr, "mod-err", gen.ModErr, "Reported μ uncertainty in mag")
	f.Int64Var(&gen.Seed, "seed", gen.Seed, "Random seed for deterministic output")
	return cmd
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if !defaults {
				var err error
				if cfg, _, err = g.load(); err != nil {
					return err
				}
			}
			out, err := cfg.YAML()
			if err != nil {
				return errors.Wrap(err, "failed to encode configuration")
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print built-in defaults, ignoring file and environment")
	return cmd
}
