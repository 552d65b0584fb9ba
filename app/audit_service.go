package app

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	catalogio "skyaudit/adapters/catalog"
	"skyaudit/domain/catalog"
	"skyaudit/domain/core"
	"skyaudit/domain/cosmology"
	"skyaudit/domain/sky"
	"skyaudit/domain/verdict"
	"skyaudit/internal"
	"skyaudit/internal/config"
	"skyaudit/internal/errors"
	"skyaudit/internal/fit"
	"skyaudit/internal/significance"
)

// AuditService runs the catalog audit: load, residuals, fits, significance
// and the secondary consistency checks.
type AuditService struct {
	cfg    *config.Config
	loader *catalogio.Loader
	solver *fit.Solver
	logger *internal.Logger
}

// NewAuditService creates an audit service from a validated configuration.
func NewAuditService(cfg *config.Config, logger *internal.Logger) (*AuditService, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AuditService{
		cfg:    cfg,
		loader: catalogio.NewLoader(logger),
		solver: fit.NewSolver(cfg.Fit),
		logger: logger,
	}, nil
}

// Run loads the configured catalog and performs the full audit. Catalog and
// fit failures are returned; secondary sections record their own errors.
func (s *AuditService) Run(ctx context.Context) (*AuditReport, error) {
	cat, err := s.loader.LoadCatalog(s.cfg.Paths.Catalog, s.cfg.Columns.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}
	report, err := s.RunCatalog(ctx, cat)
	if err != nil {
		return nil, err
	}
	s.runSecondary(report)
	return report, nil
}

// RunFits loads the catalog and performs only the two model fits.
func (s *AuditService) RunFits(ctx context.Context) (*AuditReport, error) {
	cat, err := s.loader.LoadCatalog(s.cfg.Paths.Catalog, s.cfg.Columns.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}
	return s.RunCatalog(ctx, cat)
}

// RunCatalog fits an already loaded catalog.
func (s *AuditService) RunCatalog(ctx context.Context, cat *catalog.Catalog) (*AuditReport, error) {
	start := time.Now()
	report := &AuditReport{
		RunID:     core.NewRunID(),
		StartedAt: core.Now(),
		Constants: s.cfg.Constants,
	}
	s.logger.Info("run %s: auditing %d rows from %s", report.RunID, cat.Len(), cat.Source)

	universe, err := cosmology.NewEmptyUniverse(s.cfg.Constants.H0)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	z := cat.Redshifts()
	residuals, err := universe.Residuals(z, cat.Moduli())
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute distance residuals")
	}

	report.Catalog = CatalogSection{Source: cat.Source, Rows: cat.Len(), Dropped: cat.Dropped}
	if report.Catalog.Redshift, err = catalogio.Describe(z); err != nil {
		return nil, errors.Wrap(err, "failed to summarise catalog")
	}
	if report.Catalog.Residual, err = catalogio.Describe(residuals); err != nil {
		return nil, errors.Wrap(err, "failed to summarise residuals")
	}

	l, b := cat.Galactic()
	anisoData, err := fit.AnisotropyData(l, b, z)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare anisotropy fit")
	}
	radialData, err := fit.RadialData(z, residuals, cat.ModulusErrors())
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare radial excess fit")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sec, err := s.fitModel(gctx, fit.AnisotropyModel(), anisoData, fit.ParamQuadrupole, fit.ParamDipole)
		report.Anisotropy = sec
		return err
	})
	g.Go(func() error {
		sec, err := s.fitModel(gctx, fit.RadialExcessModel(), radialData, fit.ParamGamma, fit.ParamExponent)
		report.Radial = sec
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	th := s.cfg.Thresholds
	names := map[string]string{
		fit.ParamQuadrupole: HypothesisQuadrupole,
		fit.ParamDipole:     HypothesisDipole,
		fit.ParamGamma:      HypothesisGamma,
		fit.ParamExponent:   HypothesisExponent,
	}
	for _, sec := range []*FitSection{report.Anisotropy, report.Radial} {
		for _, sig := range sec.Significance {
			report.Verdicts = append(report.Verdicts, verdict.FromPValue(names[sig.Parameter], sig.T, sig.PValue, th))
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (s *AuditService) fitModel(ctx context.Context, m fit.Model, d fit.Data, params ...string) (*FitSection, error) {
	res, err := s.solver.Fit(ctx, m, d)
	if err != nil {
		return nil, errors.Wrapf(err, "%s fit failed", m.Name)
	}
	s.logger.Debug("%s: %d iterations, chi2=%.6g, dof=%d", m.Name, res.Iterations, res.ChiSquare, res.DOF)

	sig, err := significance.ForFit(res, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s significance failed", m.Name)
	}
	return &FitSection{Result: res, Significance: sig}, nil
}

// runSecondary adds the alignment, a0 and black-hole sections. Their
// failures are recorded and never abort the run.
func (s *AuditService) runSecondary(report *AuditReport) {
	report.Alignment = s.checkAlignment(report.Anisotropy)
	switch {
	case report.Alignment.Err != nil:
		s.logger.Warn("alignment check: %v", report.Alignment.Err)
		report.Verdicts = append(report.Verdicts, verdict.FromError(HypothesisAlignment, report.Alignment.Err))
	case !report.Alignment.Skipped:
		report.Verdicts = append(report.Verdicts, verdict.FromTolerance(HypothesisAlignment,
			report.Alignment.Check.Deviation, report.Alignment.Check.Tolerance, "°"))
	}

	report.A0 = s.checkA0()
	report.Verdicts = append(report.Verdicts, verdict.FromTolerance(HypothesisA0,
		report.A0.DiscrepancyPct, report.A0.LimitPct, "%"))

	report.BlackHoles = s.checkBlackHoles()
	switch bh := report.BlackHoles; {
	case bh.Err != nil:
		s.logger.Warn("black hole audit: %v", bh.Err)
		report.Verdicts = append(report.Verdicts, verdict.FromError(HypothesisBlackHoles, bh.Err))
	case bh.Skipped:
	case len(bh.Cases) == 0:
		s.logger.Info("black hole audit: no observed masses in %s, nothing to judge", bh.Source)
	default:
		worst := 0.0
		for _, c := range bh.Cases {
			worst = math.Max(worst, c.Difference)
		}
		report.Verdicts = append(report.Verdicts, verdict.FromTolerance(HypothesisBlackHoles, worst, bh.Tolerance, " dex"))
	}
}

func (s *AuditService) checkAlignment(aniso *FitSection) *AlignmentSection {
	sec := &AlignmentSection{}
	if s.cfg.Paths.Vectors == "" {
		sec.Skipped = true
		return sec
	}
	vectors, err := s.loader.LoadReferenceVectors(s.cfg.Paths.Vectors, s.cfg.Columns.Vectors)
	if err != nil {
		sec.Err = errors.Wrap(err, "failed to load reference vectors")
		return sec
	}
	ref, err := catalogio.FindVector(vectors, s.cfg.Columns.BulkFlowLabel)
	if err != nil {
		sec.Err = err
		return sec
	}
	sec.Reference = ref

	amplitude, _, _ := aniso.Result.Param(fit.ParamDipole)
	phase, _, _ := aniso.Result.Param(fit.ParamPhase)
	sec.Apex = fit.DipoleApex(amplitude, phase)

	check, err := sky.CheckAntiAlignment(sec.Apex, sky.Galactic{L: ref.L, B: ref.B}, s.cfg.Constants.AlignmentTolerance)
	if err != nil {
		sec.Err = errors.Wrap(err, "failed to compare directions")
		return sec
	}
	sec.Check = check
	return sec
}

func (s *AuditService) checkA0() *A0Section {
	k := s.cfg.Constants
	return &A0Section{
		Predicted:      k.A0Predicted,
		Observed:       k.A0Observed,
		DiscrepancyPct: math.Abs(k.A0Predicted-k.A0Observed) / k.A0Observed * 100,
		LimitPct:       k.A0MaxDiscrepancyPct,
	}
}

func (s *AuditService) checkBlackHoles() *BlackHoleSection {
	k := s.cfg.Constants
	sec := &BlackHoleSection{
		Source:     s.cfg.Paths.BlackHoles,
		Correction: k.MassCorrection,
		Tolerance:  k.MassTolerance,
	}
	if sec.Source == "" {
		sec.Skipped = true
		return sec
	}
	rows, err := s.loader.LoadBlackHoles(sec.Source, s.cfg.Columns.BlackHoles, k.MassCorrection)
	if err != nil {
		sec.Err = errors.Wrap(err, "failed to load black hole table")
		return sec
	}
	sec.Rows = rows
	for _, bh := range rows {
		if !bh.HasObserved {
			continue
		}
		diff := math.Abs(bh.Corrected - bh.Observed)
		sec.Cases = append(sec.Cases, BlackHoleCase{
			BlackHole:  bh,
			Difference: diff,
			Passed:     diff < k.MassTolerance,
		})
	}
	s.logger.Debug("black holes: %d rows, %d audit cases", len(rows), len(sec.Cases))
	return sec
}
