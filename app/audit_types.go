package app

import (
	"time"

	catalogio "skyaudit/adapters/catalog"
	"skyaudit/domain/catalog"
	"skyaudit/domain/core"
	"skyaudit/domain/sky"
	"skyaudit/domain/verdict"
	"skyaudit/internal/config"
	"skyaudit/internal/fit"
	"skyaudit/internal/significance"
)

// Hypothesis names used in verdicts.
const (
	HypothesisQuadrupole = "anisotropy.quadrupole"
	HypothesisDipole     = "anisotropy.dipole"
	HypothesisGamma      = "radial_excess.gamma"
	HypothesisExponent   = "radial_excess.n"
	HypothesisAlignment  = "bulk_flow.anti_alignment"
	HypothesisA0         = "a0.consistency"
	HypothesisBlackHoles = "black_hole.mass_correction"
)

// AuditReport is the structured outcome of one run. Rendering lives in
// internal/report.
type AuditReport struct {
	RunID      core.RunID        `json:"run_id"`
	StartedAt  core.Timestamp    `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Constants  config.Constants  `json:"constants"`
	Catalog    CatalogSection    `json:"catalog"`
	Anisotropy *FitSection       `json:"anisotropy"`
	Radial     *FitSection       `json:"radial_excess"`
	Alignment  *AlignmentSection `json:"alignment,omitempty"`
	A0         *A0Section        `json:"a0,omitempty"`
	BlackHoles *BlackHoleSection `json:"black_holes,omitempty"`
	Verdicts   []verdict.Verdict `json:"verdicts"`
}

// CatalogSection summarises the cleaned catalog.
type CatalogSection struct {
	Source   string                  `json:"source"`
	Rows     int                     `json:"rows"`
	Dropped  int                     `json:"dropped"`
	Redshift catalogio.ColumnSummary `json:"redshift"`
	Residual catalogio.ColumnSummary `json:"residual"`
}

// FitSection is one fitted model with the significance of its parameters.
type FitSection struct {
	Result       *fit.Result           `json:"result"`
	Significance []significance.Result `json:"significance"`
}

// AlignmentSection compares the fitted dipole apex with the bulk flow.
type AlignmentSection struct {
	Reference catalog.ReferenceVector `json:"reference"`
	Apex      sky.Galactic            `json:"apex"`
	Check     sky.Alignment           `json:"check"`
	Skipped   bool                    `json:"skipped,omitempty"`
	Err       error                   `json:"-"`
}

// A0Section checks the configured predicted acceleration scale against the
// configured observed one.
type A0Section struct {
	Predicted      float64 `json:"predicted"`
	Observed       float64 `json:"observed"`
	DiscrepancyPct float64 `json:"discrepancy_pct"`
	LimitPct       float64 `json:"limit_pct"`
}

// BlackHoleCase is one row with an observed mass to audit against.
type BlackHoleCase struct {
	catalog.BlackHole
	Difference float64 `json:"difference_dex"`
	Passed     bool    `json:"passed"`
}

// BlackHoleSection holds the corrected mass table.
type BlackHoleSection struct {
	Source     string              `json:"source"`
	Correction float64             `json:"correction_dex"`
	Tolerance  float64             `json:"tolerance_dex"`
	Rows       []catalog.BlackHole `json:"rows"`
	Cases      []BlackHoleCase     `json:"cases"`
	Skipped    bool                `json:"skipped,omitempty"`
	Err        error               `json:"-"`
}

// Failed reports whether any verdict could not be evaluated or was rejected.
func (r *AuditReport) Failed() bool {
	for _, v := range r.Verdicts {
		if v.Status == verdict.StatusError || v.Status == verdict.StatusRejected {
			return true
		}
	}
	return false
}
