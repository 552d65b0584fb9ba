// Package fit implements weighted nonlinear least squares with the
// Levenberg-Marquardt method and reports parameter covariances the way
// curve-fitting routines conventionally do.
package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"skyaudit/domain/core"
)

const (
	minLambda = 1e-12
	maxLambda = 1e16
	// conditionLimit bounds the normal matrix before its inverse is trusted.
	conditionLimit = 1e15
)

// Func evaluates a model at one observation x for parameters p.
type Func func(x, p []float64) float64

// Model is a parametric family with a fixed starting point.
type Model struct {
	Name    string
	Params  []string
	Initial []float64
	Eval    Func
}

// Data holds the observations. A nil Sigma means an unweighted fit.
type Data struct {
	X     [][]float64
	Y     []float64
	Sigma []float64
}

// Settings controls the solver.
type Settings struct {
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations"`
	FTol          float64 `mapstructure:"ftol" yaml:"ftol"`
	XTol          float64 `mapstructure:"xtol" yaml:"xtol"`
	GTol          float64 `mapstructure:"gtol" yaml:"gtol"`
	InitialLambda float64 `mapstructure:"initial_lambda" yaml:"initial_lambda"`
	// AbsoluteSigma keeps the covariance in the units of Sigma instead of
	// rescaling it by the reduced chi-square.
	AbsoluteSigma bool `mapstructure:"absolute_sigma" yaml:"absolute_sigma"`
}

// DefaultSettings returns sensible defaults
func DefaultSettings() Settings {
	return Settings{
		MaxIterations: 500,
		FTol:          1e-10,
		XTol:          1e-10,
		GTol:          1e-10,
		InitialLambda: 1e-3,
	}
}

// Result is the outcome of one fit.
type Result struct {
	Model            string        `json:"model"`
	ParamNames       []string      `json:"param_names"`
	Params           []float64     `json:"params"`
	StdErr           []float64     `json:"stderr"`
	Covariance       *mat.SymDense `json:"-"`
	N                int           `json:"n"`
	DOF              int           `json:"dof"`
	ChiSquare        float64       `json:"chi_square"`
	ReducedChiSquare float64       `json:"reduced_chi_square"`
	Iterations       int           `json:"iterations"`
}

// Param looks a parameter up by name.
func (r *Result) Param(name string) (value, stderr float64, ok bool) {
	for i, n := range r.ParamNames {
		if n == name {
			return r.Params[i], r.StdErr[i], true
		}
	}
	return 0, 0, false
}

// Solver runs Levenberg-Marquardt fits.
type Solver struct {
	settings Settings
}

// NewSolver creates a solver, filling zero settings from DefaultSettings.
func NewSolver(settings Settings) *Solver {
	def := DefaultSettings()
	if settings.MaxIterations <= 0 {
		settings.MaxIterations = def.MaxIterations
	}
	if settings.FTol <= 0 {
		settings.FTol = def.FTol
	}
	if settings.XTol <= 0 {
		settings.XTol = def.XTol
	}
	if settings.GTol <= 0 {
		settings.GTol = def.GTol
	}
	if settings.InitialLambda <= 0 {
		settings.InitialLambda = def.InitialLambda
	}
	return &Solver{settings: settings}
}

// Settings returns the effective solver settings.
func (s *Solver) Settings() Settings { return s.settings }

// Fit minimises sum(((y - f(x, p)) / sigma)^2) starting from m.Initial.
// It fails with core.ErrFitDivergence when the iteration cap is reached,
// the objective turns non-finite or the covariance is singular.
func (s *Solver) Fit(ctx context.Context, m Model, d Data) (*Result, error) {
	n, k := len(d.Y), len(m.Initial)
	if len(d.X) != n {
		return nil, fmt.Errorf("%s: %d x rows for %d observations", m.Name, len(d.X), n)
	}
	if len(m.Params) != k {
		return nil, fmt.Errorf("%s: %d parameter names for %d initial values", m.Name, len(m.Params), k)
	}
	if n < k {
		return nil, fmt.Errorf("%s: %w", m.Name, core.NewInsufficientDataError(n, k))
	}

	w, err := weights(d.Sigma, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}

	residuals := func(dst, p []float64) {
		for i := range dst {
			dst[i] = (d.Y[i] - m.Eval(d.X[i], p)) * w[i]
		}
	}

	p := append([]float64(nil), m.Initial...)
	r := make([]float64, n)
	residuals(r, p)
	chi2 := floats.Dot(r, r)
	if !isFinite(chi2) {
		return nil, fmt.Errorf("%s: %w: non-finite objective at initial guess", m.Name, core.ErrFitDivergence)
	}

	jac := mat.NewDense(n, k, nil)
	trial := make([]float64, k)
	rTrial := make([]float64, n)
	scale := make([]float64, k)
	lambda := s.settings.InitialLambda

	converged := false
	iter := 0
	for iter < s.settings.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter++

		if err := jacobian(jac, m, d, w, p); err != nil {
			return nil, fmt.Errorf("%s: %w", m.Name, err)
		}
		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())
		var grad mat.VecDense
		grad.MulVec(jac.T(), mat.NewVecDense(n, r))

		if s.gradientConverged(&jtj, &grad, chi2) {
			converged = true
			break
		}
		marquardtScale(scale, &jtj)

		improved := false
		for lambda <= maxLambda {
			aug := mat.NewDense(k, k, nil)
			aug.Copy(&jtj)
			for j := 0; j < k; j++ {
				aug.Set(j, j, jtj.At(j, j)+lambda*scale[j])
			}

			var delta mat.VecDense
			if err := delta.SolveVec(aug, &grad); err != nil {
				lambda *= 10
				continue
			}
			for j := range trial {
				trial[j] = p[j] + delta.AtVec(j)
			}
			residuals(rTrial, trial)
			chi2Trial := floats.Dot(rTrial, rTrial)
			if !isFinite(chi2Trial) || chi2Trial >= chi2 {
				lambda *= 10
				continue
			}

			relDrop := (chi2 - chi2Trial) / chi2
			step := mat.Norm(&delta, 2)
			pNorm := floats.Norm(p, 2)

			copy(p, trial)
			copy(r, rTrial)
			chi2 = chi2Trial
			lambda = math.Max(lambda/10, minLambda)
			improved = true

			if chi2 == 0 || relDrop <= s.settings.FTol || step <= s.settings.XTol*(pNorm+s.settings.XTol) {
				converged = true
			}
			break
		}

		// No damping produced a downhill step: p is a minimum to
		// working precision.
		if converged || !improved {
			converged = true
			break
		}
	}

	if !converged {
		return nil, fmt.Errorf("%s: %w (%d iterations, chi2=%g)", m.Name, core.ErrIterationLimit, iter, chi2)
	}

	cov, err := covariance(jac, m, d, w, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}

	dof := n - k
	reduced := math.Inf(1)
	if dof > 0 {
		reduced = chi2 / float64(dof)
	}
	if !s.settings.AbsoluteSigma {
		cov.ScaleSym(reduced, cov)
	}

	stderr := make([]float64, k)
	for j := range stderr {
		stderr[j] = math.Sqrt(cov.At(j, j))
	}

	return &Result{
		Model:            m.Name,
		ParamNames:       append([]string(nil), m.Params...),
		Params:           p,
		StdErr:           stderr,
		Covariance:       cov,
		N:                n,
		DOF:              dof,
		ChiSquare:        chi2,
		ReducedChiSquare: reduced,
		Iterations:       iter,
	}, nil
}

// gradientConverged applies the MINPACK gtol test: every column of the
// Jacobian is orthogonal to the residual vector up to gtol.
func (s *Solver) gradientConverged(jtj *mat.SymDense, grad *mat.VecDense, chi2 float64) bool {
	for j := 0; j < grad.Len(); j++ {
		if math.Abs(grad.AtVec(j)) > s.settings.GTol*math.Sqrt(chi2*jtj.At(j, j)) {
			return false
		}
	}
	return true
}

func marquardtScale(dst []float64, jtj *mat.SymDense) {
	maxDiag := 0.0
	for j := range dst {
		maxDiag = math.Max(maxDiag, jtj.At(j, j))
	}
	floor := 1e-12 * maxDiag
	if floor == 0 {
		floor = 1
	}
	for j := range dst {
		dst[j] = math.Max(jtj.At(j, j), floor)
	}
}

// jacobian fills dst with d(f/sigma)/dp by central differences.
func jacobian(dst *mat.Dense, m Model, d Data, w, p []float64) error {
	fd.Jacobian(dst, func(y, q []float64) {
		for i := range y {
			y[i] = m.Eval(d.X[i], q) * w[i]
		}
	}, p, &fd.JacobianSettings{Formula: fd.Central})

	rows, cols := dst.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !isFinite(dst.At(i, j)) {
				return fmt.Errorf("%w: non-finite jacobian at p=%v", core.ErrFitDivergence, p)
			}
		}
	}
	return nil
}

// covariance returns (JᵀWJ)⁻¹ at p.
func covariance(jac *mat.Dense, m Model, d Data, w, p []float64) (*mat.SymDense, error) {
	if err := jacobian(jac, m, d, w, p); err != nil {
		return nil, err
	}
	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok {
		return nil, core.ErrSingularCovariance
	}
	if c := chol.Cond(); c > conditionLimit || math.IsNaN(c) {
		return nil, fmt.Errorf("%w (condition number %.3g)", core.ErrSingularCovariance, c)
	}
	cov := mat.NewSymDense(jtj.SymmetricDim(), nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSingularCovariance, err)
	}
	return cov, nil
}

func weights(sigma []float64, n int) ([]float64, error) {
	w := make([]float64, n)
	if sigma == nil {
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	if len(sigma) != n {
		return nil, fmt.Errorf("%d sigmas for %d observations", len(sigma), n)
	}
	for i, s := range sigma {
		if !(s > 0) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("sigma[%d]=%g must be positive and finite", i, s)
		}
		w[i] = 1 / s
	}
	return w, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
