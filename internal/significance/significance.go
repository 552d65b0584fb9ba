// Package significance turns fitted parameters into t-statistics and
// two-tailed Student-t p-values.
package significance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"skyaudit/domain/core"
	"skyaudit/internal/fit"
)

// Result is the significance of one fitted parameter.
type Result struct {
	Parameter string  `json:"parameter"`
	Estimate  float64 `json:"estimate"`
	StdErr    float64 `json:"stderr"`
	DOF       int     `json:"dof"`
	T         float64 `json:"t"`
	PValue    float64 `json:"p_value"`
}

// Significant reports whether the two-tailed p-value is below alpha.
func (r Result) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// TStatistic returns |estimate / stderr|. A zero standard error gives +Inf
// for a non-zero estimate and 0 otherwise.
func TStatistic(estimate, stderr float64) float64 {
	if stderr == 0 {
		if estimate == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(estimate / stderr)
}

// TwoTailedPValue is 2·S(t) for Student's t with dof degrees of freedom.
func TwoTailedPValue(t float64, dof int) (float64, error) {
	if dof <= 0 {
		return 0, fmt.Errorf("%w: degrees of freedom %d", core.ErrInsufficientData, dof)
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	return math.Min(1, 2*tDist.Survival(math.Abs(t))), nil
}

// Compute evaluates one estimate.
func Compute(parameter string, estimate, stderr float64, dof int) (Result, error) {
	if dof <= 0 {
		return Result{}, fmt.Errorf("%s: %w: degrees of freedom %d", parameter, core.ErrInsufficientData, dof)
	}
	if math.IsNaN(stderr) || math.IsNaN(estimate) {
		return Result{}, fmt.Errorf("%s: non-numeric estimate %g ± %g", parameter, estimate, stderr)
	}
	t := TStatistic(estimate, stderr)
	p, err := TwoTailedPValue(t, dof)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Parameter: parameter,
		Estimate:  estimate,
		StdErr:    stderr,
		DOF:       dof,
		T:         t,
		PValue:    p,
	}, nil
}

// ForFit evaluates the named parameters of a fit result, in order.
func ForFit(res *fit.Result, params ...string) ([]Result, error) {
	out := make([]Result, 0, len(params))
	for _, name := range params {
		est, se, ok := res.Param(name)
		if !ok {
			return nil, fmt.Errorf("%s: unknown parameter %q", res.Model, name)
		}
		r, err := Compute(name, est, se, res.DOF)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", res.Model, err)
		}
		out = append(out, r)
	}
	return out, nil
}
