package verdict

import (
	"fmt"
	"math"
)

// VerdictStatus represents the validation status of a hypothesis
type VerdictStatus string

const (
	StatusValidated VerdictStatus = "validated"
	StatusRejected  VerdictStatus = "rejected"
	StatusMarginal  VerdictStatus = "marginal"
	StatusError     VerdictStatus = "error"
)

// Reason explains how a verdict was reached
type Reason string

const (
	ReasonStatisticallySignificant   Reason = "statistically_significant"
	ReasonMarginallySignificant      Reason = "marginally_significant"
	ReasonStatisticallyInsignificant Reason = "statistically_insignificant"
	ReasonWithinTolerance            Reason = "within_tolerance"
	ReasonOutsideTolerance           Reason = "outside_tolerance"
	ReasonNoData                     Reason = "no_data"
	ReasonInvalidData                Reason = "invalid_data"
)

// Verdict is the judgment on one pre-declared hypothesis.
type Verdict struct {
	Hypothesis string        `json:"hypothesis"`
	Status     VerdictStatus `json:"status"`
	Reason     Reason        `json:"reason"`
	Statistic  float64       `json:"statistic"`
	PValue     float64       `json:"p_value"`
	Detail     string        `json:"detail,omitempty"`
}

// Passed reports whether the hypothesis was validated.
func (v Verdict) Passed() bool { return v.Status == StatusValidated }

// Thresholds are the significance levels for p-value verdicts.
type Thresholds struct {
	Alpha         float64 `mapstructure:"alpha" yaml:"alpha"`
	MarginalAlpha float64 `mapstructure:"marginal_alpha" yaml:"marginal_alpha"`
}

// DefaultThresholds returns α = 0.05 with a marginal band up to 0.10.
func DefaultThresholds() Thresholds {
	return Thresholds{Alpha: 0.05, MarginalAlpha: 0.10}
}

// Validate checks 0 < Alpha <= MarginalAlpha < 1.
func (t Thresholds) Validate() error {
	if !(t.Alpha > 0 && t.Alpha < 1) {
		return fmt.Errorf("alpha must be in (0, 1), got %g", t.Alpha)
	}
	if t.MarginalAlpha < t.Alpha || t.MarginalAlpha >= 1 {
		return fmt.Errorf("marginal alpha must be in [alpha, 1), got %g", t.MarginalAlpha)
	}
	return nil
}

// FromPValue classifies a fitted-parameter hypothesis by its two-tailed p-value.
func FromPValue(hypothesis string, t, p float64, th Thresholds) Verdict {
	v := Verdict{Hypothesis: hypothesis, Statistic: t, PValue: p}
	switch {
	case math.IsNaN(p):
		v.Status, v.Reason = StatusError, ReasonInvalidData
	case p < th.Alpha:
		v.Status, v.Reason = StatusValidated, ReasonStatisticallySignificant
	case p < th.MarginalAlpha:
		v.Status, v.Reason = StatusMarginal, ReasonMarginallySignificant
	default:
		v.Status, v.Reason = StatusRejected, ReasonStatisticallyInsignificant
	}
	v.Detail = fmt.Sprintf("t=%.3f p=%.4g (alpha=%g)", t, p, th.Alpha)
	return v
}

// FromTolerance validates a hypothesis when value stays strictly below limit.
// The p-value is not meaningful here and is NaN.
func FromTolerance(hypothesis string, value, limit float64, unit string) Verdict {
	v := Verdict{Hypothesis: hypothesis, Statistic: value, PValue: math.NaN()}
	switch {
	case math.IsNaN(value):
		v.Status, v.Reason = StatusError, ReasonInvalidData
	case value < limit:
		v.Status, v.Reason = StatusValidated, ReasonWithinTolerance
	default:
		v.Status, v.Reason = StatusRejected, ReasonOutsideTolerance
	}
	v.Detail = fmt.Sprintf("%.4g%s vs limit %.4g%s", value, unit, limit, unit)
	return v
}

// FromError records a hypothesis that could not be evaluated.
func FromError(hypothesis string, err error) Verdict {
	reason := ReasonInvalidData
	if err == nil {
		reason = ReasonNoData
	}
	v := Verdict{
		Hypothesis: hypothesis,
		Status:     StatusError,
		Reason:     reason,
		Statistic:  math.NaN(),
		PValue:     math.NaN(),
	}
	if err != nil {
		v.Detail = err.Error()
	}
	return v
}

// Summary counts verdicts per status.
type Summary map[VerdictStatus]int

// Summarize tallies a verdict list.
func Summarize(vs []Verdict) Summary {
	s := Summary{}
	for _, v := range vs {
		s[v.Status]++
	}
	return s
}
