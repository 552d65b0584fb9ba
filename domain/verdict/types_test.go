package verdict

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromPValue(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		p      float64
		status VerdictStatus
		reason Reason
	}{
		{0.001, StatusValidated, ReasonStatisticallySignificant},
		{0.05, StatusMarginal, ReasonMarginallySignificant},
		{0.07, StatusMarginal, ReasonMarginallySignificant},
		{0.10, StatusRejected, ReasonStatisticallyInsignificant},
		{0.9, StatusRejected, ReasonStatisticallyInsignificant},
		{math.NaN(), StatusError, ReasonInvalidData},
	}
	for _, tc := range cases {
		v := FromPValue("gamma", 2, tc.p, th)
		assert.Equal(t, tc.status, v.Status, "p=%v", tc.p)
		assert.Equal(t, tc.reason, v.Reason, "p=%v", tc.p)
	}
}

func TestFromTolerance(t *testing.T) {
	v := FromTolerance("a0", 0.0826, 0.1, "%")
	assert.True(t, v.Passed())
	assert.True(t, math.IsNaN(v.PValue))

	v = FromTolerance("alignment", 20, 15, "°")
	assert.Equal(t, StatusRejected, v.Status)
	assert.Equal(t, ReasonOutsideTolerance, v.Reason)
}

func TestFromError(t *testing.T) {
	v := FromError("black_hole", errors.New("file not found"))
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, "file not found", v.Detail)
	assert.Equal(t, ReasonNoData, FromError("x", nil).Reason)
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Alpha: 0, MarginalAlpha: 0.1}.Validate())
	assert.Error(t, Thresholds{Alpha: 0.1, MarginalAlpha: 0.05}.Validate())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Verdict{
		{Status: StatusValidated},
		{Status: StatusValidated},
		{Status: StatusRejected},
	})
	assert.Equal(t, 2, s[StatusValidated])
	assert.Equal(t, 1, s[StatusRejected])
	assert.Equal(t, 0, s[StatusMarginal])
}
