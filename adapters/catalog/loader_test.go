package catalog

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyaudit/domain/core"
	"skyaudit/internal"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := write(t, "PantheonPlusSH0ES.dat", `CID zCMB RA DEC m_b_corr m_b_corr_err_DIAG
a 0.05 266.405 -28.936 36.9 0.15
b 0.10 192.859 27.128 38.5 0.12
c 0.20 10.0 nan 40.0 0.10
`)
	cat, err := NewLoader(internal.NewNopLogger()).LoadCatalog(path, DefaultCatalogColumns())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())
	assert.Equal(t, 1, cat.Dropped)
	assert.Equal(t, []float64{0.05, 0.10}, cat.Redshifts())

	// galactic centre and north galactic pole
	assert.InDelta(t, 0, math.Abs(math.Remainder(cat.Records[0].L, 360)), 0.1)
	assert.InDelta(t, 0, cat.Records[0].B, 0.1)
	assert.InDelta(t, 90, cat.Records[1].B, 0.05)
}

func TestLoadCatalog_MissingColumns(t *testing.T) {
	path := write(t, "cat.dat", "RA DEC m_b_corr\n1 2 3\n")
	_, err := NewLoader(internal.NewNopLogger()).LoadCatalog(path, DefaultCatalogColumns())

	var dle *core.DataLoadError
	require.ErrorAs(t, err, &dle)
	assert.Equal(t, []string{"zHD|zCMB|z", "m_b_corr_err_DIAG"}, dle.Missing)
	assert.Equal(t, []string{"RA", "DEC", "m_b_corr"}, dle.Present)
}

func TestLoadCatalog_FileNotFound(t *testing.T) {
	_, err := NewLoader(internal.NewNopLogger()).LoadCatalog(filepath.Join(t.TempDir(), "x.dat"), DefaultCatalogColumns())
	assert.True(t, core.IsDataLoadError(err))
}

func TestLoadBlackHoles(t *testing.T) {
	path := write(t, "Msigma_T4_clean.csv", `BAT_ID,logMBH_RG_Inferred,logMBH_Observed
NGC5548,7.70,8.01
Mrk509,8.10,
bad,--,7.0
`)
	bhs, err := NewLoader(internal.NewNopLogger()).LoadBlackHoles(path, DefaultBlackHoleColumns(), 0.31)
	require.NoError(t, err)
	require.Len(t, bhs, 2)

	assert.Equal(t, "NGC5548", bhs[0].ID)
	assert.InDelta(t, 8.01, bhs[0].Corrected, 1e-12)
	assert.True(t, bhs[0].HasObserved)
	assert.InDelta(t, 8.01, bhs[0].Observed, 1e-12)
	assert.False(t, bhs[1].HasObserved)
}

func TestLoadBlackHoles_WithoutObservedColumn(t *testing.T) {
	path := write(t, "bh.csv", "BAT_ID,logMBH_RG_Inferred\nA,7\n")
	bhs, err := NewLoader(internal.NewNopLogger()).LoadBlackHoles(path, DefaultBlackHoleColumns(), 0.31)
	require.NoError(t, err)
	require.Len(t, bhs, 1)
	assert.False(t, bhs[0].HasObserved)
	assert.InDelta(t, 7.31, bhs[0].Corrected, 1e-12)
}

func TestLoadReferenceVectors(t *testing.T) {
	path := write(t, "CF4_Bulk_Flow_Vector.csv", `Vetor,Longitude_l,Latitude_b
Fluxo_Bulk_GA,307.0,7.0
CMB_Dipole,264.0,48.0
`)
	vs, err := NewLoader(internal.NewNopLogger()).LoadReferenceVectors(path, DefaultVectorColumns())
	require.NoError(t, err)
	require.Len(t, vs, 2)

	v, err := FindVector(vs, " fluxo_bulk_ga ")
	require.NoError(t, err)
	assert.Equal(t, 307.0, v.L)

	_, err = FindVector(vs, "missing")
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)

	s, err = Describe([]float64{7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.StdDev)

	_, err = Describe(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}
