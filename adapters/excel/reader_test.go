package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"skyaudit/domain/core"
	"skyaudit/internal"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("a/b/Msigma.CSV"))
	assert.Equal(t, FormatXLSX, DetectFormat("vectors.xlsx"))
	assert.Equal(t, FormatWhitespace, DetectFormat("Pantheon.dat"))
	assert.Equal(t, FormatWhitespace, DetectFormat("catalog"))
}

func TestReadWhitespace_CommentsAndLatin1(t *testing.T) {
	// 0xE9 is é in ISO-8859-1.
	content := []byte("# header comment\nCID RA DEC zHD\nSN\xe9 10.5 -3.2 0.1\n\nSN2 20.0 4.0 bad\n")
	path := writeFile(t, "cat.dat", content)

	table, err := NewDataReader(path, internal.NewNopLogger()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, FormatWhitespace, table.Format)
	assert.Equal(t, []string{"CID", "RA", "DEC", "zHD"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "SNé", table.Cell(0, "CID"))

	frame, err := table.Numeric("RA", "DEC", "zHD")
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Len())
	assert.Equal(t, 1, frame.Dropped)
	assert.Equal(t, []float64{0.1}, frame.Columns["zHD"])
	assert.Equal(t, []int{0}, frame.Rows)
}

func TestReadCSV_ShortRowsAndBOM(t *testing.T) {
	path := writeFile(t, "bh.csv", []byte("\ufeffBAT_ID,logMBH_RG_Inferred\nNGC5548,7.70\nMrk1,\n"))

	table, err := NewDataReader(path, internal.NewNopLogger()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, "BAT_ID", table.Headers[0])

	frame, err := table.Numeric("logMBH_RG_Inferred")
	require.NoError(t, err)
	assert.Equal(t, []float64{7.70}, frame.Columns["logMBH_RG_Inferred"])
	assert.Equal(t, 1, frame.Dropped)
	assert.Equal(t, "NGC5548", table.Cell(frame.Rows[0], "BAT_ID"))
}

func TestReadExcel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Vetor", "Longitude_l", "Latitude_b"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Fluxo_Bulk_GA", 307.0, 7.0}))
	path := filepath.Join(t.TempDir(), "vectors.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := NewDataReader(path, internal.NewNopLogger()).ReadData()
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, table.Format)

	frame, err := table.Numeric("Longitude_l", "Latitude_b")
	require.NoError(t, err)
	assert.Equal(t, []float64{307}, frame.Columns["Longitude_l"])
	assert.Equal(t, "Fluxo_Bulk_GA", table.Cell(0, "Vetor"))
}

func TestReadData_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.dat"), internal.NewNopLogger()).ReadData()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadData_HeaderOnly(t *testing.T) {
	path := writeFile(t, "empty.csv", []byte("a,b\n"))
	_, err := NewDataReader(path, internal.NewNopLogger()).ReadData()
	assert.ErrorIs(t, err, core.ErrDataLoad)
}

func TestRequire_ReportsPresentColumns(t *testing.T) {
	table := &Table{Path: "x.dat", Headers: []string{"RA", "DEC"}}
	err := table.Require("RA", "zHD", "m_b_corr")

	var dle *core.DataLoadError
	require.ErrorAs(t, err, &dle)
	assert.Equal(t, []string{"zHD", "m_b_corr"}, dle.Missing)
	assert.Equal(t, []string{"RA", "DEC"}, dle.Present)
	assert.Contains(t, err.Error(), "present [RA, DEC]")
}

func TestResolve(t *testing.T) {
	table := &Table{Headers: []string{"zCMB", "z"}}
	name, ok := table.Resolve("zHD", "zCMB", "z")
	assert.True(t, ok)
	assert.Equal(t, "zCMB", name)
	_, ok = table.Resolve("zHEL")
	assert.False(t, ok)
}

func TestParseNumeric(t *testing.T) {
	cases := map[string]struct {
		want float64
		ok   bool
	}{
		" 1.25 ":  {1.25, true},
		"-3e-2":   {-0.03, true},
		"1.5D2":   {150, true},
		`"7.7"`:   {7.7, true},
		"":        {0, false},
		"nan":     {0, false},
		"inf":     {0, false},
		"--":      {0, false},
		"NGC5548": {0, false},
	}
	for in, tc := range cases {
		got, ok := ParseNumeric(in)
		assert.Equal(t, tc.ok, ok, in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-12, in)
		}
	}
}
