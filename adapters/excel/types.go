package excel

import (
	"math"
	"strconv"
	"strings"
)

// Table is a parsed delimited or spreadsheet file with a header row.
type Table struct {
	Path    string
	Format  string
	Headers []string
	Rows    [][]string
}

// NumericFrame holds float64 columns that all parsed on the same rows.
type NumericFrame struct {
	Columns map[string][]float64
	// Rows maps each kept value back to its 0-based data row in the table.
	Rows    []int
	Dropped int
}

// Len returns the number of kept rows.
func (f *NumericFrame) Len() int { return len(f.Rows) }

// ParseNumeric converts a cell to a finite float64. Blank cells, NaN and
// infinities are rejected.
func ParseNumeric(raw string) (float64, bool) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, `"'`)
	if clean == "" {
		return 0, false
	}
	// Fortran-style exponents show up in older survey tables.
	if strings.ContainsAny(clean, "dD") && !strings.ContainsAny(clean, "aAnN") {
		clean = strings.NewReplacer("d", "e", "D", "e").Replace(clean)
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
