// Package catalog turns raw tables into typed catalog records.
package catalog

import (
	"fmt"
	"strings"

	"skyaudit/adapters/excel"
	"skyaudit/domain/catalog"
	"skyaudit/domain/core"
	"skyaudit/domain/sky"
	"skyaudit/internal"
)

// Loader reads the three input tables.
type Loader struct {
	logger *internal.Logger
}

// NewLoader creates a loader; a nil logger uses the default logger.
func NewLoader(logger *internal.Logger) *Loader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{logger: logger}
}

func (l *Loader) read(path string) (*excel.Table, error) {
	return excel.NewDataReader(path, l.logger).ReadData()
}

// LoadCatalog reads the supernova catalog, drops rows that fail numeric
// coercion and attaches galactic coordinates.
func (l *Loader) LoadCatalog(path string, cols CatalogColumns) (*catalog.Catalog, error) {
	table, err := l.read(path)
	if err != nil {
		return nil, err
	}

	zCol, ok := table.Resolve(cols.Redshift...)
	if !ok {
		missing := []string{strings.Join(cols.Redshift, "|")}
		for _, c := range []string{cols.RA, cols.Dec, cols.Modulus, cols.ModErr} {
			if !table.Has(c) {
				missing = append(missing, c)
			}
		}
		return nil, core.NewMissingColumnsError(path, missing, table.Headers)
	}

	frame, err := table.Numeric(cols.RA, cols.Dec, zCol, cols.Modulus, cols.ModErr)
	if err != nil {
		return nil, err
	}
	if frame.Dropped > 0 {
		l.logger.Warn("%s: dropped %d of %d rows with missing or non-numeric values",
			path, frame.Dropped, len(table.Rows))
	}

	ra, dec := frame.Columns[cols.RA], frame.Columns[cols.Dec]
	gl, gb := sky.ToGalactic(ra, dec)

	out := &catalog.Catalog{
		Source:  path,
		Records: make([]catalog.Record, frame.Len()),
		Dropped: frame.Dropped,
	}
	for i := range out.Records {
		out.Records[i] = catalog.Record{
			RA:       ra[i],
			Dec:      dec[i],
			Redshift: frame.Columns[zCol][i],
			Modulus:  frame.Columns[cols.Modulus][i],
			ModErr:   frame.Columns[cols.ModErr][i],
			L:        gl[i],
			B:        gb[i],
		}
	}
	l.logger.Info("loaded %d catalog rows from %s (redshift column %s)", out.Len(), path, zCol)
	return out, nil
}

// LoadBlackHoles reads the M-sigma table and applies the additive mass
// correction in dex. The observed column is used when present.
func (l *Loader) LoadBlackHoles(path string, cols BlackHoleColumns, correction float64) ([]catalog.BlackHole, error) {
	table, err := l.read(path)
	if err != nil {
		return nil, err
	}
	if err := table.Require(cols.ID); err != nil {
		return nil, err
	}
	frame, err := table.Numeric(cols.Inferred)
	if err != nil {
		return nil, err
	}
	hasObserved := cols.Observed != "" && table.Has(cols.Observed)

	out := make([]catalog.BlackHole, 0, frame.Len())
	for i, row := range frame.Rows {
		inferred := frame.Columns[cols.Inferred][i]
		bh := catalog.BlackHole{
			ID:        table.Cell(row, cols.ID),
			Inferred:  inferred,
			Corrected: inferred + correction,
		}
		if hasObserved {
			bh.Observed, bh.HasObserved = excel.ParseNumeric(table.Cell(row, cols.Observed))
		}
		out = append(out, bh)
	}
	l.logger.Debug("loaded %d black holes from %s (observed column: %t)", len(out), path, hasObserved)
	return out, nil
}

// LoadReferenceVectors reads labelled galactic directions.
func (l *Loader) LoadReferenceVectors(path string, cols VectorColumns) ([]catalog.ReferenceVector, error) {
	table, err := l.read(path)
	if err != nil {
		return nil, err
	}
	if err := table.Require(cols.Label); err != nil {
		return nil, err
	}
	frame, err := table.Numeric(cols.L, cols.B)
	if err != nil {
		return nil, err
	}

	out := make([]catalog.ReferenceVector, frame.Len())
	for i, row := range frame.Rows {
		out[i] = catalog.ReferenceVector{
			Label: table.Cell(row, cols.Label),
			L:     frame.Columns[cols.L][i],
			B:     frame.Columns[cols.B][i],
		}
	}
	return out, nil
}

// FindVector returns the vector whose label matches, ignoring case and
// surrounding blanks.
func FindVector(vectors []catalog.ReferenceVector, label string) (catalog.ReferenceVector, error) {
	want := strings.TrimSpace(label)
	for _, v := range vectors {
		if strings.EqualFold(strings.TrimSpace(v.Label), want) {
			return v, nil
		}
	}
	return catalog.ReferenceVector{}, fmt.Errorf("%w: no reference vector labelled %q", core.ErrInsufficientData, label)
}
