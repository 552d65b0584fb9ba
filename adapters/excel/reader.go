package excel

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"skyaudit/domain/core"
	"skyaudit/internal"
)

// File formats understood by DataReader.
const (
	FormatWhitespace = "whitespace"
	FormatCSV        = "csv"
	FormatXLSX       = "xlsx"
)

var errTooFewRows = errors.New("table must have a header row and at least one data row")

// DataReader reads whitespace-delimited catalogs, CSV and Excel files.
type DataReader struct {
	filePath string
	fileType string
	logger   *internal.Logger
}

// NewDataReader picks the format from the file extension: .csv, .xlsx and
// anything else is treated as a whitespace-delimited catalog.
func NewDataReader(filePath string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: DetectFormat(filePath), logger: logger}
}

// DetectFormat maps a path to one of the Format constants.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	}
	return FormatWhitespace
}

// ReadData parses the whole file. Any failure is a *core.DataLoadError.
func (r *DataReader) ReadData() (*Table, error) {
	r.logger.Debug("[DataReader] reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); err != nil {
		return nil, &core.DataLoadError{Path: r.filePath, Err: err}
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case FormatCSV:
		rows, err = r.readCSV()
	case FormatXLSX:
		rows, err = r.readExcel()
	default:
		rows, err = r.readWhitespace()
	}
	if err != nil {
		return nil, &core.DataLoadError{Path: r.filePath, Err: err}
	}
	if len(rows) < 2 {
		return nil, &core.DataLoadError{Path: r.filePath, Err: errTooFewRows}
	}

	t := r.processRows(rows)
	r.logger.Debug("[DataReader] %s parsed in %.2fms (%d columns, %d rows)",
		r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(t.Headers), len(t.Rows))
	return t, nil
}

// readWhitespace reads a Latin-1 catalog split on runs of blanks. Lines
// starting with # are comments.
func (r *DataReader) readWhitespace() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(file))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rows [][]string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// readExcel reads the first worksheet.
func (r *DataReader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// processRows trims cells and pads short rows to the header width.
func (r *DataReader) processRows(rows [][]string) *Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(headers))
		for j := 0; j < len(row) && j < len(headers); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}
		data = append(data, cells)
	}
	return &Table{Path: r.filePath, Format: r.fileType, Headers: headers, Rows: data}
}

// Index returns the position of a header, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether the header is present.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Resolve returns the first candidate header present in the table.
func (t *Table) Resolve(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if t.Has(c) {
			return c, true
		}
	}
	return "", false
}

// Require fails with a DataLoadError listing every absent column.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return core.NewMissingColumnsError(t.Path, missing, append([]string(nil), t.Headers...))
	}
	return nil
}

// Cell returns the raw value of a data row, or "" when the column is absent.
func (t *Table) Cell(row int, column string) string {
	i := t.Index(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][i]
}

// Numeric coerces the named columns to float64. Rows where any of them is
// blank or unparseable are dropped from every column.
func (t *Table) Numeric(columns ...string) (*NumericFrame, error) {
	if err := t.Require(columns...); err != nil {
		return nil, err
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
	}

	frame := &NumericFrame{Columns: make(map[string][]float64, len(columns))}
	vals := make([]float64, len(columns))
	for r, row := range t.Rows {
		ok := true
		for i, j := range idx {
			if vals[i], ok = ParseNumeric(row[j]); !ok {
				break
			}
		}
		if !ok {
			frame.Dropped++
			continue
		}
		for i, c := range columns {
			frame.Columns[c] = append(frame.Columns[c], vals[i])
		}
		frame.Rows = append(frame.Rows, r)
	}
	return frame, nil
}
