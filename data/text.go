package data

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/treesearch"
	"github.com/hupe1980/treesearch/matrix"
)

// decodeText parses a delimited text dataset into a matrix. The first row
// fixes the column count; every later row must match it.
func decodeText(r io.Reader, f format, path string) (*matrix.Dense, error) {
	records, err := readRecords(r, f, path)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return matrix.New(0, 0), nil
	}

	cols := len(records[0])

	m := matrix.New(len(records), cols)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, &ParseError{
				Path: path,
				Row:  i,
				Col:  -1,
				Err:  &treesearch.DimensionError{Expected: cols, Actual: len(rec)},
			}
		}

		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &ParseError{
					Path: path,
					Row:  i,
					Col:  j,
					Err:  fmt.Errorf("%w: %q is not a number", treesearch.ErrInvalidParameter, cell),
				}
			}

			m.Set(i, j, v)
		}
	}

	return m, nil
}

func readRecords(r io.Reader, f format, path string) ([][]string, error) {
	switch f {
	case formatCSV, formatTSV:
		cr := csv.NewReader(r)
		cr.Comma = delimiter(f)
		cr.FieldsPerRecord = -1 // ragged rows are reported with coordinates below
		cr.TrimLeadingSpace = true

		records, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("data: parse %s: %w", path, err)
		}

		return records, nil

	case formatTXT:
		// Whitespace-delimited: any run of spaces or tabs separates cells,
		// blank lines are skipped. Matches what numeric tools typically emit.
		var records [][]string

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

		for sc.Scan() {
			fields := strings.Fields(sc.Text())
			if len(fields) == 0 {
				continue
			}

			records = append(records, fields)
		}

		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("data: parse %s: %w", path, err)
		}

		return records, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// encodeText writes a matrix as delimited text. Values use the shortest
// decimal form that parses back to the same float64, so text roundtrips are
// exact.
func encodeText(w io.Writer, m *matrix.Dense, f format) error {
	switch f {
	case formatCSV, formatTSV:
		cw := csv.NewWriter(w)
		cw.Comma = delimiter(f)

		rec := make([]string, m.Cols())
		for i := 0; i < m.Rows(); i++ {
			for j, v := range m.Row(i) {
				rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
			}

			if err := cw.Write(rec); err != nil {
				return err
			}
		}

		cw.Flush()

		return cw.Error()

	case formatTXT:
		bw := bufio.NewWriter(w)

		for i := 0; i < m.Rows(); i++ {
			for j, v := range m.Row(i) {
				if j > 0 {
					if err := bw.WriteByte(' '); err != nil {
						return err
					}
				}

				if _, err := bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
					return err
				}
			}

			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}

		return bw.Flush()

	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

func delimiter(f format) rune {
	if f == formatTSV {
		return '\t'
	}

	return ','
}
