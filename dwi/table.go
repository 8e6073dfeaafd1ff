// Package dwi handles the whitespace-delimited bval and bvec gradient tables
// that accompany diffusion images: a bval file holds one row of b-values,
// a bvec file three rows of gradient components, one column per volume.
package dwi

import (
	"fmt"
	"os"
	"strings"

	"github.com/carbocation/pfx"
)

// Table is the row-major content of a bval or bvec file.
type Table [][]string

// ReadTable parses a whitespace-delimited gradient table. Blank lines are
// dropped.
func ReadTable(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	var t Table
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		t = append(t, fields)
	}
	return t, nil
}

// Write stores the table with single-space delimiters, one row per line.
func (t Table) Write(path string) error {
	rows := make([]string, len(t))
	for i, row := range t {
		rows[i] = strings.Join(row, " ")
	}
	return pfx.Err(os.WriteFile(path, []byte(strings.Join(rows, "\n")), 0644))
}

// Cols returns the number of columns (volumes). An empty table has zero.
func (t Table) Cols() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// SplitColumns partitions every row into its first n values and the rest,
// mirroring a volume split of the companion image.
func (t Table) SplitColumns(n int) (first, rest Table, err error) {
	for i, row := range t {
		if n < 0 || n > len(row) {
			return nil, nil, fmt.Errorf("dwi: cannot split row %d of %d values at column %d", i, len(row), n)
		}
		first = append(first, append([]string{}, row[:n]...))
		rest = append(rest, append([]string{}, row[n:]...))
	}
	return first, rest, nil
}

// DropColumns removes the first n values of every row, used when reverse
// phase-encoded reference volumes are removed from the start of a series.
func (t Table) DropColumns(n int) (Table, error) {
	_, rest, err := t.SplitColumns(n)
	return rest, err
}
