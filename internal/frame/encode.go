package frame

import (
	"fmt"
	"sort"
	"strconv"
)

// Encode turns a table into a numeric feature frame and a target series.
// Every column except target becomes a feature. Columns listed in
// categorical, and any column with a non-numeric cell, are label encoded:
// their distinct values are sorted and replaced by their index. The target
// column must be numeric.
func Encode(t *Table, target string, categorical []string) (*Frame, *Series, error) {
	ti := t.Column(target)
	if ti < 0 {
		return nil, nil, fmt.Errorf("target column %q not found in %v", target, t.Header)
	}
	forced := make(map[int]bool, len(categorical))
	for _, name := range categorical {
		ci := t.Column(name)
		if ci < 0 {
			return nil, nil, fmt.Errorf("categorical column %q not found in %v", name, t.Header)
		}
		if ci == ti {
			return nil, nil, fmt.Errorf("target column %q cannot be categorical", target)
		}
		forced[ci] = true
	}

	y := &Series{Name: target, Values: make([]float64, t.Rows())}
	for r, rec := range t.Records {
		v, err := strconv.ParseFloat(rec[ti], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: target %q is not numeric: %q", r+1, target, rec[ti])
		}
		y.Values[r] = v
	}

	x := &Frame{Rows: make([][]float64, t.Rows())}
	for r := range x.Rows {
		x.Rows[r] = make([]float64, 0, len(t.Header)-1)
	}
	for ci, name := range t.Header {
		if ci == ti {
			continue
		}
		x.Columns = append(x.Columns, name)

		values, ok := numericColumn(t, ci)
		if !ok || forced[ci] {
			var classes []string
			values, classes = labelEncode(t, ci)
			if x.Encodings == nil {
				x.Encodings = make(map[string][]string)
			}
			x.Encodings[name] = classes
		}
		for r, v := range values {
			x.Rows[r] = append(x.Rows[r], v)
		}
	}
	return x, y, nil
}

func numericColumn(t *Table, ci int) ([]float64, bool) {
	out := make([]float64, t.Rows())
	for r, rec := range t.Records {
		v, err := strconv.ParseFloat(rec[ci], 64)
		if err != nil {
			return nil, false
		}
		out[r] = v
	}
	return out, true
}

func labelEncode(t *Table, ci int) ([]float64, []string) {
	index := make(map[string]int)
	for _, rec := range t.Records {
		index[rec[ci]] = 0
	}
	classes := make([]string, 0, len(index))
	for c := range index {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for i, c := range classes {
		index[c] = i
	}

	out := make([]float64, t.Rows())
	for r, rec := range t.Records {
		out[r] = float64(index[rec[ci]])
	}
	return out, classes
}

// Subset returns the frame restricted to the given rows, in that order.
func (f *Frame) Subset(rows []int) *Frame {
	out := &Frame{
		Columns:   append([]string(nil), f.Columns...),
		Rows:      make([][]float64, len(rows)),
		Encodings: f.Encodings,
	}
	for i, r := range rows {
		out.Rows[i] = append([]float64(nil), f.Rows[r]...)
	}
	return out
}

// Subset returns the series restricted to the given rows, in that order.
func (s *Series) Subset(rows []int) *Series {
	out := &Series{Name: s.Name, Values: make([]float64, len(rows))}
	for i, r := range rows {
		out.Values[i] = s.Values[r]
	}
	return out
}
