package frame

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame is a dense numeric feature matrix.
type Frame struct {
	Columns []string    `msgpack:"columns"`
	Rows    [][]float64 `msgpack:"rows"`
	// Encodings maps each label-encoded column to its classes; a cell value
	// k stands for Encodings[column][k].
	Encodings map[string][]string `msgpack:"encodings,omitempty"`
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Validate checks that every row has one value per column.
func (f *Frame) Validate() error {
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("frame row %d has %d values for %d columns", i, len(row), len(f.Columns))
		}
	}
	return nil
}

// Series is a named numeric vector, the regression target.
type Series struct {
	Name   string    `msgpack:"name"`
	Values []float64 `msgpack:"values"`
}

// Len returns the number of values.
func (s *Series) Len() int { return len(s.Values) }

// Model is a fitted linear model: y = Intercept + sum(Coefficients[i] * x[i]).
type Model struct {
	Kind         string    `msgpack:"kind"`
	Target       string    `msgpack:"target"`
	Features     []string  `msgpack:"features"`
	Intercept    float64   `msgpack:"intercept"`
	Coefficients []float64 `msgpack:"coefficients"`
}

// Predict applies the model to one row of features.
func (m *Model) Predict(row []float64) float64 {
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * row[i]
	}
	return y
}

// Write encodes v as msgpack into path.
func Write(path string, v any) error {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", v, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Read decodes the msgpack file at path into v.
func Read(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding %s as %T: %w", path, v, err)
	}
	return nil
}

// ReadFrame reads and validates a feature frame.
func ReadFrame(path string) (*Frame, error) {
	var f Frame
	if err := Read(path, &f); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// ReadSeries reads a target series.
func ReadSeries(path string) (*Series, error) {
	var s Series
	if err := Read(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadModel reads a fitted model.
func ReadModel(path string) (*Model, error) {
	var m Model
	if err := Read(path, &m); err != nil {
		return nil, err
	}
	if len(m.Features) != len(m.Coefficients) {
		return nil, fmt.Errorf("%s: model has %d features but %d coefficients", path, len(m.Features), len(m.Coefficients))
	}
	return &m, nil
}
