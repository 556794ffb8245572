package frame

import (
	"errors"
	"math"
)

// ErrSingular is returned when the normal equations have no unique solution,
// typically because two features are collinear or a feature is constant.
var ErrSingular = errors.New("singular system: features are collinear")

// FitOLS fits ordinary least squares with an intercept by solving the normal
// equations (XᵀX)β = Xᵀy.
func FitOLS(x *Frame, y *Series) (*Model, error) {
	n, p := x.Len(), len(x.Columns)
	if n != y.Len() {
		return nil, errors.New("feature and target lengths differ")
	}
	if n <= p {
		return nil, errors.New("not enough rows to fit every coefficient")
	}

	// Column 0 of the augmented design is the intercept.
	k := p + 1
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)
	row := make([]float64, k)
	for r := 0; r < n; r++ {
		row[0] = 1
		copy(row[1:], x.Rows[r])
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y.Values[r]
			for j := i; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < k; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}

	beta, err := solve(xtx, xty)
	if err != nil {
		return nil, err
	}
	return &Model{
		Kind:         "linear_regression",
		Target:       y.Name,
		Features:     append([]string(nil), x.Columns...),
		Intercept:    beta[0],
		Coefficients: beta[1:],
	}, nil
}

// solve runs Gaussian elimination with partial pivoting on a copy of a.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	m := make([][]float64, n)
	scale := 0.0
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
		for _, v := range a[i] {
			scale = math.Max(scale, math.Abs(v))
		}
	}
	eps := 1e-12 * math.Max(scale, 1)

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < eps {
			return nil, ErrSingular
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := m[r][n]
		for c := r + 1; c < n; c++ {
			sum -= m[r][c] * x[c]
		}
		x[r] = sum / m[r][r]
	}
	return x, nil
}

// Scores are the regression quality measures written by the evaluate stage.
type Scores struct {
	MSE     float64 `json:"mse"`
	RMSE    float64 `json:"rmse"`
	MAE     float64 `json:"mae"`
	R2      float64 `json:"r2"`
	Samples int     `json:"samples"`
}

// Score compares predictions with observed values.
func Score(observed, predicted []float64) (Scores, error) {
	n := len(observed)
	if n == 0 {
		return Scores{}, errors.New("no samples to score")
	}
	if len(predicted) != n {
		return Scores{}, errors.New("prediction and target lengths differ")
	}

	mean := 0.0
	for _, v := range observed {
		mean += v
	}
	mean /= float64(n)

	var ssRes, ssTot, absErr float64
	for i := range observed {
		d := observed[i] - predicted[i]
		ssRes += d * d
		absErr += math.Abs(d)
		t := observed[i] - mean
		ssTot += t * t
	}

	s := Scores{
		MSE:     ssRes / float64(n),
		MAE:     absErr / float64(n),
		Samples: n,
	}
	s.RMSE = math.Sqrt(s.MSE)
	switch {
	case ssTot > 0:
		s.R2 = 1 - ssRes/ssTot
	case ssRes == 0:
		s.R2 = 1
	}
	return s, nil
}
