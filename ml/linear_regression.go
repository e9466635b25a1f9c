package ml

import (
	"errors"
	"fmt"
	"math"
)

// LinearRegression is an ordinary least squares model with intercept.
type LinearRegression struct {
	features  []string
	coef      []float64
	intercept float64
}

func NewLinearRegression(features []string, coef []float64, intercept float64) *LinearRegression {
	return &LinearRegression{
		features:  append([]string(nil), features...),
		coef:      append([]float64(nil), coef...),
		intercept: intercept,
	}
}

func (lr *LinearRegression) Kind() Kind { return KindLinearRegression }

func (lr *LinearRegression) Features() []string { return append([]string(nil), lr.features...) }

func (lr *LinearRegression) Params() LinearParams {
	return LinearParams{
		Coefficients: append([]float64(nil), lr.coef...),
		Intercept:    lr.intercept,
	}
}

// Fit solves the normal equations on mean-centred data, so the intercept
// is recovered exactly as mean(y) - mean(x)·coef.
func (lr *LinearRegression) Fit(features [][]float64, targets []float64) error {
	if err := checkTrainingShape(features, targets, len(lr.features)); err != nil {
		return err
	}
	n := len(features)
	p := len(lr.features)

	xMean := make([]float64, p)
	yMean := 0.0
	for i, row := range features {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += targets[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	// augmented system [XᵀX | Xᵀy] over centred columns
	system := make([][]float64, p)
	for j := range system {
		system[j] = make([]float64, p+1)
	}
	for i, row := range features {
		dy := targets[i] - yMean
		for j := 0; j < p; j++ {
			dj := row[j] - xMean[j]
			for k := 0; k < p; k++ {
				system[j][k] += dj * (row[k] - xMean[k])
			}
			system[j][p] += dj * dy
		}
	}

	coef, err := solve(system)
	if err != nil {
		return err
	}
	intercept := yMean
	for j, c := range coef {
		intercept -= c * xMean[j]
	}
	lr.coef = coef
	lr.intercept = intercept
	return nil
}

func (lr *LinearRegression) Predict(frame Frame) ([]float64, error) {
	if lr.coef == nil {
		return nil, errors.New("model not trained")
	}
	if len(lr.coef) != len(lr.features) {
		return nil, fmt.Errorf("model has %d coefficients for %d features", len(lr.coef), len(lr.features))
	}
	rows, err := frame.Rows(lr.features)
	if err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	for i := range out {
		y := lr.intercept
		for j, name := range lr.features {
			y += lr.coef[j] * frame[name][i]
		}
		out[i] = y
	}
	return out, nil
}

// solve runs Gaussian elimination with partial pivoting on an augmented
// matrix and returns the solution column.
func solve(system [][]float64) ([]float64, error) {
	p := len(system)
	scale := 0.0
	for j := 0; j < p; j++ {
		scale = math.Max(scale, math.Abs(system[j][j]))
	}
	if scale == 0 {
		return nil, errors.New("features are constant or collinear")
	}
	for col := 0; col < p; col++ {
		pivot := col
		for row := col + 1; row < p; row++ {
			if math.Abs(system[row][col]) > math.Abs(system[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(system[pivot][col]) <= 1e-12*scale {
			return nil, errors.New("features are constant or collinear")
		}
		system[col], system[pivot] = system[pivot], system[col]
		for row := col + 1; row < p; row++ {
			factor := system[row][col] / system[col][col]
			for k := col; k <= p; k++ {
				system[row][k] -= factor * system[col][k]
			}
		}
	}
	solution := make([]float64, p)
	for row := p - 1; row >= 0; row-- {
		sum := system[row][p]
		for k := row + 1; k < p; k++ {
			sum -= system[row][k] * solution[k]
		}
		solution[row] = sum / system[row][row]
	}
	return solution, nil
}

func checkTrainingShape(features [][]float64, targets []float64, width int) error {
	if width == 0 {
		return errors.New("model declares no features")
	}
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
		}
	}
	return nil
}
