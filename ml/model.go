package ml

import (
	"errors"
	"fmt"
)

// Kind is the model family an artifact declares. Capabilities such as
// exposing linear parameters are decided by the kind, not by probing.
type Kind string

const (
	KindLinearRegression Kind = "linear_regression"
	KindMeanRegressor    Kind = "mean_regressor"
)

// Frame is a column-oriented batch of input rows keyed by feature name.
type Frame map[string][]float64

// SingleRow builds a one-row, one-column frame.
func SingleRow(feature string, value float64) Frame {
	return Frame{feature: {value}}
}

// Rows returns the row count shared by the named columns.
func (f Frame) Rows(features []string) (int, error) {
	if len(features) == 0 {
		return 0, errors.New("model declares no features")
	}
	rows := -1
	for _, name := range features {
		column, ok := f[name]
		if !ok {
			return 0, fmt.Errorf("missing feature column %q", name)
		}
		if rows >= 0 && len(column) != rows {
			return 0, fmt.Errorf("feature column %q has %d rows, want %d", name, len(column), rows)
		}
		rows = len(column)
	}
	if rows == 0 {
		return 0, errors.New("input frame has no rows")
	}
	return rows, nil
}

type Regressor interface {
	Kind() Kind
	Features() []string
	Fit(features [][]float64, targets []float64) error
	Predict(frame Frame) ([]float64, error)
}

// LinearParams are the fitted parameters of a linear model.
type LinearParams struct {
	Coefficients []float64
	Intercept    float64
}

// Linear reports the linear parameters of r when its declared kind has them.
func Linear(r Regressor) (LinearParams, bool) {
	if r == nil || r.Kind() != KindLinearRegression {
		return LinearParams{}, false
	}
	lr, ok := r.(*LinearRegression)
	if !ok {
		return LinearParams{}, false
	}
	return lr.Params(), true
}
