package ml

import "errors"

// MeanRegressor predicts the mean training target for every row. It is the
// baseline model kind and exposes no linear parameters.
type MeanRegressor struct {
	features []string
	constant float64
	fitted   bool
}

func (m *MeanRegressor) Kind() Kind { return KindMeanRegressor }

func (m *MeanRegressor) Features() []string { return append([]string(nil), m.features...) }

func (m *MeanRegressor) Fit(features [][]float64, targets []float64) error {
	if err := checkTrainingShape(features, targets, len(m.features)); err != nil {
		return err
	}
	sum := 0.0
	for _, y := range targets {
		sum += y
	}
	m.constant = sum / float64(len(targets))
	m.fitted = true
	return nil
}

func (m *MeanRegressor) Predict(frame Frame) ([]float64, error) {
	if !m.fitted {
		return nil, errors.New("model not trained")
	}
	rows, err := frame.Rows(m.features)
	if err != nil {
		return nil, err
	}
	out := make([]float64, rows)
	for i := range out {
		out[i] = m.constant
	}
	return out, nil
}
