package ml

import (
	"fmt"
)

// Artifact is the persisted form shared by every encoding. It is a plain
// value so that both gob and CBOR can carry it without registration.
type Artifact struct {
	Kind         Kind      `json:"kind"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Constant     float64   `json:"constant,omitempty"`
}

// NewModel returns an untrained regressor of the given kind.
func NewModel(kind Kind, features []string) (Regressor, error) {
	switch kind {
	case KindLinearRegression:
		return &LinearRegression{features: append([]string(nil), features...)}, nil
	case KindMeanRegressor:
		return &MeanRegressor{features: append([]string(nil), features...)}, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", kind)
	}
}

// FromArtifact rebuilds the regressor an artifact describes.
func FromArtifact(a Artifact) (Regressor, error) {
	switch a.Kind {
	case KindLinearRegression:
		if len(a.Coefficients) == 0 {
			return nil, fmt.Errorf("linear artifact has no coefficients")
		}
		if len(a.Coefficients) != len(a.Features) {
			return nil, fmt.Errorf("linear artifact has %d coefficients for %d features", len(a.Coefficients), len(a.Features))
		}
		return NewLinearRegression(a.Features, a.Coefficients, a.Intercept), nil
	case KindMeanRegressor:
		return &MeanRegressor{features: append([]string(nil), a.Features...), constant: a.Constant, fitted: true}, nil
	case "":
		return nil, fmt.Errorf("artifact does not declare a model kind")
	default:
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
}

// ToArtifact captures the fitted state of r.
func ToArtifact(r Regressor) (Artifact, error) {
	switch m := r.(type) {
	case *LinearRegression:
		if m.coef == nil {
			return Artifact{}, fmt.Errorf("model not trained")
		}
		return Artifact{
			Kind:         KindLinearRegression,
			Features:     append([]string(nil), m.features...),
			Coefficients: append([]float64(nil), m.coef...),
			Intercept:    m.intercept,
		}, nil
	case *MeanRegressor:
		if !m.fitted {
			return Artifact{}, fmt.Errorf("model not trained")
		}
		return Artifact{
			Kind:     KindMeanRegressor,
			Features: append([]string(nil), m.features...),
			Constant: m.constant,
		}, nil
	default:
		return Artifact{}, fmt.Errorf("unsupported model type %T", r)
	}
}
