package inference

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/ml"
)

// Success is the envelope for a completed prediction. The model parameters
// are null when the model kind has none.
type Success struct {
	Success          bool     `json:"success"`
	Area             float64  `json:"area"`
	Prediction       float64  `json:"prediction"`
	ModelCoefficient *float64 `json:"model_coefficient"`
	ModelIntercept   *float64 `json:"model_intercept"`
}

type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Usage   string `json:"usage,omitempty"`
}

func NewSuccess(area, prediction float64, model ml.Regressor) Success {
	envelope := Success{Success: true, Area: area, Prediction: prediction}
	if params, ok := ml.Linear(model); ok {
		if len(params.Coefficients) > 0 {
			coefficient := params.Coefficients[0]
			envelope.ModelCoefficient = &coefficient
		}
		intercept := params.Intercept
		envelope.ModelIntercept = &intercept
	}
	return envelope
}

func NewFailure(err error) Failure {
	var target *Error
	if errors.As(err, &target) {
		return Failure{Error: target.Message, Usage: target.Usage}
	}
	return Failure{Error: err.Error()}
}

// WriteEnvelope writes v as one JSON line.
func WriteEnvelope(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
