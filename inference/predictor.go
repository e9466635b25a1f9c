package inference

import (
	"errors"
	"fmt"
	"math"

	"github.com/0uali-Yassine/Machine-Learning-deployment-system/ml"
)

// FeatureName is the single input column every area model is trained on.
const FeatureName = "area"

// Predict runs model on one row keyed by FeatureName and returns the first
// output value.
func Predict(model ml.Regressor, area float64) (float64, error) {
	if model == nil {
		return 0, predictionError(errors.New("no model loaded"))
	}
	out, err := model.Predict(ml.SingleRow(FeatureName, area))
	if err != nil {
		return 0, predictionError(err)
	}
	if len(out) == 0 {
		return 0, predictionError(errors.New("model returned no output"))
	}
	prediction := out[0]
	if math.IsNaN(prediction) || math.IsInf(prediction, 0) {
		return 0, predictionError(fmt.Errorf("model returned non-finite value %v", prediction))
	}
	return prediction, nil
}
